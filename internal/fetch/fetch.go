// Package fetch 按 MD5 判断远端课表是否变化，只在变化时下载并经校验后替换本地文件
package fetch

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Clementine55/Licey22Schedule/pkg/yadisk"

	apperrors "github.com/Clementine55/Licey22Schedule/pkg/errors"
)

// Status 一次更新尝试的结果
type Status int

const (
	// StatusSkipped 远端未变化
	StatusSkipped Status = iota
	// StatusSuccess 已下载并替换本地文件
	StatusSuccess
	// StatusFailed 远端不可用或新文件未通过校验，本地文件保持不变
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "SKIPPED"
	case StatusSuccess:
		return "SUCCESS"
	default:
		return "FAILED"
	}
}

// RemoteStore 远端文件存储
type RemoteStore interface {
	// MD5 返回远端文件的十六进制 MD5；远端未提供时返回空串
	MD5(ctx context.Context, path string) (string, error)
	// Download 将远端文件写入 w
	Download(ctx context.Context, path string, w io.Writer) error
}

// Verifier 下载文件的结构校验
type Verifier interface {
	Verify(path string) error
}

// Client 下载客户端
type Client struct {
	store    RemoteStore
	verifier Verifier
	logger   *zap.Logger
}

// NewClient 创建下载客户端
func NewClient(store RemoteStore, verifier Verifier, logger *zap.Logger) *Client {
	return &Client{store: store, verifier: verifier, logger: logger}
}

// UpdateIfChanged 对比 MD5 后按需下载
//
// 下载先写入同目录下唯一命名的临时文件，校验通过才替换本地文件；无论成败临时文件都会被删除。
// 多个进程并发更新同一文件时各自使用自己的临时文件，最后一次重命名生效。
// 返回 StatusFailed 时 error 说明原因（ErrTransport / ErrVerification）。
func (c *Client) UpdateIfChanged(ctx context.Context, remotePath, localPath string) (Status, error) {
	log := c.logger.With(zap.String("remote", remotePath), zap.String("local", localPath))

	remoteMD5, err := c.store.MD5(ctx, remotePath)
	if err != nil {
		return c.fail(log, err)
	}

	localMD5, err := FileMD5(localPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn("本地文件不存在，强制下载")
	case err != nil:
		log.Warn("计算本地 MD5 失败，重新下载", zap.Error(err))
	case remoteMD5 != "" && remoteMD5 == localMD5:
		log.Info("MD5 一致，跳过更新")
		return StatusSkipped, nil
	default:
		log.Info("MD5 不一致，需要更新", zap.String("remote_md5", remoteMD5), zap.String("local_md5", localMD5))
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return StatusFailed, fmt.Errorf("%w: 创建目录失败: %v", apperrors.ErrTransport, err)
	}
	tmpPath, err := c.download(ctx, remotePath, localPath)
	if tmpPath != "" {
		defer func() {
			if err := os.Remove(tmpPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
				log.Error("删除临时文件失败", zap.String("tmp", tmpPath), zap.Error(err))
			}
		}()
	}
	if err != nil {
		return c.fail(log, err)
	}

	if err := c.verifier.Verify(tmpPath); err != nil {
		log.Error("下载的文件未通过校验，保留原文件", zap.Error(err))
		if !errors.Is(err, apperrors.ErrVerification) {
			err = fmt.Errorf("%w: %v", apperrors.ErrVerification, err)
		}
		return StatusFailed, err
	}

	if err := os.Rename(tmpPath, localPath); err != nil {
		return StatusFailed, fmt.Errorf("%w: 替换本地文件失败: %v", apperrors.ErrTransport, err)
	}
	log.Info("课表文件已更新")
	return StatusSuccess, nil
}

// download 写入 <local>.*.tmp；返回的临时路径非空时由调用方删除
func (c *Client) download(ctx context.Context, remotePath, localPath string) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(localPath), filepath.Base(localPath)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpPath := f.Name()
	if err := c.store.Download(ctx, remotePath, f); err != nil {
		f.Close()
		return tmpPath, err
	}
	return tmpPath, f.Close()
}

// fail 按错误类别记录日志，统一折叠为 StatusFailed
func (c *Client) fail(log *zap.Logger, err error) (Status, error) {
	switch {
	case errors.Is(err, yadisk.ErrConnection), errors.Is(err, context.DeadlineExceeded):
		log.Error("远端存储网络错误", zap.Error(err))
	case errors.Is(err, yadisk.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		log.Error("远端文件不存在", zap.Error(err))
	case errors.Is(err, yadisk.ErrForbidden), errors.Is(err, fs.ErrPermission):
		log.Error("无权访问远端文件", zap.Error(err))
	default:
		log.Error("更新课表文件时发生未知错误", zap.Error(err))
	}
	return StatusFailed, fmt.Errorf("%w: %v", apperrors.ErrTransport, err)
}

// FileMD5 计算本地文件的十六进制 MD5
func FileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
