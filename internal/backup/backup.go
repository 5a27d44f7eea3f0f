// Package backup 课表文件的时间戳备份、过期清理与最新备份查找
package backup

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// timestampLayout 备份文件名中的时间戳格式
const timestampLayout = "2006-01-02_15-04-05"

const ext = ".bak"

var stampPattern = regexp.MustCompile(`_(\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2})\.bak$`)

// Manager 备份管理器
type Manager struct {
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewManager 创建备份管理器，retentionDays 为保留天数
func NewManager(retentionDays int, logger *zap.Logger) *Manager {
	return &Manager{
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		logger:    logger,
		now:       time.Now,
	}
}

// Dir 某课表的备份目录：<本地文件所在目录>/backups/<课表名>/
func Dir(name, localPath string) string {
	return filepath.Join(filepath.Dir(localPath), "backups", name)
}

// Create 复制当前本地文件为 <文件名>_<时间戳>.bak 并保留修改时间
// 本地文件不存在时返回空路径
func (m *Manager) Create(name, localPath string) (string, error) {
	info, err := os.Stat(localPath)
	if errors.Is(err, fs.ErrNotExist) {
		m.logger.Info("待备份文件不存在，跳过", zap.String("path", localPath))
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("读取待备份文件失败: %w", err)
	}

	dir := Dir(name, localPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("创建备份目录失败: %w", err)
	}
	dst := filepath.Join(dir, fmt.Sprintf("%s_%s%s", filepath.Base(localPath), m.now().Format(timestampLayout), ext))

	if err := copyFile(localPath, dst); err != nil {
		return "", fmt.Errorf("复制备份失败: %w", err)
	}
	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		m.logger.Warn("保留备份修改时间失败", zap.String("path", dst), zap.Error(err))
	}

	m.logger.Info("已创建备份", zap.String("schedule", name), zap.String("path", dst))
	return dst, nil
}

// Clean 删除时间戳早于保留期的备份；文件名无法识别的备份仅告警跳过
func (m *Manager) Clean(name, localPath string) (int, error) {
	dir := Dir(name, localPath)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("读取备份目录失败: %w", err)
	}

	cutoff := m.now().Add(-m.retention)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		stamp, ok := parseStamp(e.Name())
		if !ok {
			m.logger.Warn("备份文件名中没有时间戳，跳过", zap.String("file", e.Name()))
			continue
		}
		if !stamp.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			m.logger.Warn("删除过期备份失败", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		removed++
		m.logger.Info("已删除过期备份", zap.String("file", e.Name()))
	}
	return removed, nil
}

// Latest 返回该文件时间戳最新的备份
func (m *Manager) Latest(name, localPath string) (string, bool) {
	dir := Dir(name, localPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	prefix := filepath.Base(localPath) + "_"
	var (
		best   string
		bestAt time.Time
	)
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		stamp, ok := parseStamp(e.Name())
		if !ok {
			continue
		}
		if best == "" || stamp.After(bestAt) {
			best, bestAt = e.Name(), stamp
		}
	}
	if best == "" {
		return "", false
	}
	return filepath.Join(dir, best), true
}

func parseStamp(fileName string) (time.Time, bool) {
	m := stampPattern.FindStringSubmatch(fileName)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(timestampLayout, m[1], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
