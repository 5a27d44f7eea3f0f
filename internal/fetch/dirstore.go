package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DirStore 以本地目录充当远端存储（网络共享盘挂载、开发与测试）
type DirStore struct {
	root string
}

// NewDirStore 创建目录存储
func NewDirStore(root string) *DirStore {
	return &DirStore{root: root}
}

func (d *DirStore) resolve(path string) string {
	path = strings.TrimPrefix(path, "disk:")
	return filepath.Join(d.root, filepath.Clean("/"+path))
}

// MD5 计算目录中文件的 MD5
func (d *DirStore) MD5(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sum, err := FileMD5(d.resolve(path))
	if err != nil {
		return "", fmt.Errorf("读取 %s 失败: %w", path, err)
	}
	return sum, nil
}

// Download 复制目录中的文件
func (d *DirStore) Download(ctx context.Context, path string, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Open(d.resolve(path))
	if err != nil {
		return fmt.Errorf("打开 %s 失败: %w", path, err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("复制 %s 失败: %w", path, err)
	}
	return nil
}
