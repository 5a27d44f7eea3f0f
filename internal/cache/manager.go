// Package cache 课表快照的持久化缓存：过期判断、加锁刷新、原子写入
//
// 请求路径只读缓存文件；下载、解析只在缓存过期或强制刷新时、持有该课表的锁后进行。
// 同一课表同一时刻最多一个刷新在执行，等待锁的请求在拿到锁后重新检查是否仍需刷新。
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Clementine55/Licey22Schedule/internal/fetch"
	"github.com/Clementine55/Licey22Schedule/internal/model"
	"github.com/Clementine55/Licey22Schedule/internal/parser"
	"github.com/Clementine55/Licey22Schedule/internal/view"
	"github.com/Clementine55/Licey22Schedule/internal/workbook"
	apperrors "github.com/Clementine55/Licey22Schedule/pkg/errors"
)

// Source 一个已配置的课表
type Source struct {
	Name       string
	RemotePath string
	LocalPath  string
}

// Updater 按需下载（fetch.Client 实现）
type Updater interface {
	UpdateIfChanged(ctx context.Context, remotePath, localPath string) (fetch.Status, error)
}

// Backups 备份管理（backup.Manager 实现）
type Backups interface {
	Latest(name, localPath string) (string, bool)
	Create(name, localPath string) (string, error)
	Clean(name, localPath string) (int, error)
}

// Differ 新旧文件比较（compare.Comparator 实现）
type Differ interface {
	Compare(oldPath, newPath string) model.ChangeSet
}

// ChangeSink 变更记录去处（审计服务实现）；可为空
type ChangeSink interface {
	Record(ctx context.Context, schedule string, changes model.ChangeSet) error
}

// RefreshResult 一次刷新的结果
type RefreshResult struct {
	Name   string       `json:"name"`
	Status fetch.Status `json:"-"`
	// Rebuilt 缓存文件是否被重新生成
	Rebuilt  bool            `json:"rebuilt"`
	Changes  model.ChangeSet `json:"changes"`
	Warnings []string        `json:"warnings,omitempty"`
}

// StatusName 下载状态名（SKIPPED / SUCCESS / FAILED）
func (r RefreshResult) StatusName() string { return r.Status.String() }

// Deps 管理器的协作者
type Deps struct {
	Updater Updater
	Backups Backups
	Differ  Differ
	Parser  *parser.Parser
	Locker  Locker
	Sink    ChangeSink
}

// Manager 缓存管理器
type Manager struct {
	sources map[string]Source
	order   []string
	dataDir string
	ttl     time.Duration
	deps    Deps
	logger  *zap.Logger
	now     func() time.Time
}

// NewManager 创建缓存管理器；Locker 为空时使用进程内锁
func NewManager(sources []Source, dataDir string, ttl time.Duration, deps Deps, logger *zap.Logger) *Manager {
	m := &Manager{
		sources: make(map[string]Source, len(sources)),
		dataDir: dataDir,
		ttl:     ttl,
		deps:    deps,
		logger:  logger,
		now:     time.Now,
	}
	for _, s := range sources {
		m.sources[s.Name] = s
		m.order = append(m.order, s.Name)
	}
	if m.deps.Locker == nil {
		m.deps.Locker = NewLocalLocker()
	}
	return m
}

// Names 已配置的课表名（配置顺序）
func (m *Manager) Names() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// CachePath 缓存文件路径 <data_dir>/<name>_cache.json
func (m *Manager) CachePath(name string) string {
	return filepath.Join(m.dataDir, name+"_cache.json")
}

// Get 返回课表快照；缓存过期时先刷新，刷新失败但旧缓存仍在时返回旧缓存
func (m *Manager) Get(ctx context.Context, name string) (*model.CachedSnapshot, error) {
	src, ok := m.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrNotConfigured, name)
	}
	if err := os.MkdirAll(m.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: 创建数据目录失败: %v", apperrors.ErrPersist, err)
	}

	if m.isStale(name) {
		if _, err := m.refreshLocked(ctx, src, false); err != nil {
			if _, serr := os.Stat(m.CachePath(name)); serr != nil {
				return nil, err
			}
			m.logger.Warn("刷新失败，继续使用旧缓存", zap.String("schedule", name), zap.Error(err))
		}
	}
	return m.read(name)
}

// Refresh 强制刷新（忽略 TTL），供管理接口与机器人使用
func (m *Manager) Refresh(ctx context.Context, name string) (RefreshResult, error) {
	src, ok := m.sources[name]
	if !ok {
		return RefreshResult{Name: name}, fmt.Errorf("%w: %s", apperrors.ErrNotConfigured, name)
	}
	if err := os.MkdirAll(m.dataDir, 0o755); err != nil {
		return RefreshResult{Name: name}, fmt.Errorf("%w: 创建数据目录失败: %v", apperrors.ErrPersist, err)
	}
	m.logger.Warn("强制刷新缓存", zap.String("schedule", name))
	return m.refreshLocked(ctx, src, true)
}

// refreshLocked 持锁刷新；非强制时拿到锁后再次检查是否仍过期
func (m *Manager) refreshLocked(ctx context.Context, src Source, force bool) (RefreshResult, error) {
	unlock, err := m.deps.Locker.Lock(ctx, src.Name)
	if err != nil {
		return RefreshResult{Name: src.Name}, fmt.Errorf("等待刷新锁失败: %w", err)
	}
	defer unlock()

	if !force && !m.isStale(src.Name) {
		m.logger.Info("等待期间缓存已被更新，跳过刷新", zap.String("schedule", src.Name))
		return RefreshResult{Name: src.Name, Status: fetch.StatusSkipped}, nil
	}
	return m.refresh(ctx, src)
}

func (m *Manager) isStale(name string) bool {
	info, err := os.Stat(m.CachePath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn("缓存不存在", zap.String("schedule", name))
		}
		return true
	}
	if m.now().Sub(info.ModTime()) > m.ttl {
		m.logger.Info("缓存已过期", zap.String("schedule", name))
		return true
	}
	return false
}

func (m *Manager) refresh(ctx context.Context, src Source) (RefreshResult, error) {
	log := m.logger.With(zap.String("schedule", src.Name))
	res := RefreshResult{Name: src.Name}
	cachePath := m.CachePath(src.Name)

	status, ferr := m.deps.Updater.UpdateIfChanged(ctx, src.RemotePath, src.LocalPath)
	res.Status = status

	switch status {
	case fetch.StatusSkipped:
		if _, err := os.Stat(cachePath); err == nil {
			now := m.now()
			if err := os.Chtimes(cachePath, now, now); err != nil {
				log.Warn("刷新缓存修改时间失败", zap.Error(err))
			}
			log.Info("远端未变化，仅延长缓存有效期")
			return res, nil
		}
		log.Info("远端未变化但缓存不存在，解析本地文件")

	case fetch.StatusSuccess:
		res.Changes = m.afterDownload(ctx, src, log)

	default:
		if _, err := os.Stat(src.LocalPath); err != nil {
			log.Error("下载失败且本地没有课表文件", zap.Error(ferr))
			return res, fmt.Errorf("%w: %v", apperrors.ErrNoSource, ferr)
		}
		log.Warn("下载失败，继续使用本地旧文件", zap.Error(ferr))
		res.Warnings = append(res.Warnings, fmt.Sprintf("下载失败，使用本地旧文件: %v", ferr))
	}

	snap, err := m.build(src.LocalPath)
	if err != nil {
		return res, err
	}
	if err := m.write(cachePath, snap); err != nil {
		return res, err
	}
	res.Rebuilt = true
	log.Info("缓存已更新", zap.String("path", cachePath))
	return res, nil
}

// afterDownload 备份、清理、比较、记录，全部尽力而为，失败只记日志
func (m *Manager) afterDownload(ctx context.Context, src Source, log *zap.Logger) model.ChangeSet {
	var changes model.ChangeSet
	if m.deps.Backups == nil {
		return changes
	}

	previous, hasPrevious := m.deps.Backups.Latest(src.Name, src.LocalPath)
	if _, err := m.deps.Backups.Create(src.Name, src.LocalPath); err != nil {
		log.Error("创建备份失败", zap.Error(err))
	}
	if _, err := m.deps.Backups.Clean(src.Name, src.LocalPath); err != nil {
		log.Error("清理过期备份失败", zap.Error(err))
	}

	if !hasPrevious || m.deps.Differ == nil {
		return changes
	}
	changes = m.deps.Differ.Compare(previous, src.LocalPath)
	if changes.IsEmpty() {
		return changes
	}
	log.Warn("课表内容发生变化",
		zap.Int("modified", len(changes.Modified)),
		zap.Int("added", len(changes.Added)),
		zap.Int("removed", len(changes.Removed)),
	)
	if m.deps.Sink != nil {
		if err := m.deps.Sink.Record(ctx, src.Name, changes); err != nil {
			log.Error("记录课表变更失败", zap.Error(err))
		}
	}
	return changes
}

// build 打开一次工作簿，解析常规与缩短两种作息及答疑、缩短日
func (m *Manager) build(localPath string) (*model.CachedSnapshot, error) {
	wb, err := workbook.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrParse, err)
	}
	defer wb.Close()

	p := m.deps.Parser
	normal := p.Schedule(wb, model.DayNormal)
	short := p.Schedule(wb, model.DayShort)

	return &model.CachedSnapshot{
		ScheduleNormal: view.BuildWeek(normal),
		ScheduleShort:  view.BuildWeek(short),
		Consultations:  p.Consultations(wb, ""),
		ShortDays:      p.ShortDays(wb),
	}, nil
}

// write 先写唯一命名的临时文件再重命名，读者不会看到半个文件，并发写者互不覆盖
func (m *Manager) write(path string, snap *model.CachedSnapshot) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("%w: 序列化失败: %v", apperrors.ErrPersist, err)
	}

	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: 创建临时文件失败: %v", apperrors.ErrPersist, err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("%w: 写临时文件失败: %v", apperrors.ErrPersist, err)
	}
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		return fmt.Errorf("%w: 设置文件权限失败: %v", apperrors.ErrPersist, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: 写临时文件失败: %v", apperrors.ErrPersist, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: 替换缓存文件失败: %v", apperrors.ErrPersist, err)
	}
	return nil
}

func (m *Manager) read(name string) (*model.CachedSnapshot, error) {
	data, err := os.ReadFile(m.CachePath(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrCacheRead, err)
	}
	var snap model.CachedSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrCacheRead, err)
	}
	return &snap, nil
}
