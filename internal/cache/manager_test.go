package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Clementine55/Licey22Schedule/internal/backup"
	"github.com/Clementine55/Licey22Schedule/internal/compare"
	"github.com/Clementine55/Licey22Schedule/internal/fetch"
	"github.com/Clementine55/Licey22Schedule/internal/model"
	"github.com/Clementine55/Licey22Schedule/internal/parser"
	"github.com/Clementine55/Licey22Schedule/internal/workbook/workbooktest"
	apperrors "github.com/Clementine55/Licey22Schedule/pkg/errors"
)

// ── 测试替身 ──

// fakeUpdater 按预设状态返回；SUCCESS 时把 next 指向的工作簿复制到本地路径
type fakeUpdater struct {
	mu     sync.Mutex
	status fetch.Status
	next   string
	delay  time.Duration
	calls  int32
}

func (f *fakeUpdater) UpdateIfChanged(_ context.Context, _, localPath string) (fetch.Status, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.status {
	case fetch.StatusSuccess:
		data, err := os.ReadFile(f.next)
		if err != nil {
			return fetch.StatusFailed, err
		}
		if err := os.WriteFile(localPath, data, 0o644); err != nil {
			return fetch.StatusFailed, err
		}
		return fetch.StatusSuccess, nil
	case fetch.StatusFailed:
		return fetch.StatusFailed, apperrors.ErrTransport
	default:
		return fetch.StatusSkipped, nil
	}
}

func (f *fakeUpdater) set(status fetch.Status, next string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.next = status, next
}

type recordingSink struct {
	mu      sync.Mutex
	records []model.ChangeSet
}

func (s *recordingSink) Record(_ context.Context, _ string, cs model.ChangeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, cs)
	return nil
}

type env struct {
	dir     string
	src     Source
	updater *fakeUpdater
	sink    *recordingSink
	mgr     *Manager
}

func newEnv(t *testing.T, ttl time.Duration) *env {
	t.Helper()
	dir := t.TempDir()
	fixtures := t.TempDir()
	remote := workbooktest.Build(t, fixtures, "remote.xlsx", workbooktest.Options{})

	logger := zap.NewNop()
	p := parser.New(logger)
	e := &env{
		dir:     dir,
		src:     Source{Name: "main", RemotePath: "disk:/main.xlsx", LocalPath: filepath.Join(dir, "main.xlsx")},
		updater: &fakeUpdater{status: fetch.StatusSuccess, next: remote},
		sink:    &recordingSink{},
	}
	e.mgr = NewManager([]Source{e.src}, dir, ttl, Deps{
		Updater: e.updater,
		Backups: backup.NewManager(7, logger),
		Differ:  compare.New(p, logger),
		Parser:  p,
		Sink:    e.sink,
	}, logger)
	return e
}

func assertNoTemp(t *testing.T, dir string) {
	t.Helper()
	left, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(left) != 0 {
		t.Errorf("临时文件应已删除, 实际残留 %v", left)
	}
}

// ── 测试 ──

func TestGet_NotConfigured(t *testing.T) {
	e := newEnv(t, time.Minute)
	if _, err := e.mgr.Get(context.Background(), "unknown"); !errors.Is(err, apperrors.ErrNotConfigured) {
		t.Errorf("期望 ErrNotConfigured, 实际 %v", err)
	}
	if _, err := e.mgr.Refresh(context.Background(), "unknown"); !errors.Is(err, apperrors.ErrNotConfigured) {
		t.Errorf("期望 ErrNotConfigured, 实际 %v", err)
	}
}

func TestGet_BuildsSnapshotThenServesFromCache(t *testing.T) {
	e := newEnv(t, time.Hour)
	ctx := context.Background()

	snap, err := e.mgr.Get(ctx, "main")
	if err != nil {
		t.Fatalf("Get 失败: %v", err)
	}
	if atomic.LoadInt32(&e.updater.calls) != 1 {
		t.Errorf("首次应触发一次下载, 实际 %d", e.updater.calls)
	}

	for _, d := range model.Weekdays {
		if _, ok := snap.ScheduleNormal[d]; !ok {
			t.Errorf("常规作息缺少 %s", d)
		}
	}
	monday := snap.ScheduleNormal["Понедельник"]
	if _, ok := monday.PortraitView["5 А"]; !ok {
		t.Error("竖屏视图缺少 5 А")
	}
	if _, ok := monday.PortraitView["1 А"]; !ok {
		t.Error("竖屏视图应包含小学部班级")
	}
	if len(monday.LandscapeSlides) == 0 {
		t.Error("横屏视图不应为空")
	}
	shortFirst := snap.ScheduleShort["Понедельник"].PortraitView["5 А"].Lessons[0]
	if shortFirst.DisplayTime != "8:30–9:00" {
		t.Errorf("缩短作息第一节期望 8:30–9:00, 实际 %q", shortFirst.DisplayTime)
	}
	if len(snap.Consultations["Понедельник"]) != 4 {
		t.Errorf("周一答疑期望 4 条, 实际 %d", len(snap.Consultations["Понедельник"]))
	}
	if !snap.IsShortDay("2025-12-30") {
		t.Errorf("缩短日不符: %v", snap.ShortDays)
	}

	if _, err := e.mgr.Get(ctx, "main"); err != nil {
		t.Fatalf("第二次 Get 失败: %v", err)
	}
	if atomic.LoadInt32(&e.updater.calls) != 1 {
		t.Errorf("缓存未过期时不应下载, 实际调用 %d 次", e.updater.calls)
	}
	assertNoTemp(t, e.dir)
}

func TestGet_ConcurrentRequestsRefreshOnce(t *testing.T) {
	e := newEnv(t, time.Hour)
	e.updater.delay = 50 * time.Millisecond

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.mgr.Get(context.Background(), "main"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("并发 Get 失败: %v", err)
	}
	if n := atomic.LoadInt32(&e.updater.calls); n != 1 {
		t.Errorf("并发请求只应刷新一次, 实际 %d 次", n)
	}
}

func TestRefresh_FailedFallsBackToLocalFile(t *testing.T) {
	e := newEnv(t, time.Hour)
	ctx := context.Background()
	if _, err := e.mgr.Get(ctx, "main"); err != nil {
		t.Fatalf("准备阶段失败: %v", err)
	}

	e.updater.set(fetch.StatusFailed, "")
	res, err := e.mgr.Refresh(ctx, "main")
	if err != nil {
		t.Fatalf("有本地文件时下载失败不应报错: %v", err)
	}
	if !res.Rebuilt || len(res.Warnings) == 0 {
		t.Errorf("应使用旧文件重建并给出警告: %+v", res)
	}
	if res.StatusName() != "FAILED" {
		t.Errorf("状态期望 FAILED, 实际 %s", res.StatusName())
	}
}

func TestRefresh_FailedWithoutLocalFile(t *testing.T) {
	e := newEnv(t, time.Hour)
	e.updater.set(fetch.StatusFailed, "")

	_, err := e.mgr.Get(context.Background(), "main")
	if !errors.Is(err, apperrors.ErrNoSource) {
		t.Errorf("期望 ErrNoSource, 实际 %v", err)
	}
}

func TestGet_ParseFailureServesStaleCache(t *testing.T) {
	e := newEnv(t, time.Hour)
	ctx := context.Background()
	if _, err := e.mgr.Get(ctx, "main"); err != nil {
		t.Fatalf("准备阶段失败: %v", err)
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(e.mgr.CachePath("main"), old, old); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(e.src.LocalPath, []byte("not a workbook"), 0o644); err != nil {
		t.Fatal(err)
	}
	e.updater.set(fetch.StatusFailed, "")

	if _, err := e.mgr.Refresh(ctx, "main"); !errors.Is(err, apperrors.ErrParse) {
		t.Fatalf("本地文件损坏时刷新期望 ErrParse, 实际 %v", err)
	}
	snap, err := e.mgr.Get(ctx, "main")
	if err != nil {
		t.Fatalf("旧缓存仍在时 Get 不应报错: %v", err)
	}
	if _, ok := snap.ScheduleNormal["Понедельник"].PortraitView["5 А"]; !ok {
		t.Error("应返回旧缓存内容")
	}
}

func TestWrite_ConcurrentWritersLeaveCompleteFile(t *testing.T) {
	e := newEnv(t, time.Hour)
	snap, err := e.mgr.Get(context.Background(), "main")
	if err != nil {
		t.Fatalf("准备阶段失败: %v", err)
	}

	// 两个不共享锁的管理器同时写同一缓存文件
	other := NewManager([]Source{e.src}, e.dir, time.Hour, Deps{Parser: e.mgr.deps.Parser}, zap.NewNop())
	path := e.mgr.CachePath("main")
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		for _, m := range []*Manager{e.mgr, other} {
			wg.Add(1)
			go func(m *Manager) {
				defer wg.Done()
				if err := m.write(path, snap); err != nil {
					errs <- err
				}
			}(m)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("并发写入失败: %v", err)
	}

	got, err := e.mgr.read("main")
	if err != nil {
		t.Fatalf("并发写入后缓存应完整可读: %v", err)
	}
	if len(got.ScheduleNormal) != len(snap.ScheduleNormal) {
		t.Errorf("缓存内容不完整: %d 天", len(got.ScheduleNormal))
	}
	assertNoTemp(t, e.dir)
}

func TestRefresh_SkippedTouchesCache(t *testing.T) {
	e := newEnv(t, time.Hour)
	ctx := context.Background()
	if _, err := e.mgr.Get(ctx, "main"); err != nil {
		t.Fatalf("准备阶段失败: %v", err)
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(e.mgr.CachePath("main"), old, old); err != nil {
		t.Fatal(err)
	}

	e.updater.set(fetch.StatusSkipped, "")
	if _, err := e.mgr.Get(ctx, "main"); err != nil {
		t.Fatalf("Get 失败: %v", err)
	}
	info, err := os.Stat(e.mgr.CachePath("main"))
	if err != nil {
		t.Fatal(err)
	}
	if time.Since(info.ModTime()) > time.Minute {
		t.Errorf("SKIPPED 时应刷新缓存修改时间, 实际 %v", info.ModTime())
	}
}

func TestRefresh_SkippedWithoutCacheParsesLocal(t *testing.T) {
	e := newEnv(t, time.Hour)
	workbooktest.Build(t, e.dir, "main.xlsx", workbooktest.Options{})
	e.updater.set(fetch.StatusSkipped, "")

	res, err := e.mgr.Refresh(context.Background(), "main")
	if err != nil {
		t.Fatalf("Refresh 失败: %v", err)
	}
	if !res.Rebuilt {
		t.Error("缓存不存在时应解析本地文件生成缓存")
	}
}

func TestRefresh_RecordsChanges(t *testing.T) {
	e := newEnv(t, time.Hour)
	ctx := context.Background()
	if _, err := e.mgr.Refresh(ctx, "main"); err != nil {
		t.Fatalf("首次刷新失败: %v", err)
	}

	rows := workbooktest.DefaultMainFirstRows()
	rows[0][3] = "Геометрия"
	next := workbooktest.Build(t, t.TempDir(), "next.xlsx", workbooktest.Options{MainFirstRows: rows})
	e.updater.set(fetch.StatusSuccess, next)

	// 备份文件名精确到秒，避免与首次备份同名
	time.Sleep(1100 * time.Millisecond)

	res, err := e.mgr.Refresh(ctx, "main")
	if err != nil {
		t.Fatalf("第二次刷新失败: %v", err)
	}
	if len(res.Changes.Modified) != 1 {
		t.Fatalf("期望 1 处修改, 实际 %+v", res.Changes)
	}
	if len(e.sink.records) != 1 {
		t.Errorf("变更应写入记录, 实际 %d 条", len(e.sink.records))
	}
}

func TestLocalLocker_ContextCancel(t *testing.T) {
	l := NewLocalLocker()
	unlock, err := l.Lock(context.Background(), "main")
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "main"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("锁被占用时应随 ctx 超时返回, 实际 %v", err)
	}

	other, err := l.Lock(context.Background(), "other")
	if err != nil {
		t.Fatalf("不同课表不应互相阻塞: %v", err)
	}
	other()
}

type fakeRemoteLock struct {
	err      error
	acquired int
	released int
}

func (f *fakeRemoteLock) AcquireLock(context.Context, string, time.Duration) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	f.acquired++
	return "token", true, nil
}

func (f *fakeRemoteLock) ReleaseLock(context.Context, string, string) error {
	f.released++
	return nil
}

func TestDistributedLocker(t *testing.T) {
	remote := &fakeRemoteLock{}
	d := NewDistributedLocker(remote, time.Minute, zap.NewNop())
	unlock, err := d.Lock(context.Background(), "main")
	if err != nil {
		t.Fatal(err)
	}
	unlock()
	if remote.acquired != 1 || remote.released != 1 {
		t.Errorf("应获取并释放 Redis 锁各一次, 实际 %d/%d", remote.acquired, remote.released)
	}

	down := &fakeRemoteLock{err: errors.New("connection refused")}
	d = NewDistributedLocker(down, time.Minute, zap.NewNop())
	unlock, err = d.Lock(context.Background(), "main")
	if err != nil {
		t.Fatalf("Redis 不可用时应退化为进程内锁: %v", err)
	}
	unlock()
}
