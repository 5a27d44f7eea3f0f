package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Locker 按课表名串行化刷新；返回的 unlock 必须调用
type Locker interface {
	Lock(ctx context.Context, name string) (unlock func(), err error)
}

// LocalLocker 进程内按名称的互斥锁，不同课表互不阻塞
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocalLocker 创建进程内锁
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]chan struct{})}
}

func (l *LocalLocker) slot(name string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[name]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[name] = ch
	}
	return ch
}

// Lock 获取锁，ctx 取消时放弃等待
func (l *LocalLocker) Lock(ctx context.Context, name string) (func(), error) {
	ch := l.slot(name)
	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RemoteLock 跨进程锁的最小接口（pkg/redis.Client 实现）
type RemoteLock interface {
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseLock(ctx context.Context, name, token string) error
}

// DistributedLocker 进程内锁 + Redis 锁
//
// 先取进程内锁，再轮询 Redis 锁直到成功或 ctx 结束；Redis 不可用时退化为仅进程内锁。
type DistributedLocker struct {
	local  *LocalLocker
	remote RemoteLock
	ttl    time.Duration
	poll   time.Duration
	logger *zap.Logger
}

// NewDistributedLocker 创建分布式锁；ttl 为 Redis 锁的过期时间（应大于一次刷新的耗时）
func NewDistributedLocker(remote RemoteLock, ttl time.Duration, logger *zap.Logger) *DistributedLocker {
	return &DistributedLocker{
		local:  NewLocalLocker(),
		remote: remote,
		ttl:    ttl,
		poll:   200 * time.Millisecond,
		logger: logger,
	}
}

// Lock 获取锁
func (d *DistributedLocker) Lock(ctx context.Context, name string) (func(), error) {
	unlockLocal, err := d.local.Lock(ctx, name)
	if err != nil {
		return nil, err
	}

	for {
		token, ok, err := d.remote.AcquireLock(ctx, name, d.ttl)
		if err != nil {
			d.logger.Warn("Redis 锁不可用，仅使用进程内锁", zap.String("schedule", name), zap.Error(err))
			return unlockLocal, nil
		}
		if ok {
			return func() {
				// 原 ctx 可能已取消，释放使用独立的短超时
				rctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := d.remote.ReleaseLock(rctx, name, token); err != nil {
					d.logger.Warn("释放 Redis 锁失败", zap.String("schedule", name), zap.Error(err))
				}
				unlockLocal()
			}, nil
		}

		select {
		case <-ctx.Done():
			unlockLocal()
			return nil, ctx.Err()
		case <-time.After(d.poll):
		}
	}
}
