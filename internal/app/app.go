// Package app 按配置组装各组件，供 server 与 bot 两个进程共用
package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Clementine55/Licey22Schedule/config"
	"github.com/Clementine55/Licey22Schedule/internal/backup"
	"github.com/Clementine55/Licey22Schedule/internal/cache"
	"github.com/Clementine55/Licey22Schedule/internal/compare"
	"github.com/Clementine55/Licey22Schedule/internal/fetch"
	"github.com/Clementine55/Licey22Schedule/internal/parser"
	"github.com/Clementine55/Licey22Schedule/internal/repository"
	"github.com/Clementine55/Licey22Schedule/internal/service"
	"github.com/Clementine55/Licey22Schedule/internal/verify"
	"github.com/Clementine55/Licey22Schedule/internal/view"
	"github.com/Clementine55/Licey22Schedule/pkg/database"
	"github.com/Clementine55/Licey22Schedule/pkg/redis"
	"github.com/Clementine55/Licey22Schedule/pkg/timesync"
	"github.com/Clementine55/Licey22Schedule/pkg/yadisk"
)

// App 组装好的依赖
type App struct {
	Config  *config.Config
	Cache   *cache.Manager
	Service *service.Service
	// Redis、DB 未启用或连接失败时为 nil
	Redis  *redis.Client
	DB     *gorm.DB
	logger *zap.Logger
}

// New 依赖注入: RemoteStore → Fetch → Cache → Service
// Redis 与数据库都是可选的，连接失败时降级运行
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, logger: logger}

	store, err := NewRemoteStore(&cfg.Remote)
	if err != nil {
		return nil, err
	}
	gate := verify.NewGate(verify.Mode(cfg.Verify.Mode), logger)
	fetcher := fetch.NewClient(store, gate, logger)
	p := parser.New(logger)

	var locker cache.Locker
	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，刷新锁仅在进程内生效", zap.Error(err))
		} else {
			a.Redis = rdb
			locker = cache.NewDistributedLocker(rdb, cfg.Redis.LockTTL, logger)
		}
	}

	var changeLogs repository.ChangeLogRepository
	if cfg.Database.Enabled {
		if db, err := openDB(&cfg.Database, logger); err != nil {
			logger.Warn("审计数据库不可用，课表变更只写日志", zap.Error(err))
		} else {
			a.DB = db
			changeLogs = repository.NewRepository(db).ChangeLog
		}
	}
	audit := service.NewAuditService(changeLogs, logger)

	sources := make([]cache.Source, 0, len(cfg.Schedules))
	for _, s := range cfg.Schedules {
		sources = append(sources, cache.Source{Name: s.Name, RemotePath: s.RemotePath, LocalPath: s.LocalPath})
	}
	a.Cache = cache.NewManager(sources, cfg.DataDir, cfg.Cache.TTL, cache.Deps{
		Updater: fetcher,
		Backups: backup.NewManager(cfg.Backup.RetentionDays, logger),
		Differ:  compare.New(p, logger),
		Parser:  p,
		Locker:  locker,
		Sink:    audit,
	}, logger)

	clock := timesync.New(cfg.TimeSync.URL, cfg.TimeSync.RegionOffsetHours, cfg.TimeSync.Timeout, logger)
	a.Service = service.NewService(a.Cache, clock, DisplayOptions(cfg), audit, logger)
	return a, nil
}

// NewRemoteStore 按 remote.kind 选择远端存储
func NewRemoteStore(cfg *config.RemoteConfig) (fetch.RemoteStore, error) {
	switch cfg.Kind {
	case "yadisk":
		return yadisk.New(cfg.Token, cfg.BaseURL, cfg.Timeout), nil
	case "local":
		return fetch.NewDirStore(cfg.LocalRoot), nil
	default:
		return nil, fmt.Errorf("未知的远端存储类型: %q", cfg.Kind)
	}
}

// DisplayOptions 由配置换算屏幕展示参数
func DisplayOptions(cfg *config.Config) service.DisplayOptions {
	return service.DisplayOptions{
		Window: view.Window{
			Before: time.Duration(cfg.Display.ShowBeforeStartMin) * time.Minute,
			After:  time.Duration(cfg.Display.ShowAfterEndMin) * time.Minute,
		},
		CarouselInterval: time.Duration(cfg.Display.CarouselInterval) * time.Second,
		RefreshInterval:  cfg.Cache.TTL,
	}
}

func openDB(cfg *config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	db, err := database.NewDB(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(db, logger); err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return db, nil
}

// Close 释放外部连接
func (a *App) Close() {
	if a.DB != nil {
		if err := database.Close(a.DB); err != nil {
			a.logger.Warn("关闭数据库失败", zap.Error(err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.logger.Warn("关闭 Redis 失败", zap.Error(err))
		}
	}
}
