package service

import (
	"go.uber.org/zap"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Display DisplayService
	Audit   *AuditService
}

// NewService 创建 Service 聚合；audit 需先于缓存管理器创建（作为其变更去处）
func NewService(store SnapshotStore, clock TimeSource, opts DisplayOptions, audit *AuditService, logger *zap.Logger) *Service {
	return &Service{
		Display: NewDisplayService(store, clock, opts, logger),
		Audit:   audit,
	}
}
