package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Clementine55/Licey22Schedule/internal/model"
)

// ChangeLogRepository 课表变更审计数据访问接口（只写）
type ChangeLogRepository interface {
	BatchCreate(ctx context.Context, logs []model.ScheduleChangeLog) error
}

// ── ChangeLog Repository 实现 ──

type changeLogRepo struct {
	db *gorm.DB
}

func NewChangeLogRepo(db *gorm.DB) ChangeLogRepository {
	return &changeLogRepo{db: db}
}

// BatchCreate 同一次比较的全部变更在一个事务内写入
func (r *changeLogRepo) BatchCreate(ctx context.Context, logs []model.ScheduleChangeLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(logs, 100).Error
	})
}
