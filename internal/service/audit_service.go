package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Clementine55/Licey22Schedule/internal/model"
	"github.com/Clementine55/Licey22Schedule/internal/repository"
)

// AuditService 记录课表变更；未启用数据库时只写日志
type AuditService struct {
	repo   repository.ChangeLogRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewAuditService 创建审计服务，repo 可为空
func NewAuditService(repo repository.ChangeLogRepository, logger *zap.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger, now: time.Now}
}

// Record 实现 cache.ChangeSink
func (s *AuditService) Record(ctx context.Context, schedule string, changes model.ChangeSet) error {
	if changes.IsEmpty() {
		return nil
	}
	rows := s.toRows(schedule, changes)
	for _, r := range rows {
		s.logger.Info("课表变更",
			zap.String("schedule", schedule),
			zap.String("type", r.ChangeType),
			zap.String("day", r.Day),
			zap.String("class", r.ClassName),
			zap.String("lesson", r.LessonNumber),
		)
	}
	if s.repo == nil {
		return nil
	}
	if err := s.repo.BatchCreate(ctx, rows); err != nil {
		return fmt.Errorf("写入变更记录失败: %w", err)
	}
	return nil
}

func (s *AuditService) toRows(schedule string, cs model.ChangeSet) []model.ScheduleChangeLog {
	detected := s.now().UTC()
	rows := make([]model.ScheduleChangeLog, 0, cs.Total())
	add := func(kind string, list []model.SlotChange) {
		for _, c := range list {
			row := model.ScheduleChangeLog{
				ChangeLogID:  uuid.NewString(),
				ScheduleName: schedule,
				ChangeType:   kind,
				Day:          c.Day,
				ClassName:    c.ClassName,
				LessonNumber: c.LessonNumber,
				DetectedAt:   detected,
			}
			if c.Old != nil {
				row.OldSubject, row.OldCabinet = strPtr(c.Old.Subject), strPtr(c.Old.Cabinet)
			}
			if c.New != nil {
				row.NewSubject, row.NewCabinet = strPtr(c.New.Subject), strPtr(c.New.Cabinet)
			}
			rows = append(rows, row)
		}
	}
	add(model.ChangeModified, cs.Modified)
	add(model.ChangeAdded, cs.Added)
	add(model.ChangeRemoved, cs.Removed)
	return rows
}

func strPtr(s string) *string { return &s }
