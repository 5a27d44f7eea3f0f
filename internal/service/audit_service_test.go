package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/Clementine55/Licey22Schedule/internal/model"
)

func sampleChanges() model.ChangeSet {
	return model.ChangeSet{
		Modified: []model.SlotChange{{
			Day: "Понедельник", ClassName: "5 А", LessonNumber: "1",
			Old: &model.LessonSlot{Subject: "Математика", Cabinet: "12"},
			New: &model.LessonSlot{Subject: "Геометрия", Cabinet: "12"},
		}},
		Removed: []model.SlotChange{{
			Day: "Вторник", ClassName: "5 Б", LessonNumber: "2",
			Old: &model.LessonSlot{Subject: "Химия", Cabinet: "41"},
		}},
	}
}

func TestAuditService_Record(t *testing.T) {
	repo := &mockChangeLogRepo{}
	svc := NewAuditService(repo, zap.NewNop())

	if err := svc.Record(context.Background(), "main", sampleChanges()); err != nil {
		t.Fatalf("Record 失败: %v", err)
	}
	if len(repo.rows) != 2 {
		t.Fatalf("期望写入 2 条, 实际 %d", len(repo.rows))
	}

	mod := repo.rows[0]
	if mod.ChangeType != model.ChangeModified || mod.ScheduleName != "main" || mod.ChangeLogID == "" {
		t.Errorf("修改记录字段不符: %+v", mod)
	}
	if mod.OldSubject == nil || *mod.OldSubject != "Математика" || *mod.NewSubject != "Геометрия" {
		t.Errorf("新旧内容不符: %+v", mod)
	}
	removed := repo.rows[1]
	if removed.ChangeType != model.ChangeRemoved || removed.NewSubject != nil {
		t.Errorf("删除记录不应有新内容: %+v", removed)
	}
	if mod.DetectedAt.IsZero() || !mod.DetectedAt.Equal(removed.DetectedAt) {
		t.Error("同一次比较的记录应共享检测时间")
	}
}

func TestAuditService_EmptyAndNoRepo(t *testing.T) {
	repo := &mockChangeLogRepo{}
	svc := NewAuditService(repo, zap.NewNop())
	if err := svc.Record(context.Background(), "main", model.ChangeSet{}); err != nil {
		t.Errorf("空变更不应报错: %v", err)
	}
	if len(repo.rows) != 0 {
		t.Error("空变更不应写库")
	}

	logOnly := NewAuditService(nil, zap.NewNop())
	if err := logOnly.Record(context.Background(), "main", sampleChanges()); err != nil {
		t.Errorf("未启用数据库时只记日志: %v", err)
	}
}

func TestAuditService_RepoError(t *testing.T) {
	repo := &mockChangeLogRepo{err: errors.New("db down")}
	svc := NewAuditService(repo, zap.NewNop())
	if err := svc.Record(context.Background(), "main", sampleChanges()); err == nil {
		t.Error("写库失败应返回错误")
	}
}
