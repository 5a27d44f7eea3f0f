package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Clementine55/Licey22Schedule/internal/model"
	"github.com/Clementine55/Licey22Schedule/internal/view"
	apperrors "github.com/Clementine55/Licey22Schedule/pkg/errors"
)

// ── 测试辅助 ──

func setupDisplay(clock fixedClock) (DisplayService, *mockStore) {
	store := &mockStore{
		names:      []string{"main", "second"},
		snapshots:  map[string]*model.CachedSnapshot{"main": sampleSnapshot(), "second": sampleSnapshot()},
		refreshErr: map[string]error{},
	}
	opts := DisplayOptions{
		Window:           view.Window{Before: 75 * time.Minute, After: 30 * time.Minute},
		CarouselInterval: 7 * time.Second,
		RefreshInterval:  10 * time.Minute,
	}
	return NewDisplayService(store, clock, opts, zap.NewNop()), store
}

// ── Today ──

func TestToday_DuringLessons(t *testing.T) {
	svc, _ := setupDisplay(at("Понедельник", "2025-10-20", 9, 0))

	resp, err := svc.Today(context.Background(), "main")
	if err != nil {
		t.Fatalf("Today 失败: %v", err)
	}
	if resp.DayType != model.DayNormal {
		t.Errorf("期望常规作息, 实际 %s", resp.DayType)
	}
	if len(resp.LandscapeSlides) != 1 {
		t.Errorf("期望 1 页轮播, 实际 %d", len(resp.LandscapeSlides))
	}
	if _, ok := resp.PortraitView["5 А"]; !ok {
		t.Error("竖屏视图应包含 5 А")
	}
	if len(resp.Consultations) != 0 {
		t.Errorf("上午不应显示下午的答疑, 实际 %d 条", len(resp.Consultations))
	}
	if resp.LessonsAreOver || resp.IsWeekend {
		t.Errorf("上课期间状态不符: over=%v weekend=%v", resp.LessonsAreOver, resp.IsWeekend)
	}
	if resp.Time != "09:00:00" {
		t.Errorf("时间格式不符: %s", resp.Time)
	}
	if resp.CarouselInterval != 7 || resp.RefreshInterval != 600 {
		t.Errorf("间隔不符: %d / %d", resp.CarouselInterval, resp.RefreshInterval)
	}
}

func TestToday_AfterEverything(t *testing.T) {
	svc, _ := setupDisplay(at("Понедельник", "2025-10-20", 18, 0))

	resp, err := svc.Today(context.Background(), "main")
	if err != nil {
		t.Fatalf("Today 失败: %v", err)
	}
	if len(resp.LandscapeSlides) != 0 || len(resp.Consultations) != 0 {
		t.Errorf("放学后不应有内容: %+v", resp)
	}
	if !resp.LessonsAreOver {
		t.Error("应标记为课程已结束")
	}
	if len(resp.PortraitView) == 0 {
		t.Error("竖屏视图不过滤")
	}
}

func TestToday_ConsultationWindow(t *testing.T) {
	svc, _ := setupDisplay(at("Понедельник", "2025-10-20", 14, 30))

	resp, err := svc.Today(context.Background(), "main")
	if err != nil {
		t.Fatalf("Today 失败: %v", err)
	}
	if len(resp.Consultations) != 1 {
		t.Errorf("答疑结束后 30 分钟内应显示, 实际 %d 条", len(resp.Consultations))
	}
	if resp.LessonsAreOver {
		t.Error("有答疑时不应标记为结束")
	}
}

func TestToday_ShortDay(t *testing.T) {
	svc, _ := setupDisplay(at("Вторник", "2025-10-21", 8, 45))

	resp, err := svc.Today(context.Background(), "main")
	if err != nil {
		t.Fatalf("Today 失败: %v", err)
	}
	if resp.DayType != model.DayShort {
		t.Errorf("期望缩短作息, 实际 %s", resp.DayType)
	}
	got := resp.PortraitView["5 А"].Lessons[0].DisplayTime
	if got != "8:30–9:00" {
		t.Errorf("缩短日应使用缩短作息时间, 实际 %s", got)
	}
}

func TestToday_Sunday(t *testing.T) {
	svc, _ := setupDisplay(at(model.Sunday, "2025-10-26", 10, 0))

	resp, err := svc.Today(context.Background(), "main")
	if err != nil {
		t.Fatalf("Today 失败: %v", err)
	}
	if !resp.IsWeekend || !resp.LessonsAreOver {
		t.Errorf("周日状态不符: weekend=%v over=%v", resp.IsWeekend, resp.LessonsAreOver)
	}
	if resp.PortraitView == nil || resp.LandscapeSlides == nil || resp.Consultations == nil {
		t.Error("周日各视图应为空集合而不是 nil")
	}
}

func TestToday_UnknownSchedule(t *testing.T) {
	svc, _ := setupDisplay(at("Понедельник", "2025-10-20", 9, 0))

	if _, err := svc.Today(context.Background(), "missing"); !errors.Is(err, apperrors.ErrNotConfigured) {
		t.Errorf("期望 ErrNotConfigured, 实际 %v", err)
	}
}

// ── Week / Consultations ──

func TestWeek_SelectsDayType(t *testing.T) {
	svc, _ := setupDisplay(at("Вторник", "2025-10-21", 8, 0))

	resp, err := svc.Week(context.Background(), "main")
	if err != nil {
		t.Fatalf("Week 失败: %v", err)
	}
	if resp.DayType != model.DayShort {
		t.Errorf("缩短日应返回缩短作息, 实际 %s", resp.DayType)
	}
	if len(resp.Days) != len(model.Weekdays) || len(resp.Order) != 6 {
		t.Errorf("应包含 6 个工作日, 实际 %d", len(resp.Days))
	}

	svc, _ = setupDisplay(at("Понедельник", "2025-10-20", 8, 0))
	resp, _ = svc.Week(context.Background(), "main")
	if resp.DayType != model.DayNormal {
		t.Errorf("普通日应返回常规作息, 实际 %s", resp.DayType)
	}
}

func TestConsultations(t *testing.T) {
	svc, _ := setupDisplay(at("Понедельник", "2025-10-20", 8, 0))

	resp, err := svc.Consultations(context.Background(), "main")
	if err != nil {
		t.Fatalf("Consultations 失败: %v", err)
	}
	if len(resp.Consultations["Понедельник"]) != 1 {
		t.Errorf("答疑不应按时间过滤, 实际 %+v", resp.Consultations)
	}
}

// ── Refresh ──

func TestRefreshAll_ContinuesAfterFailure(t *testing.T) {
	svc, store := setupDisplay(at("Понедельник", "2025-10-20", 8, 0))
	store.refreshErr["main"] = errRemoteDown

	got := svc.RefreshAll(context.Background())
	if len(got) != 2 || len(store.refreshed) != 2 {
		t.Fatalf("应刷新全部课表, 实际 %d", len(got))
	}
	if got[0].Error == "" || got[0].Status != "FAILED" {
		t.Errorf("失败的课表应带错误信息: %+v", got[0])
	}
	if got[1].Error != "" || got[1].Status != "SUCCESS" || !got[1].Rebuilt {
		t.Errorf("成功的课表结果不符: %+v", got[1])
	}
}

func TestRefresh_ReturnsError(t *testing.T) {
	svc, store := setupDisplay(at("Понедельник", "2025-10-20", 8, 0))
	store.refreshErr["second"] = errRemoteDown

	resp, err := svc.Refresh(context.Background(), "second")
	if !errors.Is(err, errRemoteDown) {
		t.Errorf("期望返回刷新错误, 实际 %v", err)
	}
	if resp == nil || resp.Schedule != "second" {
		t.Errorf("出错时也应返回结果: %+v", resp)
	}
}
