package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Clementine55/Licey22Schedule/internal/cache"
	"github.com/Clementine55/Licey22Schedule/internal/dto"
	"github.com/Clementine55/Licey22Schedule/internal/model"
	"github.com/Clementine55/Licey22Schedule/internal/view"
	"github.com/Clementine55/Licey22Schedule/pkg/timesync"
)

// SnapshotStore 课表快照来源（cache.Manager 实现）
type SnapshotStore interface {
	Names() []string
	Get(ctx context.Context, name string) (*model.CachedSnapshot, error)
	Refresh(ctx context.Context, name string) (cache.RefreshResult, error)
}

// TimeSource 当地时间来源（timesync.Client 实现）
type TimeSource interface {
	Now(ctx context.Context) timesync.CurrentTime
}

// DisplayOptions 屏幕展示参数
type DisplayOptions struct {
	Window           view.Window
	CarouselInterval time.Duration
	RefreshInterval  time.Duration
}

// DisplayService 课表展示业务接口
type DisplayService interface {
	Schedules() []string
	Week(ctx context.Context, name string) (*dto.WeekResponse, error)
	Consultations(ctx context.Context, name string) (*dto.ConsultationsResponse, error)
	Today(ctx context.Context, name string) (*dto.TodayResponse, error)
	Refresh(ctx context.Context, name string) (*dto.RefreshResponse, error)
	RefreshAll(ctx context.Context) []dto.RefreshResponse
}

type displayService struct {
	store  SnapshotStore
	clock  TimeSource
	opts   DisplayOptions
	logger *zap.Logger
}

// NewDisplayService 创建 DisplayService 实例
func NewDisplayService(store SnapshotStore, clock TimeSource, opts DisplayOptions, logger *zap.Logger) DisplayService {
	return &displayService{store: store, clock: clock, opts: opts, logger: logger}
}

func (s *displayService) Schedules() []string {
	return s.store.Names()
}

// ────────────────────── Week ──────────────────────

func (s *displayService) Week(ctx context.Context, name string) (*dto.WeekResponse, error) {
	snap, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now(ctx)
	dt := dayType(snap, now.DateISO)

	return &dto.WeekResponse{
		Schedule: name,
		DayType:  dt,
		DateISO:  now.DateISO,
		Days:     snap.Week(dt),
		Order:    model.Weekdays,
	}, nil
}

// ────────────────────── Consultations ──────────────────────

func (s *displayService) Consultations(ctx context.Context, name string) (*dto.ConsultationsResponse, error) {
	snap, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return &dto.ConsultationsResponse{Schedule: name, Consultations: snap.Consultations}, nil
}

// ────────────────────── Today ──────────────────────

func (s *displayService) Today(ctx context.Context, name string) (*dto.TodayResponse, error) {
	snap, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now(ctx)
	h, m := now.HourMinute()
	clock := model.NewClock(h, m)
	dt := dayType(snap, now.DateISO)
	if dt == model.DayShort {
		s.logger.Warn("今天是缩短日", zap.String("schedule", name), zap.String("date", now.DateISO))
	}

	day := s.opts.Window.FilterDay(snap.Week(dt)[now.DayName], clock)
	consultations := s.opts.Window.FilterConsultations(snap.Consultations[now.DayName], clock)
	if day.PortraitView == nil {
		day.PortraitView = map[string]model.PortraitEntry{}
	}

	return &dto.TodayResponse{
		Schedule:         name,
		DayName:          now.DayName,
		DateDisplay:      now.DateDisplay,
		DateISO:          now.DateISO,
		Time:             now.Time.Format("15:04:05"),
		TimeSynced:       now.Synced,
		DayType:          dt,
		LandscapeSlides:  day.LandscapeSlides,
		PortraitView:     day.PortraitView,
		Consultations:    consultations,
		LessonsAreOver:   len(day.LandscapeSlides) == 0 && len(consultations) == 0,
		IsWeekend:        now.DayName == model.Sunday,
		CarouselInterval: int(s.opts.CarouselInterval / time.Second),
		RefreshInterval:  int(s.opts.RefreshInterval / time.Second),
	}, nil
}

func dayType(snap *model.CachedSnapshot, dateISO string) model.DayType {
	if snap.IsShortDay(dateISO) {
		return model.DayShort
	}
	return model.DayNormal
}

// ────────────────────── Refresh ──────────────────────

func (s *displayService) Refresh(ctx context.Context, name string) (*dto.RefreshResponse, error) {
	res, err := s.store.Refresh(ctx, name)
	resp := toRefreshResponse(name, res, err)
	if err != nil {
		s.logger.Error("强制刷新失败", zap.String("schedule", name), zap.Error(err))
		return resp, err
	}
	return resp, nil
}

// RefreshAll 依次刷新全部课表，单个失败不影响其余
func (s *displayService) RefreshAll(ctx context.Context) []dto.RefreshResponse {
	names := s.store.Names()
	out := make([]dto.RefreshResponse, 0, len(names))
	for _, name := range names {
		resp, _ := s.Refresh(ctx, name)
		out = append(out, *resp)
	}
	return out
}

func toRefreshResponse(name string, res cache.RefreshResult, err error) *dto.RefreshResponse {
	resp := &dto.RefreshResponse{
		Schedule: name,
		Status:   res.StatusName(),
		Rebuilt:  res.Rebuilt,
		Changes:  res.Changes,
		Warnings: res.Warnings,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}
