package service

import (
	"context"
	"errors"
	"time"

	"github.com/Clementine55/Licey22Schedule/internal/cache"
	"github.com/Clementine55/Licey22Schedule/internal/fetch"
	"github.com/Clementine55/Licey22Schedule/internal/model"
	"github.com/Clementine55/Licey22Schedule/internal/view"
	apperrors "github.com/Clementine55/Licey22Schedule/pkg/errors"
	"github.com/Clementine55/Licey22Schedule/pkg/timesync"
)

// ── Mock SnapshotStore ──

type mockStore struct {
	names      []string
	snapshots  map[string]*model.CachedSnapshot
	refreshErr map[string]error
	refreshed  []string
}

func (m *mockStore) Names() []string { return m.names }

func (m *mockStore) Get(_ context.Context, name string) (*model.CachedSnapshot, error) {
	snap, ok := m.snapshots[name]
	if !ok {
		return nil, apperrors.ErrNotConfigured
	}
	return snap, nil
}

func (m *mockStore) Refresh(_ context.Context, name string) (cache.RefreshResult, error) {
	m.refreshed = append(m.refreshed, name)
	if err := m.refreshErr[name]; err != nil {
		return cache.RefreshResult{Name: name, Status: fetch.StatusFailed}, err
	}
	return cache.RefreshResult{Name: name, Status: fetch.StatusSuccess, Rebuilt: true}, nil
}

// ── Mock TimeSource ──

type fixedClock struct {
	now timesync.CurrentTime
}

func (f fixedClock) Now(context.Context) timesync.CurrentTime { return f.now }

func at(day, iso string, hour, minute int) fixedClock {
	return fixedClock{now: timesync.CurrentTime{
		DayName:     day,
		DateISO:     iso,
		DateDisplay: iso,
		Time:        time.Date(2025, 10, 20, hour, minute, 0, 0, time.UTC),
		Synced:      true,
	}}
}

// ── Mock ChangeLogRepository ──

type mockChangeLogRepo struct {
	rows []model.ScheduleChangeLog
	err  error
}

func (m *mockChangeLogRepo) BatchCreate(_ context.Context, logs []model.ScheduleChangeLog) error {
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, logs...)
	return nil
}

var errRemoteDown = errors.New("remote down")

// ── 样例快照 ──

func lesson(day, class string, n int, subject, start, end string) model.RawLesson {
	s, e := model.MustClock(start), model.MustClock(end)
	return model.RawLesson{
		DayName:      day,
		ClassName:    class,
		Shift:        model.ShiftFirst,
		LessonNumber: string(rune('0' + n)),
		DisplayTime:  s.Short() + "–" + e.Short(),
		Subject:      subject,
		Cabinet:      "12",
		StartTime:    s.Ptr(),
		EndTime:      e.Ptr(),
	}
}

// sampleSnapshot 周一、周二各有 5 А 的课；周二（2025-10-21）为缩短日
func sampleSnapshot() *model.CachedSnapshot {
	normal := map[string][]model.RawLesson{
		"Понедельник": {
			lesson("Понедельник", "5 А", 1, "Математика", "8:30", "9:10"),
			lesson("Понедельник", "5 А", 2, "История", "9:15", "9:55"),
		},
		"Вторник": {lesson("Вторник", "5 А", 1, "Биология", "8:30", "9:10")},
	}
	short := map[string][]model.RawLesson{
		"Понедельник": {lesson("Понедельник", "5 А", 1, "Математика", "8:30", "9:00")},
		"Вторник":     {lesson("Вторник", "5 А", 1, "Биология", "8:30", "9:00")},
	}
	return &model.CachedSnapshot{
		ScheduleNormal: view.BuildWeek(normal),
		ScheduleShort:  view.BuildWeek(short),
		Consultations: map[string][]model.Consultation{
			"Понедельник": {{
				Teacher: "Иванова И.И.", Time: "13:25-14:05", Room: "21",
				StartTime: model.NewClock(13, 25).Ptr(), EndTime: model.NewClock(14, 5).Ptr(),
			}},
		},
		ShortDays: []string{"2025-10-21"},
	}
}
