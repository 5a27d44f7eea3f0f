package dto

import "github.com/Clementine55/Licey22Schedule/internal/model"

// ── 课表查询响应 ──

// ScheduleListResponse 已配置的课表
type ScheduleListResponse struct {
	Schedules []string `json:"schedules"`
}

// WeekResponse 整周课表（按今天是否缩短日选择作息）
type WeekResponse struct {
	Schedule string         `json:"schedule"`
	DayType  model.DayType  `json:"day_type"`
	DateISO  string         `json:"date_iso"`
	Days     model.WeekView `json:"days"`
	Order    []string       `json:"order"`
}

// ConsultationsResponse 全部答疑（按星期）
type ConsultationsResponse struct {
	Schedule      string                          `json:"schedule"`
	Consultations map[string][]model.Consultation `json:"consultations"`
}

// TodayResponse 屏幕当前应显示的内容
type TodayResponse struct {
	Schedule         string                         `json:"schedule"`
	DayName          string                         `json:"day_name"`
	DateDisplay      string                         `json:"date_display"`
	DateISO          string                         `json:"date_iso"`
	Time             string                         `json:"time"` // "HH:MM:SS"
	TimeSynced       bool                           `json:"time_synced"`
	DayType          model.DayType                  `json:"day_type"`
	LandscapeSlides  []model.Slide                  `json:"landscape_slides"`
	PortraitView     map[string]model.PortraitEntry `json:"portrait_view"`
	Consultations    []model.Consultation           `json:"consultations"`
	LessonsAreOver   bool                           `json:"lessons_are_over"`
	IsWeekend        bool                           `json:"is_weekend"`
	CarouselInterval int                            `json:"carousel_interval"` // 秒
	RefreshInterval  int                            `json:"refresh_interval"`  // 秒
}

// ── 管理操作响应 ──

// RefreshResponse 单个课表的强制刷新结果
type RefreshResponse struct {
	Schedule string          `json:"schedule"`
	Status   string          `json:"status"` // SKIPPED / SUCCESS / FAILED
	Rebuilt  bool            `json:"rebuilt"`
	Changes  model.ChangeSet `json:"changes"`
	Warnings []string        `json:"warnings,omitempty"`
	Error    string          `json:"error,omitempty"`
}
