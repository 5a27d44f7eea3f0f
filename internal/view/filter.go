package view

import (
	"time"

	"github.com/Clementine55/Licey22Schedule/internal/model"
)

// Window 展示窗口：课程开始前 Before 起显示，结束后 After 内仍显示
type Window struct {
	Before time.Duration
	After  time.Duration
}

func (w Window) contains(first, last, now model.Clock) bool {
	from := int(first) - int(w.Before/time.Minute)
	to := int(last) + int(w.After/time.Minute)
	return from <= int(now) && int(now) <= to
}

// FilterDay 只保留当前处于展示窗口内的年级卡片并重新装页；竖屏视图不变
func (w Window) FilterDay(day model.DayView, now model.Clock) model.DayView {
	var active []model.GradeGroup
	for _, slide := range day.LandscapeSlides {
		for _, g := range slide {
			if w.contains(g.FirstLessonTime, g.LastLessonEndTime, now) {
				active = append(active, g)
			}
		}
	}
	return model.DayView{
		PortraitView:    day.PortraitView,
		LandscapeSlides: PackSlides(active),
	}
}

// FilterConsultations 按全部答疑的整体时间范围整体显示或整体隐藏
//
// 没有任何可定位时间的记录时原样返回。
func (w Window) FilterConsultations(list []model.Consultation, now model.Clock) []model.Consultation {
	if len(list) == 0 {
		return []model.Consultation{}
	}
	var first, last model.Clock
	found := false
	for _, c := range list {
		if !c.HasWindow() {
			continue
		}
		if !found || *c.StartTime < first {
			first = *c.StartTime
		}
		if !found || *c.EndTime > last {
			last = *c.EndTime
		}
		found = true
	}
	if !found || w.contains(first, last, now) {
		return list
	}
	return []model.Consultation{}
}
