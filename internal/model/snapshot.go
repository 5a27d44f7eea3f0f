package model

// WeekView 按星期名索引的视图
type WeekView map[string]DayView

// CachedSnapshot 持久化缓存单元（每个课表一个 JSON 文件）
// 常规与缩短两种作息在刷新时都已预先计算，请求时只需按日期选择
type CachedSnapshot struct {
	ScheduleNormal WeekView                  `json:"schedule_normal"`
	ScheduleShort  WeekView                  `json:"schedule_short"`
	Consultations  map[string][]Consultation `json:"consultations"`
	ShortDays      []string                  `json:"short_days"`
}

// IsShortDay 判断 ISO 日期是否为缩短日
func (s *CachedSnapshot) IsShortDay(dateISO string) bool {
	for _, d := range s.ShortDays {
		if d == dateISO {
			return true
		}
	}
	return false
}

// Week 按作息类型返回整周视图
func (s *CachedSnapshot) Week(dt DayType) WeekView {
	if dt == DayShort {
		return s.ScheduleShort
	}
	return s.ScheduleNormal
}
