package model

// ── 横屏视图（多班轮播） ──

// LandscapeCell 横屏表格中某班某节的内容
type LandscapeCell struct {
	Subject string `json:"subject"`
	Cabinet string `json:"cabinet"`
}

// LandscapeRow 横屏表格中的一行（同一显示时间）
type LandscapeRow struct {
	LessonNumber string                   `json:"lesson_number"`
	DisplayTime  string                   `json:"display_time"`
	Subjects     map[string]LandscapeCell `json:"subjects"`
	StartTime    *Clock                   `json:"start_time"`
	EndTime      *Clock                   `json:"end_time"`
}

// GradeGroup 一张年级卡片
type GradeGroup struct {
	GradeKey          string         `json:"grade_key"`
	ClassNames        []string       `json:"class_names"`
	ScheduleRows      []LandscapeRow `json:"schedule_rows"`
	FirstLessonTime   Clock          `json:"first_lesson_time"`
	LastLessonEndTime Clock          `json:"last_lesson_end_time"`
}

// Slide 轮播中的一页，包含 1~2 张年级卡片
type Slide []GradeGroup

// ── 竖屏视图（单班全天） ──

// PortraitEntry 单个班级当天的完整课表（含空课占位）
type PortraitEntry struct {
	Lessons           []RawLesson `json:"lessons"`
	FirstLessonTime   Clock       `json:"first_lesson_time"`
	LastLessonEndTime Clock       `json:"last_lesson_end_time"`
}

// DayView 某一天的两种投影
type DayView struct {
	PortraitView    map[string]PortraitEntry `json:"portrait_view"`
	LandscapeSlides []Slide                  `json:"landscape_slides"`
}
