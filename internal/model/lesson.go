package model

// RawLesson 课表中单个单元格对应的一节课（每次解析重新生成，只读）
type RawLesson struct {
	DayName      string `json:"day_name"`
	ClassName    string `json:"class_name"`
	Shift        Shift  `json:"shift"`
	LessonNumber string `json:"lesson_number"`
	DisplayTime  string `json:"display_time"`
	Subject      string `json:"subject"`
	Cabinet      string `json:"cabinet"`
	StartTime    *Clock `json:"start_time"`
	EndTime      *Clock `json:"end_time"`
}

// IsEmpty 是否为 "—" 占位课
func (l *RawLesson) IsEmpty() bool {
	return l.Subject == NoLesson
}

// Consultation 教师答疑安排
type Consultation struct {
	Teacher   string `json:"teacher"`
	Time      string `json:"time"`
	Room      string `json:"room"`
	StartTime *Clock `json:"start_time"`
	EndTime   *Clock `json:"end_time"`
}

// HasWindow 起止时间是否都已解析
func (c *Consultation) HasWindow() bool {
	return c.StartTime != nil && c.EndTime != nil
}
