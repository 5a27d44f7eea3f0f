package model

import "time"

// LessonSlot 比较器中一个课位的内容
type LessonSlot struct {
	Subject string `json:"subject"`
	Cabinet string `json:"cabinet"`
}

// SlotChange 单个课位的变化；Old/New 视变化类型可为空
type SlotChange struct {
	Day          string      `json:"day"`
	ClassName    string      `json:"class_name"`
	LessonNumber string      `json:"lesson_number"`
	Old          *LessonSlot `json:"old,omitempty"`
	New          *LessonSlot `json:"new,omitempty"`
}

// ChangeSet 两份课表之间的差异
type ChangeSet struct {
	Modified []SlotChange `json:"modified"`
	Added    []SlotChange `json:"added"`
	Removed  []SlotChange `json:"removed"`
}

// IsEmpty 是否没有任何变化
func (c *ChangeSet) IsEmpty() bool {
	return len(c.Modified) == 0 && len(c.Added) == 0 && len(c.Removed) == 0
}

// Total 变化总数
func (c *ChangeSet) Total() int {
	return len(c.Modified) + len(c.Added) + len(c.Removed)
}

// 变更类型
const (
	ChangeModified = "modified"
	ChangeAdded    = "added"
	ChangeRemoved  = "removed"
)

// ScheduleChangeLog 课表变更审计记录，对应 schedule_change_logs（纯审计日志）
type ScheduleChangeLog struct {
	ChangeLogID  string    `gorm:"type:uuid;primaryKey"               json:"change_log_id"`
	ScheduleName string    `gorm:"type:varchar(100);not null;index"   json:"schedule_name"`
	ChangeType   string    `gorm:"type:varchar(20);not null"          json:"change_type"` // modified | added | removed
	Day          string    `gorm:"type:varchar(20);not null"          json:"day"`
	ClassName    string    `gorm:"type:varchar(50);not null"          json:"class_name"`
	LessonNumber string    `gorm:"type:varchar(10);not null"          json:"lesson_number"`
	OldSubject   *string   `gorm:"type:varchar(200)"                  json:"old_subject,omitempty"`
	OldCabinet   *string   `gorm:"type:varchar(50)"                   json:"old_cabinet,omitempty"`
	NewSubject   *string   `gorm:"type:varchar(200)"                  json:"new_subject,omitempty"`
	NewCabinet   *string   `gorm:"type:varchar(50)"                   json:"new_cabinet,omitempty"`
	DetectedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"detected_at"`
}

// TableName 指定表名
func (ScheduleChangeLog) TableName() string { return "schedule_change_logs" }
