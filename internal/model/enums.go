package model

// Shift 班次（同一教学楼的上午/下午两批学生）
type Shift string

const (
	ShiftFirst  Shift = "1 смена"
	ShiftSecond Shift = "2 смена"
)

// DayType 作息类型：常规日 / 缩短日
type DayType string

const (
	DayNormal DayType = "normal"
	DayShort  DayType = "short"
)

// NoLesson 空课占位符
const NoLesson = "—"

// Weekdays 课表涉及的六个工作日（周一至周六），顺序即展示顺序
var Weekdays = []string{"Понедельник", "Вторник", "Среда", "Четверг", "Пятница", "Суббота"}

// Sunday 周日（无课）
const Sunday = "Воскресенье"

// WeekdayIndex 返回工作日序号（0 起），非工作日返回 -1
func WeekdayIndex(day string) int {
	for i, d := range Weekdays {
		if d == day {
			return i
		}
	}
	return -1
}
