package workbook

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Clementine55/Licey22Schedule/internal/model"
)

// Category 工作表类别
type Category int

const (
	CategoryUnknown Category = iota
	CategorySchedule
	CategoryConsultation
	CategoryShortDays
)

func (c Category) String() string {
	switch c {
	case CategorySchedule:
		return "schedule"
	case CategoryConsultation:
		return "consultation"
	case CategoryShortDays:
		return "short_days"
	default:
		return "unknown"
	}
}

// Level 课表类工作表的学段
type Level int

const (
	LevelNone    Level = iota
	LevelPrimary       // 小学部（1-4 年级）
	LevelMain          // 按年级范围 + 班次命名的主课表
)

// SheetInfo 由工作表名推断出的全部信息，所有解析器与校验共用
type SheetInfo struct {
	Name     string
	Category Category
	Level    Level
	// Shift 工作表名中的班次提示，空串表示未标注
	Shift model.Shift
	// DayType 工作表名中的作息提示（"(сокр)" / "(короткий день)"），默认常规
	DayType model.DayType
}

// HasShift 工作表名是否标注了班次
func (s SheetInfo) HasShift() bool { return s.Shift != "" }

// 固定列名与标记
const (
	ColDay    = "Дни"
	ColLesson = "Уроки"
	ColTime   = "Время"
	ColDate   = "Дата"

	markerConsultation = "консультац"
	markerShortened    = "сокращ"
	markerPrimary      = "начальн"
)

// CoreScheduleColumns 课表工作表的三个必需列
var CoreScheduleColumns = []string{ColDay, ColLesson, ColTime}

var (
	firstShiftPattern  = regexp.MustCompile(`\(1\s?смена\)`)
	secondShiftPattern = regexp.MustCompile(`\(2\s?смена\)`)
	shortDayPattern    = regexp.MustCompile(`\((сокр|короткий день)\)`)
	gradeRangePattern  = regexp.MustCompile(`(\d{1,2})\s*-\s*(\d{1,2})\s*(кл|класс)\S*.*\(\s*[12]\s?смена\s*\)`)
)

// Classify 根据工作表名分类
func Classify(name string) SheetInfo {
	lower := strings.ToLower(strings.TrimSpace(name))
	info := SheetInfo{Name: name, DayType: model.DayNormal}

	switch {
	case firstShiftPattern.MatchString(lower):
		info.Shift = model.ShiftFirst
	case secondShiftPattern.MatchString(lower):
		info.Shift = model.ShiftSecond
	case strings.Contains(strings.ReplaceAll(lower, " ", ""), "2смена"):
		info.Shift = model.ShiftSecond
	}
	if shortDayPattern.MatchString(lower) {
		info.DayType = model.DayShort
	}

	switch {
	case strings.Contains(lower, markerConsultation):
		info.Category = CategoryConsultation
	case strings.Contains(lower, markerShortened):
		info.Category = CategoryShortDays
	case strings.Contains(lower, markerPrimary):
		info.Category = CategorySchedule
		info.Level = LevelPrimary
	default:
		if m := gradeRangePattern.FindStringSubmatch(lower); m != nil {
			info.Category = CategorySchedule
			if hi, _ := strconv.Atoi(m[2]); hi <= 4 {
				info.Level = LevelPrimary
			} else {
				info.Level = LevelMain
			}
		} else {
			// 未按约定命名的工作表仍可能是课表，由列结构决定
			info.Category = CategoryUnknown
		}
	}
	return info
}
