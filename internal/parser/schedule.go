// Package parser 将课表工作簿解析为领域记录
package parser

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Clementine55/Licey22Schedule/internal/bell"
	"github.com/Clementine55/Licey22Schedule/internal/model"
	"github.com/Clementine55/Licey22Schedule/internal/workbook"
)

// Parser 课表 / 答疑 / 缩短日解析器，三者共用同一个已打开的工作簿
type Parser struct {
	logger *zap.Logger
}

// New 创建 Parser
func New(logger *zap.Logger) *Parser {
	return &Parser{logger: logger}
}

// classColumns 班级的课程列与教室列
type classColumns struct {
	name    string
	subject int
	cabinet int
}

// gridRow 某天中节次、时间都非空的一行
type gridRow struct {
	lesson string
	time   string
	index  int
}

// Schedule 扫描全部工作表，返回 星期 → 当天全部课（含 "—" 占位）
//
// override 为空时按工作表名推断作息类型。缺少必需列或班级列的工作表
// 直接跳过，不会中断整体解析。
func (p *Parser) Schedule(wb *workbook.Workbook, override model.DayType) map[string][]model.RawLesson {
	result := make(map[string][]model.RawLesson)

	for _, sheet := range wb.SheetNames() {
		info := workbook.Classify(sheet)
		if info.Category == workbook.CategoryConsultation || info.Category == workbook.CategoryShortDays {
			continue
		}

		tbl, err := wb.Table(sheet, workbook.TableOptions{HeaderRows: 1})
		if err != nil {
			p.logger.Warn("读取工作表失败，已跳过", zap.String("sheet", sheet), zap.Error(err))
			continue
		}
		if !tbl.HasColumns(workbook.CoreScheduleColumns...) {
			p.logger.Debug("缺少必需列，跳过工作表", zap.String("sheet", sheet))
			continue
		}
		classes := findClassColumns(tbl.Columns)
		if len(classes) == 0 {
			p.logger.Debug("未找到班级列，跳过工作表", zap.String("sheet", sheet))
			continue
		}

		dayType := override
		if dayType == "" {
			dayType = info.DayType
		}

		p.logger.Debug("解析课表工作表",
			zap.String("sheet", sheet),
			zap.Int("classes", len(classes)),
			zap.String("day_type", string(dayType)),
		)

		for _, day := range groupByDay(tbl) {
			for _, cls := range classes {
				lessons := buildClassLessons(tbl, day.name, day.rows, cls, info, dayType)
				result[day.name] = append(result[day.name], lessons...)
			}
		}
	}
	return result
}

// findClassColumns 识别班级列；紧随其后的一列视为该班的教室列
func findClassColumns(columns []string) []classColumns {
	var out []classColumns
	seen := make(map[string]bool)
	for i := 0; i < len(columns)-1; {
		if IsValidClassName(columns[i]) {
			name := NormalizeClassName(columns[i])
			if !seen[name] {
				seen[name] = true
				out = append(out, classColumns{name: name, subject: i, cabinet: i + 1})
			}
			i += 2
			continue
		}
		i++
	}
	return out
}

type dayRows struct {
	name string
	rows []gridRow
}

// groupByDay 前向填充星期列（合并单元格约定），按首次出现顺序分组
func groupByDay(tbl *workbook.Table) []dayRows {
	dayCol := tbl.Col(workbook.ColDay)
	lessonCol := tbl.Col(workbook.ColLesson)
	timeCol := tbl.Col(workbook.ColTime)

	var order []string
	byDay := make(map[string][]gridRow)
	current := ""
	for i := range tbl.Rows {
		if d := tbl.Cell(i, dayCol); d != "" {
			current = d
		}
		if current == "" {
			continue
		}
		if _, ok := byDay[current]; !ok {
			order = append(order, current)
			byDay[current] = nil
		}
		lesson, tm := tbl.Cell(i, lessonCol), tbl.Cell(i, timeCol)
		if lesson == "" || tm == "" {
			continue
		}
		byDay[current] = append(byDay[current], gridRow{lesson: lesson, time: tm, index: i})
	}

	out := make([]dayRows, 0, len(order))
	for _, d := range order {
		if len(byDay[d]) == 0 {
			continue
		}
		out = append(out, dayRows{name: d, rows: byDay[d]})
	}
	return out
}

func buildClassLessons(tbl *workbook.Table, day string, rows []gridRow, cls classColumns, info workbook.SheetInfo, dayType model.DayType) []model.RawLesson {
	firstTime := ""
	for _, r := range rows {
		if tbl.Cell(r.index, cls.subject) != "" {
			firstTime = r.time
			break
		}
	}
	if firstTime == "" {
		// 当天无课
		return nil
	}

	shift := info.Shift
	if shift == "" {
		shift = ShiftFromTime(firstTime)
	}

	lessons := make([]model.RawLesson, 0, len(rows))
	for _, r := range rows {
		subject := tbl.Cell(r.index, cls.subject)
		if subject == "" {
			subject = model.NoLesson
		}
		lesson := model.RawLesson{
			DayName:      day,
			ClassName:    cls.name,
			Shift:        shift,
			LessonNumber: FormatOrdinal(r.lesson),
			DisplayTime:  r.time,
			Subject:      subject,
			Cabinet:      CleanCabinet(tbl.Cell(r.index, cls.cabinet)),
		}
		if en, ok := bell.ByRawNumber(r.lesson, shift, dayType); ok {
			lesson.StartTime = en.Start.Ptr()
			lesson.EndTime = en.End.Ptr()
			lesson.DisplayTime = en.Start.Short() + "–" + en.End.Short()
		}
		lessons = append(lessons, lesson)
	}
	return lessons
}

// ShiftFromTime 按首节课的小时推断班次：12 点及以后为第二班次
func ShiftFromTime(s string) model.Shift {
	h, ok := leadingHour(s)
	if ok && h >= 12 {
		return model.ShiftSecond
	}
	return model.ShiftFirst
}

// leadingHour 提取字符串开头的小时数字（"8.30-9.10" → 8，"13:25" → 13）
func leadingHour(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	h, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return h, true
}

// FormatOrdinal 整数值节次去掉 ".0"；非数字保留小数点前的部分
func FormatOrdinal(raw string) string {
	raw = strings.TrimSpace(raw)
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		if f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
		return raw
	}
	return strings.SplitN(raw, ".", 2)[0]
}

// CleanCabinet 教室号去掉 Excel 数值格式带来的 ".0"
func CleanCabinet(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimSuffix(s, ".0")
}
