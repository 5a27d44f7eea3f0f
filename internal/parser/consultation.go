package parser

import (
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Clementine55/Licey22Schedule/internal/bell"
	"github.com/Clementine55/Licey22Schedule/internal/model"
	"github.com/Clementine55/Licey22Schedule/internal/workbook"
)

// mergeGapMinutes 两段答疑之间不超过该间隔（课间休息）时合并为一段
const mergeGapMinutes = 15

// secondShiftHour 答疑开始小时不早于该值时按第二班次查铃声表
const secondShiftHour = 13

var (
	rangePattern = regexp.MustCompile(`(\d{1,2}:\d{2})\s*[-–—]\s*(\d{1,2}:\d{2})`)
	startPattern = regexp.MustCompile(`(\d{1,2}:\d{2})`)
)

type dayColumns struct {
	day  string
	time int
	room int
}

// Consultations 解析全部答疑工作表，结果始终包含六个工作日（可能为空列表）
func (p *Parser) Consultations(wb *workbook.Workbook, override model.DayType) map[string][]model.Consultation {
	result := make(map[string][]model.Consultation, len(model.Weekdays))
	for _, d := range model.Weekdays {
		result[d] = []model.Consultation{}
	}

	dayType := override
	if dayType == "" {
		dayType = model.DayNormal
	}

	for _, sheet := range wb.SheetNames() {
		info := workbook.Classify(sheet)
		if info.Category != workbook.CategoryConsultation {
			continue
		}

		tbl, err := wb.Table(sheet, workbook.TableOptions{HeaderRows: 2})
		if err != nil {
			p.logger.Warn("读取答疑工作表失败，已跳过", zap.String("sheet", sheet), zap.Error(err))
			continue
		}
		teacherCol := tbl.FindColumn(isTeacherColumn)
		if teacherCol < 0 {
			p.logger.Warn("答疑工作表缺少教师列，已跳过", zap.String("sheet", sheet))
			continue
		}
		days := mapDayColumns(tbl)

		for r := range tbl.Rows {
			teacher := tbl.Cell(r, teacherCol)
			if teacher == "" {
				continue
			}
			for _, dc := range days {
				raw := tbl.Cell(r, dc.time)
				if raw == "" {
					continue
				}
				room := model.NoLesson
				if dc.room >= 0 {
					if v := CleanCabinet(tbl.Cell(r, dc.room)); v != "" {
						room = v
					}
				}

				for _, c := range SplitConsultationTime(raw, consultationShift(raw, info.Shift), dayType) {
					c.Teacher = teacher
					c.Room = room
					result[dc.day] = append(result[dc.day], c)
				}
			}
		}
	}

	for _, list := range result {
		sort.SliceStable(list, func(i, j int) bool {
			return consultationSortKey(list[i].Time) < consultationSortKey(list[j].Time)
		})
	}
	return result
}

func isTeacherColumn(lower string) bool {
	return strings.Contains(lower, "учитель") || strings.Contains(lower, "фио")
}

func mapDayColumns(tbl *workbook.Table) []dayColumns {
	var out []dayColumns
	for _, day := range model.Weekdays {
		key := strings.ToLower(day)
		dc := dayColumns{day: day, time: -1, room: -1}
		for i, c := range tbl.Columns {
			lower := strings.ToLower(c)
			if !strings.Contains(lower, key) {
				continue
			}
			switch {
			case strings.Contains(lower, "время"):
				dc.time = i
			case strings.Contains(lower, "каб"):
				dc.room = i
			}
		}
		if dc.time >= 0 {
			out = append(out, dc)
		}
	}
	return out
}

// consultationShift 首个可解析时间不早于 13 点时为第二班次，优先于工作表名中的班次
func consultationShift(raw string, hint model.Shift) model.Shift {
	if m := startPattern.FindStringSubmatch(strings.ReplaceAll(raw, ".", ":")); m != nil {
		if c, ok := model.ParseClock(m[1]); ok && c.Hour() >= secondShiftHour {
			return model.ShiftSecond
		}
	}
	if hint != "" {
		return hint
	}
	return model.ShiftFirst
}

type timeSlot struct {
	text  string
	start model.Clock
	end   model.Clock
	// hasEnd 为 false 表示只写了开始时间
	hasEnd bool
}

func parseSlot(text string) (timeSlot, bool) {
	if m := rangePattern.FindStringSubmatch(text); m != nil {
		s, ok1 := model.ParseClock(m[1])
		e, ok2 := model.ParseClock(m[2])
		if ok1 && ok2 && s < e {
			return timeSlot{text: text, start: s, end: e, hasEnd: true}, true
		}
	}
	if m := startPattern.FindStringSubmatch(text); m != nil {
		if s, ok := model.ParseClock(m[1]); ok {
			return timeSlot{text: text, start: s}, true
		}
	}
	return timeSlot{}, false
}

// SplitConsultationTime 将一个答疑时间单元格拆分为若干条答疑
//
// 恰好两段且都是完整区间、间隔不超过 15 分钟时合并为一条；
// 其余情况每段各成一条，只有开始时间的段按铃声表补结束时间，补不上则丢弃。
// 返回的记录未填写 Teacher 与 Room。
func SplitConsultationTime(raw string, shift model.Shift, dt model.DayType) []model.Consultation {
	text := strings.ReplaceAll(strings.TrimSpace(raw), ".", ":")

	var slots []timeSlot
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if s, ok := parseSlot(part); ok {
			slots = append(slots, s)
		}
	}

	if len(slots) == 2 && slots[0].hasEnd && slots[1].hasEnd {
		gap := int(slots[1].start - slots[0].end)
		if gap >= 0 && gap <= mergeGapMinutes {
			return []model.Consultation{{
				Time:      text,
				StartTime: slots[0].start.Ptr(),
				EndTime:   slots[1].end.Ptr(),
			}}
		}
	}

	out := make([]model.Consultation, 0, len(slots))
	for _, s := range slots {
		end := s.end
		if !s.hasEnd {
			e, ok := bell.EndByStart(s.start, shift, dt)
			if !ok {
				continue
			}
			end = e
		}
		out = append(out, model.Consultation{
			Time:      s.text,
			StartTime: s.start.Ptr(),
			EndTime:   end.Ptr(),
		})
	}
	return out
}

// consultationSortKey 首个时间记号的分钟数，无法解析时排在最后（相当于 99:99）
func consultationSortKey(t string) int {
	first := strings.TrimSpace(strings.SplitN(t, ",", 2)[0])
	first = strings.TrimSpace(strings.SplitN(first, "-", 2)[0])
	if c, ok := model.ParseClock(strings.ReplaceAll(first, ".", ":")); ok {
		return int(c)
	}
	return 99*60 + 99
}
