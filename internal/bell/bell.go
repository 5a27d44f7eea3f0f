// Package bell 静态铃声表：(作息类型, 班次, 节次) → (开始, 结束)
package bell

import (
	"math"
	"strconv"
	"strings"

	"github.com/Clementine55/Licey22Schedule/internal/model"
)

// Entry 一节课的铃声时间
type Entry struct {
	Number int
	Start  model.Clock
	End    model.Clock
}

func e(n int, start, end string) Entry {
	return Entry{Number: n, Start: model.MustClock(start), End: model.MustClock(end)}
}

// table 初始化后不再修改；同一 (作息, 班次) 内节次唯一
var table = map[model.DayType]map[model.Shift][]Entry{
	model.DayNormal: {
		model.ShiftFirst: {
			e(1, "8:30", "9:10"),
			e(2, "9:15", "9:55"),
			e(3, "10:05", "10:45"),
			e(4, "10:55", "11:35"),
			e(5, "11:45", "12:25"),
			e(6, "12:35", "13:15"),
			e(7, "13:25", "14:05"),
			e(8, "14:15", "14:55"),
			e(9, "15:05", "15:45"),
			e(10, "15:55", "16:35"),
		},
		model.ShiftSecond: {
			e(0, "12:35", "13:15"),
			e(1, "13:25", "14:05"),
			e(2, "14:15", "14:55"),
			e(3, "15:05", "15:45"),
			e(4, "15:55", "16:35"),
			e(5, "16:40", "17:20"),
			e(6, "17:25", "18:05"),
			e(7, "18:10", "18:50"),
		},
	},
	model.DayShort: {
		model.ShiftFirst: {
			e(1, "8:30", "9:00"),
			e(2, "9:05", "9:35"),
			e(3, "9:45", "10:15"),
			e(4, "10:25", "10:55"),
			e(5, "11:05", "11:35"),
			e(6, "11:40", "12:10"),
			e(7, "12:15", "12:45"),
			e(8, "12:55", "13:25"),
			e(9, "13:35", "14:05"),
			e(10, "14:15", "14:45"),
		},
		model.ShiftSecond: {
			e(0, "11:05", "11:35"),
			e(1, "11:40", "12:10"),
			e(2, "12:15", "12:45"),
			e(3, "12:55", "13:25"),
			e(4, "13:35", "14:05"),
			e(5, "14:15", "14:45"),
			e(6, "14:50", "15:20"),
			e(7, "15:25", "15:55"),
		},
	},
}

// Entries 返回某 (作息, 班次) 的全部节次（副本）
func Entries(dt model.DayType, shift model.Shift) []Entry {
	src := table[dt][shift]
	out := make([]Entry, len(src))
	copy(out, src)
	return out
}

// CoerceOrdinal 将表格中的节次（可能为 "3"、"3.0"、"3.7"）截断为整数
func CoerceOrdinal(raw string) (int, bool) {
	s := strings.TrimSpace(strings.Replace(raw, ",", ".", 1))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

// ByNumber 按节次查找
func ByNumber(ordinal int, shift model.Shift, dt model.DayType) (Entry, bool) {
	for _, en := range table[dt][shift] {
		if en.Number == ordinal {
			return en, true
		}
	}
	return Entry{}, false
}

// ByRawNumber 按表格原始节次文本查找
func ByRawNumber(raw string, shift model.Shift, dt model.DayType) (Entry, bool) {
	n, ok := CoerceOrdinal(raw)
	if !ok {
		return Entry{}, false
	}
	return ByNumber(n, shift, dt)
}

// EndByStart 按开始时间反查结束时间（部分答疑数据只写了开始时间）
func EndByStart(start model.Clock, shift model.Shift, dt model.DayType) (model.Clock, bool) {
	for _, en := range table[dt][shift] {
		if en.Start == start {
			return en.End, true
		}
	}
	return 0, false
}
