// Package view 将一天的课程记录投影为展示用结构：横屏轮播与竖屏单班视图
package view

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/Clementine55/Licey22Schedule/internal/model"
	"github.com/Clementine55/Licey22Schedule/internal/parser"
)

// MaxSlideRows 一页轮播最多容纳的表格行数（两张卡片之和）
const MaxSlideRows = 16

// maxGroupClasses 单张卡片最多并排的班级数，超出则拆成两半
const maxGroupClasses = 6

// minLandscapeGrade 小学部不进入横屏轮播
const minLandscapeGrade = 5

var firstNumberPattern = regexp.MustCompile(`\d+`)

// BuildLandscape 按 班次 → 年级 分组生成年级卡片，再装页
func BuildLandscape(lessons []model.RawLesson) []model.Slide {
	byShift := make(map[model.Shift]map[int]map[string][]model.RawLesson)
	for _, l := range lessons {
		grade := parser.GradeOf(l.ClassName)
		if grade < minLandscapeGrade {
			continue
		}
		if byShift[l.Shift] == nil {
			byShift[l.Shift] = make(map[int]map[string][]model.RawLesson)
		}
		if byShift[l.Shift][grade] == nil {
			byShift[l.Shift][grade] = make(map[string][]model.RawLesson)
		}
		byShift[l.Shift][grade][l.ClassName] = append(byShift[l.Shift][grade][l.ClassName], l)
	}

	var groups []model.GradeGroup
	for shift, grades := range byShift {
		for grade, classes := range grades {
			names := make([]string, 0, len(classes))
			for n := range classes {
				names = append(names, n)
			}
			sort.Strings(names)

			if len(names) <= maxGroupClasses {
				if g, ok := buildGradeGroup(classes, names, grade, shift, ""); ok {
					groups = append(groups, g)
				}
				continue
			}
			split := (len(names) + 1) / 2
			if g, ok := buildGradeGroup(classes, names[:split], grade, shift, " (1/2)"); ok {
				groups = append(groups, g)
			}
			if g, ok := buildGradeGroup(classes, names[split:], grade, shift, " (2/2)"); ok {
				groups = append(groups, g)
			}
		}
	}

	sortGroups(groups)
	return PackSlides(groups)
}

// buildGradeGroup 生成一张卡片；没有任何可定位时间的真实课程时返回 false
func buildGradeGroup(classes map[string][]model.RawLesson, names []string, grade int, shift model.Shift, part string) (model.GradeGroup, bool) {
	var real []model.RawLesson
	for _, n := range names {
		for _, l := range classes[n] {
			if !l.IsEmpty() {
				real = append(real, l)
			}
		}
	}

	first, last, ok := bounds(real)
	if !ok {
		return model.GradeGroup{}, false
	}

	sort.SliceStable(real, func(i, j int) bool {
		return startOrMidnight(real[i]) < startOrMidnight(real[j])
	})

	// 每个显示时间一行；按该时间最早的开始时间排序，相同时保持出现顺序
	byTime := make(map[string][]model.RawLesson)
	var order []string
	for _, l := range real {
		if _, seen := byTime[l.DisplayTime]; !seen {
			order = append(order, l.DisplayTime)
		}
		byTime[l.DisplayTime] = append(byTime[l.DisplayTime], l)
	}
	rows := make([]model.LandscapeRow, 0, len(order))
	for _, t := range order {
		rows = append(rows, buildRow(byTime[t], names))
	}

	return model.GradeGroup{
		GradeKey:          fmt.Sprintf("%d-е классы (%s)%s", grade, shift, part),
		ClassNames:        append([]string(nil), names...),
		ScheduleRows:      rows,
		FirstLessonTime:   first,
		LastLessonEndTime: last,
	}, true
}

func buildRow(same []model.RawLesson, names []string) model.LandscapeRow {
	head := same[0]
	row := model.LandscapeRow{
		LessonNumber: head.LessonNumber,
		DisplayTime:  head.DisplayTime,
		Subjects:     make(map[string]model.LandscapeCell, len(names)),
		StartTime:    head.StartTime,
		EndTime:      head.EndTime,
	}
	for _, n := range names {
		row.Subjects[n] = model.LandscapeCell{}
		for _, l := range same {
			if l.ClassName == n {
				row.Subjects[n] = model.LandscapeCell{Subject: l.Subject, Cabinet: l.Cabinet}
				break
			}
		}
	}
	return row
}

// bounds 最早开始与最晚结束，只统计已定位时间的课程
func bounds(lessons []model.RawLesson) (first, last model.Clock, ok bool) {
	for _, l := range lessons {
		if l.StartTime == nil {
			continue
		}
		if !ok || *l.StartTime < first {
			first = *l.StartTime
		}
		if l.EndTime != nil && *l.EndTime > last {
			last = *l.EndTime
		}
		ok = true
	}
	return first, last, ok
}

func startOrMidnight(l model.RawLesson) model.Clock {
	if l.StartTime == nil {
		return 0
	}
	return *l.StartTime
}

// sortGroups 按卡片标题中的年级数字排序，同年级再按标题字典序（第一班次在前）
func sortGroups(groups []model.GradeGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		ni, nj := leadingNumber(groups[i].GradeKey), leadingNumber(groups[j].GradeKey)
		if ni != nj {
			return ni < nj
		}
		return groups[i].GradeKey < groups[j].GradeKey
	})
}

func leadingNumber(s string) int {
	n, err := strconv.Atoi(firstNumberPattern.FindString(s))
	if err != nil {
		return 0
	}
	return n
}

// PackSlides 顺序装页：相邻两张卡片行数之和不超过 MaxSlideRows 时同页，否则单独一页
func PackSlides(groups []model.GradeGroup) []model.Slide {
	slides := make([]model.Slide, 0, len(groups))
	for i := 0; i < len(groups); {
		if i+1 < len(groups) && len(groups[i].ScheduleRows)+len(groups[i+1].ScheduleRows) <= MaxSlideRows {
			slides = append(slides, model.Slide{groups[i], groups[i+1]})
			i += 2
			continue
		}
		slides = append(slides, model.Slide{groups[i]})
		i++
	}
	return slides
}
