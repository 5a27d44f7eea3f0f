package view

import "github.com/Clementine55/Licey22Schedule/internal/model"

// BuildPortrait 按班级分组，保留全部课程（含占位）；没有可定位时间的真实课程的班级不输出
func BuildPortrait(lessons []model.RawLesson) map[string]model.PortraitEntry {
	byClass := make(map[string][]model.RawLesson)
	var order []string
	for _, l := range lessons {
		if _, ok := byClass[l.ClassName]; !ok {
			order = append(order, l.ClassName)
		}
		byClass[l.ClassName] = append(byClass[l.ClassName], l)
	}

	out := make(map[string]model.PortraitEntry, len(order))
	for _, name := range order {
		all := byClass[name]
		var real []model.RawLesson
		for _, l := range all {
			if !l.IsEmpty() {
				real = append(real, l)
			}
		}
		first, last, ok := bounds(real)
		if !ok {
			continue
		}
		out[name] = model.PortraitEntry{
			Lessons:           all,
			FirstLessonTime:   first,
			LastLessonEndTime: last,
		}
	}
	return out
}

// BuildDay 一天的两种投影
func BuildDay(lessons []model.RawLesson) model.DayView {
	return model.DayView{
		PortraitView:    BuildPortrait(lessons),
		LandscapeSlides: BuildLandscape(lessons),
	}
}

// BuildWeek 为六个工作日各生成一份视图，无课的日子为空视图
func BuildWeek(byDay map[string][]model.RawLesson) model.WeekView {
	week := make(model.WeekView, len(model.Weekdays))
	for _, day := range model.Weekdays {
		week[day] = BuildDay(byDay[day])
	}
	return week
}
