// Package compare 对比新旧两份课表文件，列出被修改、新增、删除的课位
package compare

import (
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Clementine55/Licey22Schedule/internal/model"
	"github.com/Clementine55/Licey22Schedule/internal/parser"
	"github.com/Clementine55/Licey22Schedule/internal/workbook"
)

type slotKey struct {
	day    string
	class  string
	lesson string
}

// Comparator 课表比较器
type Comparator struct {
	parser *parser.Parser
	logger *zap.Logger
}

// New 创建比较器
func New(p *parser.Parser, logger *zap.Logger) *Comparator {
	return &Comparator{parser: p, logger: logger}
}

// Compare 按常规作息解析两份文件并比较
//
// 任一文件无法打开时返回空结果（比较是尽力而为的）；能打开但没有课程的文件照常参与比较。
func (c *Comparator) Compare(oldPath, newPath string) model.ChangeSet {
	oldSlots, ok := c.flatten(oldPath)
	if !ok {
		return model.ChangeSet{}
	}
	newSlots, ok := c.flatten(newPath)
	if !ok {
		return model.ChangeSet{}
	}

	changes := Diff(oldSlots, newSlots)
	if changes.IsEmpty() {
		c.logger.Info("课表没有变化")
	} else {
		c.logger.Info("检测到课表变化",
			zap.Int("modified", len(changes.Modified)),
			zap.Int("added", len(changes.Added)),
			zap.Int("removed", len(changes.Removed)),
		)
	}
	return changes
}

func (c *Comparator) flatten(path string) (map[slotKey]model.LessonSlot, bool) {
	wb, err := workbook.Open(path)
	if err != nil {
		c.logger.Warn("打开比较文件失败，跳过比较", zap.String("path", path), zap.Error(err))
		return nil, false
	}
	defer wb.Close()
	return Flatten(c.parser.Schedule(wb, model.DayNormal)), true
}

// Flatten 将 星期 → 课程 展开为 (星期, 班级, 节次) → 课位
func Flatten(byDay map[string][]model.RawLesson) map[slotKey]model.LessonSlot {
	out := make(map[slotKey]model.LessonSlot)
	for day, lessons := range byDay {
		for _, l := range lessons {
			out[slotKey{day: day, class: l.ClassName, lesson: l.LessonNumber}] = model.LessonSlot{
				Subject: orPlaceholder(l.Subject),
				Cabinet: orPlaceholder(l.Cabinet),
			}
		}
	}
	return out
}

// Diff 比较两组课位；两边都为空课的课位不计入修改，新增/删除只计真实课程
func Diff(oldSlots, newSlots map[slotKey]model.LessonSlot) model.ChangeSet {
	var cs model.ChangeSet
	for k, o := range oldSlots {
		n, ok := newSlots[k]
		if !ok {
			if o.Subject != model.NoLesson {
				cs.Removed = append(cs.Removed, change(k, &o, nil))
			}
			continue
		}
		if o.Subject == model.NoLesson && n.Subject == model.NoLesson {
			continue
		}
		if o != n {
			cs.Modified = append(cs.Modified, change(k, &o, &n))
		}
	}
	for k, n := range newSlots {
		if _, ok := oldSlots[k]; ok || n.Subject == model.NoLesson {
			continue
		}
		cs.Added = append(cs.Added, change(k, nil, &n))
	}

	sortChanges(cs.Modified)
	sortChanges(cs.Added)
	sortChanges(cs.Removed)
	return cs
}

func change(k slotKey, o, n *model.LessonSlot) model.SlotChange {
	var oc, nc *model.LessonSlot
	if o != nil {
		v := *o
		oc = &v
	}
	if n != nil {
		v := *n
		nc = &v
	}
	return model.SlotChange{Day: k.day, ClassName: k.class, LessonNumber: k.lesson, Old: oc, New: nc}
}

func orPlaceholder(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return model.NoLesson
	}
	return s
}

// sortChanges 按 星期 → 班级 → 节次 排序，保证输出稳定
func sortChanges(list []model.SlotChange) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if da, db := model.WeekdayIndex(a.Day), model.WeekdayIndex(b.Day); da != db {
			return da < db
		}
		if a.ClassName != b.ClassName {
			return a.ClassName < b.ClassName
		}
		na, errA := strconv.Atoi(a.LessonNumber)
		nb, errB := strconv.Atoi(b.LessonNumber)
		if errA == nil && errB == nil {
			return na < nb
		}
		return a.LessonNumber < b.LessonNumber
	})
}
