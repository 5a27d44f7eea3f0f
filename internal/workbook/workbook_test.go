package workbook_test

import (
	"path/filepath"
	"testing"

	"github.com/Clementine55/Licey22Schedule/internal/model"
	"github.com/Clementine55/Licey22Schedule/internal/workbook"
	"github.com/Clementine55/Licey22Schedule/internal/workbook/workbooktest"
)

func TestOpen_MissingFile(t *testing.T) {
	if _, err := workbook.Open(filepath.Join(t.TempDir(), "nope.xlsx")); err == nil {
		t.Fatal("打开不存在的文件应返回错误")
	}
}

func TestTable_SingleHeader(t *testing.T) {
	path := workbooktest.Build(t, t.TempDir(), "s.xlsx", workbooktest.Options{})
	wb, err := workbook.Open(path)
	if err != nil {
		t.Fatalf("Open 失败: %v", err)
	}
	defer wb.Close()

	names := wb.SheetNames()
	if len(names) != 5 || names[0] != workbooktest.SheetMainFirst {
		t.Fatalf("工作表列表不符: %v", names)
	}

	tbl, err := wb.Table(workbooktest.SheetMainFirst, workbook.TableOptions{HeaderRows: 1})
	if err != nil {
		t.Fatalf("Table 失败: %v", err)
	}
	if !tbl.HasColumns(workbook.CoreScheduleColumns...) {
		t.Errorf("应包含核心列, 实际: %v", tbl.Columns)
	}
	if got := tbl.Col("10 А"); got != 7 {
		t.Errorf("10 А 列位置期望 7, 实际 %d", got)
	}
	if tbl.Cell(0, 0) != "Понедельник" {
		t.Errorf("首行首列期望 Понедельник, 实际 %q", tbl.Cell(0, 0))
	}
	if tbl.Cell(1, 0) != "" {
		t.Errorf("合并的星期单元格应为空, 实际 %q", tbl.Cell(1, 0))
	}
	if tbl.Cell(100, 100) != "" {
		t.Error("越界读取应返回空串")
	}
}

func TestTable_TwoLevelHeader(t *testing.T) {
	path := workbooktest.Build(t, t.TempDir(), "s.xlsx", workbooktest.Options{})
	wb, err := workbook.Open(path)
	if err != nil {
		t.Fatalf("Open 失败: %v", err)
	}
	defer wb.Close()

	tbl, err := wb.Table(workbooktest.SheetConsultation, workbook.TableOptions{HeaderRows: 2})
	if err != nil {
		t.Fatalf("Table 失败: %v", err)
	}
	want := []string{"ФИО учителя", "Понедельник время", "Понедельник каб", "Вторник время", "Вторник каб"}
	if len(tbl.Columns) != len(want) {
		t.Fatalf("列数不符: %v", tbl.Columns)
	}
	for i, w := range want {
		if tbl.Columns[i] != w {
			t.Errorf("第 %d 列期望 %q, 实际 %q", i, w, tbl.Columns[i])
		}
	}
	if len(tbl.Rows) != 4 {
		t.Errorf("数据行期望 4, 实际 %d", len(tbl.Rows))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		category workbook.Category
		level    workbook.Level
		shift    model.Shift
		dayType  model.DayType
	}{
		{"5-11 классы (1 смена)", workbook.CategorySchedule, workbook.LevelMain, model.ShiftFirst, model.DayNormal},
		{"5-11 классы (2смена)", workbook.CategorySchedule, workbook.LevelMain, model.ShiftSecond, model.DayNormal},
		{"1-4 классы (1 смена)", workbook.CategorySchedule, workbook.LevelPrimary, model.ShiftFirst, model.DayNormal},
		{"Начальная школа", workbook.CategorySchedule, workbook.LevelPrimary, "", model.DayNormal},
		{"5-9 кл (1 смена) (сокр)", workbook.CategorySchedule, workbook.LevelMain, model.ShiftFirst, model.DayShort},
		{"Консультации (2 смена)", workbook.CategoryConsultation, workbook.LevelNone, model.ShiftSecond, model.DayNormal},
		{"Сокращенные дни", workbook.CategoryShortDays, workbook.LevelNone, "", model.DayNormal},
		{"Лист1", workbook.CategoryUnknown, workbook.LevelNone, "", model.DayNormal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := workbook.Classify(tt.name)
			if info.Category != tt.category {
				t.Errorf("类别期望 %s, 实际 %s", tt.category, info.Category)
			}
			if info.Level != tt.level {
				t.Errorf("学段期望 %d, 实际 %d", tt.level, info.Level)
			}
			if info.Shift != tt.shift {
				t.Errorf("班次期望 %q, 实际 %q", tt.shift, info.Shift)
			}
			if info.DayType != tt.dayType {
				t.Errorf("作息期望 %s, 实际 %s", tt.dayType, info.DayType)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	if got := workbook.CleanText("  ФИО\n учителя  "); got != "ФИО учителя" {
		t.Errorf("CleanText 结果 %q", got)
	}
}
