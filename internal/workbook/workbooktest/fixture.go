// Package workbooktest 构造测试用的课表 Excel 文件
package workbooktest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// 固定工作表名
const (
	SheetMainFirst    = "5-11 классы (1 смена)"
	SheetMainSecond   = "5-11 классы (2 смена)"
	SheetPrimary      = "Начальная школа"
	SheetConsultation = "Консультации"
	SheetShortDays    = "Сокращенные дни"
)

// Sheet 任意工作表：二维单元格 + 合并区域
type Sheet struct {
	Name   string
	Rows   [][]interface{}
	Merges [][2]string
}

// Options 控制样例工作簿内容
type Options struct {
	OmitMainFirst    bool
	OmitMainSecond   bool
	OmitPrimary      bool
	OmitConsultation bool
	OmitShortDays    bool
	// MainFirstRows 替换第一班次主课表的数据行（不含表头）
	MainFirstRows [][]interface{}
	// Extra 追加的工作表
	Extra []Sheet
}

// MainFirstHeader 第一班次主课表表头
var MainFirstHeader = []interface{}{"Дни", "Уроки", "Время", "5А", "каб", "5Б", "каб", "10 А", "каб", "11 ИП(наука)", "каб"}

// DefaultMainFirstRows 第一班次主课表默认数据
//
// 周一：5А 三节（第 2 节空）、5Б 两节、10 А 一节、11 ИП(наука) 两节
// 周二：仅 5А 一节
func DefaultMainFirstRows() [][]interface{} {
	return [][]interface{}{
		{"Понедельник", 1, "8.30-9.10", "Математика", "12.0", "Русский язык", 14, "Физика", 31, "Алгебра", 40},
		{nil, 2, "9.15-9.55", nil, nil, "Литература", 14, nil, nil, "Химия", 41},
		{nil, 3, "10.05-10.45", "История", 21, nil, nil, nil, nil, nil, nil},
		{nil, 4, "10.55-11.35", "Музыка", "акт", nil, nil, nil, nil, nil, nil},
		{"Вторник", 1, "8.30-9.10", "Биология", 33},
		{nil, 2, "9.15-9.55"},
	}
}

func mainSecondSheet() Sheet {
	return Sheet{
		Name: SheetMainSecond,
		Rows: [][]interface{}{
			{"Дни", "Уроки", "Время", "6А", "каб", "7А", "каб"},
			{"Понедельник", 0, "12.35-13.15", "Физкультура", "спортзал", nil, nil},
			{nil, 1, "13.25-14.05", "География", 22, "Информатика", 35},
			{nil, 2, "14.15-14.55", nil, nil, "Английский", 36},
		},
	}
}

func primarySheet() Sheet {
	return Sheet{
		Name: SheetPrimary,
		Rows: [][]interface{}{
			{"Дни", "Уроки", "Время", "1А", "каб", "4 А", "каб"},
			{"Понедельник", 1, "8.30-9.10", "Чтение", 1, "Окружающий мир", 4},
			{nil, 2, "9.15-9.55", "Письмо", 1, "Математика", 4},
		},
	}
}

// ConsultationSheet 两级表头的答疑表
func ConsultationSheet() Sheet {
	return Sheet{
		Name: SheetConsultation,
		Rows: [][]interface{}{
			{"ФИО учителя", "Понедельник", nil, "Вторник", nil},
			{nil, "время", "каб", "время", "каб"},
			{"Иванова И.И.", "13:25-14:05, 14:15-14:55", 21, "15.05", "22.0"},
			{"Петров П.П.", "13:25-14:05, 15:55-16:40", nil, nil, nil},
			{"Сидорова С.С.", "8.30-9.10", 5, "по записи", 7},
			{nil, "10:00-11:00", 9, nil, nil},
		},
		Merges: [][2]string{{"A1", "A2"}, {"B1", "C1"}, {"D1", "E1"}},
	}
}

func shortDaysSheet() Sheet {
	return Sheet{
		Name: SheetShortDays,
		Rows: [][]interface{}{
			{"Дата", "Причина"},
			{"01.09.2025", "День знаний"},
			{"30.12.2025", "Новый год"},
			{time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC), "Предпраздничный день"},
			{"неизвестно", ""},
		},
	}
}

// Sheets 按选项生成全部工作表
func Sheets(opts Options) []Sheet {
	var sheets []Sheet
	if !opts.OmitMainFirst {
		rows := opts.MainFirstRows
		if rows == nil {
			rows = DefaultMainFirstRows()
		}
		sheets = append(sheets, Sheet{
			Name: SheetMainFirst,
			Rows: append([][]interface{}{MainFirstHeader}, rows...),
		})
	}
	if !opts.OmitMainSecond {
		sheets = append(sheets, mainSecondSheet())
	}
	if !opts.OmitPrimary {
		sheets = append(sheets, primarySheet())
	}
	if !opts.OmitConsultation {
		sheets = append(sheets, ConsultationSheet())
	}
	if !opts.OmitShortDays {
		sheets = append(sheets, shortDaysSheet())
	}
	return append(sheets, opts.Extra...)
}

// Write 将工作表写入 path
func Write(t testing.TB, path string, sheets []Sheet) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.Name); err != nil {
				t.Fatalf("重命名工作表失败: %v", err)
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			t.Fatalf("创建工作表 %q 失败: %v", sh.Name, err)
		}
		for r, row := range sh.Rows {
			for c, v := range row {
				if v == nil {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					t.Fatalf("坐标转换失败: %v", err)
				}
				if err := f.SetCellValue(sh.Name, cell, v); err != nil {
					t.Fatalf("写入单元格 %s!%s 失败: %v", sh.Name, cell, err)
				}
			}
		}
		for _, m := range sh.Merges {
			if err := f.MergeCell(sh.Name, m[0], m[1]); err != nil {
				t.Fatalf("合并单元格失败: %v", err)
			}
		}
	}
	if len(sheets) == 0 {
		t.Fatal("至少需要一个工作表")
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("保存 Excel 失败: %v", err)
	}
}

// Build 在 dir 下生成样例工作簿并返回路径
func Build(t testing.TB, dir, name string, opts Options) string {
	t.Helper()
	path := filepath.Join(dir, name)
	Write(t, path, Sheets(opts))
	return path
}
