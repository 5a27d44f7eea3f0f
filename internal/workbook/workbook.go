// Package workbook 课表 Excel 文件的唯一读取入口
//
// 每个刷新周期只打开一次文件，所有解析器共享同一个 *Workbook，
// 保证各解析器看到的是同一份快照。调用方必须 defer Close()。
package workbook

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

// Workbook 已打开的工作簿
type Workbook struct {
	path   string
	f      *excelize.File
	sheets []string

	mu    sync.Mutex
	cache map[rowsKey][][]string
}

type rowsKey struct {
	sheet string
	raw   bool
}

// Open 打开工作簿
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("打开 Excel 文件失败 %s: %w", path, err)
	}
	return &Workbook{
		path:   path,
		f:      f,
		sheets: f.GetSheetList(),
		cache:  make(map[rowsKey][][]string),
	}, nil
}

// Close 关闭工作簿
func (w *Workbook) Close() error {
	return w.f.Close()
}

// Path 文件路径
func (w *Workbook) Path() string { return w.path }

// SheetNames 按文件中的顺序返回工作表名
func (w *Workbook) SheetNames() []string {
	out := make([]string, len(w.sheets))
	copy(out, w.sheets)
	return out
}

// TableOptions 读取表格的方式
type TableOptions struct {
	// HeaderRows 表头行数：1 = 单行表头，2 = 两级（合并）表头
	HeaderRows int
	// Raw 读取单元格原始值（日期为序列号），否则读取格式化后的文本
	Raw bool
}

// Table 读取工作表为 列名 + 数据行
//
// 两级表头时，先按合并区域展开表头单元格，再对上级表头做前向填充，
// 最后以空格拼接非空的各级标签。
func (w *Workbook) Table(sheet string, opts TableOptions) (*Table, error) {
	if opts.HeaderRows <= 0 {
		opts.HeaderRows = 1
	}
	rows, err := w.rows(sheet, opts.Raw)
	if err != nil {
		return nil, err
	}

	header := make([][]string, opts.HeaderRows)
	for i := 0; i < opts.HeaderRows && i < len(rows); i++ {
		header[i] = append([]string(nil), rows[i]...)
	}

	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}

	if opts.HeaderRows > 1 {
		if err := w.expandMergedHeader(sheet, header, width); err != nil {
			return nil, err
		}
		header[0] = forwardFill(pad(header[0], width))
	}

	columns := make([]string, width)
	for c := 0; c < width; c++ {
		var parts []string
		for _, hr := range header {
			if c < len(hr) {
				v := CleanText(hr[c])
				if v == "" || (len(parts) > 0 && parts[len(parts)-1] == v) {
					continue
				}
				parts = append(parts, v)
			}
		}
		columns[c] = strings.Join(parts, " ")
	}

	var data [][]string
	if len(rows) > opts.HeaderRows {
		data = rows[opts.HeaderRows:]
	}
	return &Table{Sheet: sheet, Columns: columns, Rows: data}, nil
}

// rows 读取并缓存整张表，供多个解析器复用
func (w *Workbook) rows(sheet string, raw bool) ([][]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := rowsKey{sheet: sheet, raw: raw}
	if r, ok := w.cache[key]; ok {
		return r, nil
	}
	r, err := w.f.GetRows(sheet, excelize.Options{RawCellValue: raw})
	if err != nil {
		return nil, fmt.Errorf("读取工作表 %q 失败: %w", sheet, err)
	}
	w.cache[key] = r
	return r, nil
}

// expandMergedHeader 将合并单元格的值写入其覆盖的全部表头位置
func (w *Workbook) expandMergedHeader(sheet string, header [][]string, width int) error {
	merged, err := w.f.GetMergeCells(sheet)
	if err != nil {
		return fmt.Errorf("读取合并单元格 %q 失败: %w", sheet, err)
	}
	for i := range header {
		header[i] = pad(header[i], width)
	}
	for _, mc := range merged {
		c1, r1, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
		if err != nil {
			continue
		}
		c2, r2, err := excelize.CellNameToCoordinates(mc.GetEndAxis())
		if err != nil {
			continue
		}
		val := mc.GetCellValue()
		for r := r1; r <= r2 && r <= len(header); r++ {
			for c := c1; c <= c2 && c <= width; c++ {
				header[r-1][c-1] = val
			}
		}
	}
	return nil
}

func pad(row []string, width int) []string {
	for len(row) < width {
		row = append(row, "")
	}
	return row
}

func forwardFill(row []string) []string {
	last := ""
	for i, v := range row {
		if strings.TrimSpace(v) == "" {
			row[i] = last
		} else {
			last = v
		}
	}
	return row
}

// CleanText 规范化单元格文本：NFC、去首尾空白、折叠内部换行
func CleanText(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}

// ── Table ──

// Table 工作表的二维视图
type Table struct {
	Sheet   string
	Columns []string
	Rows    [][]string
}

// Col 按列名精确查找（忽略首尾空白），找不到返回 -1
func (t *Table) Col(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumns 是否包含全部列
func (t *Table) HasColumns(names ...string) bool {
	for _, n := range names {
		if t.Col(n) < 0 {
			return false
		}
	}
	return true
}

// FindColumn 返回第一个满足条件的列（按小写列名判断）
func (t *Table) FindColumn(match func(lower string) bool) int {
	for i, c := range t.Columns {
		if match(strings.ToLower(c)) {
			return i
		}
	}
	return -1
}

// Cell 安全读取单元格，越界返回空串
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}
