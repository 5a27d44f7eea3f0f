package parser

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Clementine55/Licey22Schedule/internal/workbook"
)

// dateLayouts 文本日期按日在前的顺序尝试
var dateLayouts = []string{
	"02.01.2006",
	"2.1.2006",
	"02.01.06",
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
}

// ShortDays 读取缩短日工作表的 "Дата" 列，返回去重排序后的 ISO 日期
//
// 没有缩短日工作表或缺少日期列时返回空列表；单个无法识别的日期仅告警。
func (p *Parser) ShortDays(wb *workbook.Workbook) []string {
	sheet := ""
	for _, name := range wb.SheetNames() {
		if workbook.Classify(name).Category == workbook.CategoryShortDays {
			sheet = name
			break
		}
	}
	if sheet == "" {
		p.logger.Debug("未找到缩短日工作表")
		return []string{}
	}

	tbl, err := wb.Table(sheet, workbook.TableOptions{HeaderRows: 1, Raw: true})
	if err != nil {
		p.logger.Warn("读取缩短日工作表失败", zap.String("sheet", sheet), zap.Error(err))
		return []string{}
	}
	col := tbl.Col(workbook.ColDate)
	if col < 0 {
		p.logger.Warn("缩短日工作表缺少日期列", zap.String("sheet", sheet))
		return []string{}
	}

	seen := make(map[string]bool)
	for r := range tbl.Rows {
		v := tbl.Cell(r, col)
		if v == "" {
			continue
		}
		d, ok := ParseDayFirst(v)
		if !ok {
			p.logger.Warn("无法识别缩短日日期", zap.String("sheet", sheet), zap.String("value", v))
			continue
		}
		seen[d.Format("2006-01-02")] = true
	}

	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// ParseDayFirst 解析单元格中的日期：Excel 序列号或日在前的文本
func ParseDayFirst(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		t, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	// "07.03.2026 00:00:00" 之类带时间的文本只取日期部分
	if i := strings.IndexByte(v, ' '); i > 0 {
		v = v[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
