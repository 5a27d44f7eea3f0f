// Package verify 下载后、替换本地文件前的工作簿结构校验
package verify

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/Clementine55/Licey22Schedule/pkg/errors"

	"github.com/Clementine55/Licey22Schedule/internal/workbook"
)

// Mode 校验模式
type Mode string

const (
	// ModeStrict 四类工作表缺一不可（默认）
	ModeStrict Mode = "strict"
	// ModeLenient 任意一张表具备三个核心列即可
	ModeLenient Mode = "lenient"
)

// 严格模式要求的四类工作表
const (
	requireShortDays    = "缩短日"
	requireConsultation = "答疑"
	requirePrimary      = "小学部课表"
	requireMain         = "分班次主课表"
)

var requiredOrder = []string{requireShortDays, requireConsultation, requirePrimary, requireMain}

// Gate 校验器
type Gate struct {
	mode   Mode
	logger *zap.Logger
}

// NewGate 创建校验器，未知模式按严格处理
func NewGate(mode Mode, logger *zap.Logger) *Gate {
	if mode != ModeLenient {
		mode = ModeStrict
	}
	return &Gate{mode: mode, logger: logger}
}

// Verify 校验通过返回 nil；否则返回包装了 ErrVerification 的错误
func (g *Gate) Verify(path string) error {
	wb, err := workbook.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrVerification, err)
	}
	defer wb.Close()

	if len(wb.SheetNames()) == 0 {
		return fmt.Errorf("%w: 工作簿没有工作表", apperrors.ErrVerification)
	}

	if g.mode == ModeLenient {
		return g.lenient(wb)
	}
	return g.strict(wb)
}

func (g *Gate) lenient(wb *workbook.Workbook) error {
	for _, sheet := range wb.SheetNames() {
		tbl, err := wb.Table(sheet, workbook.TableOptions{HeaderRows: 1})
		if err != nil {
			continue
		}
		if tbl.HasColumns(workbook.CoreScheduleColumns...) {
			g.logger.Info("校验通过", zap.String("sheet", sheet), zap.String("mode", string(g.mode)))
			return nil
		}
	}
	return fmt.Errorf("%w: 没有任何工作表包含列 %s", apperrors.ErrVerification,
		strings.Join(workbook.CoreScheduleColumns, "/"))
}

func (g *Gate) strict(wb *workbook.Workbook) error {
	found := make(map[string]string, len(requiredOrder))

	for _, sheet := range wb.SheetNames() {
		info := workbook.Classify(sheet)
		switch info.Category {
		case workbook.CategoryShortDays:
			if _, ok := found[requireShortDays]; ok {
				continue
			}
			if tbl, err := wb.Table(sheet, workbook.TableOptions{HeaderRows: 1}); err == nil && tbl.Col(workbook.ColDate) >= 0 {
				found[requireShortDays] = sheet
			}
		case workbook.CategoryConsultation:
			if _, ok := found[requireConsultation]; ok {
				continue
			}
			tbl, err := wb.Table(sheet, workbook.TableOptions{HeaderRows: 2})
			if err == nil && tbl.FindColumn(func(l string) bool {
				return strings.Contains(l, "учитель") || strings.Contains(l, "фио")
			}) >= 0 {
				found[requireConsultation] = sheet
			}
		case workbook.CategorySchedule:
			key := requirePrimary
			if info.Level == workbook.LevelMain {
				key = requireMain
			}
			if _, ok := found[key]; ok {
				continue
			}
			if tbl, err := wb.Table(sheet, workbook.TableOptions{HeaderRows: 1}); err == nil && tbl.HasColumns(workbook.CoreScheduleColumns...) {
				found[key] = sheet
			}
		}
	}

	var missing []string
	for _, req := range requiredOrder {
		if _, ok := found[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		g.logger.Warn("校验未通过", zap.Strings("missing", missing))
		return fmt.Errorf("%w: 缺少 %s", apperrors.ErrVerification, strings.Join(missing, "、"))
	}

	g.logger.Info("校验通过",
		zap.String("short_days", found[requireShortDays]),
		zap.String("consultation", found[requireConsultation]),
		zap.String("primary", found[requirePrimary]),
		zap.String("main", found[requireMain]),
	)
	return nil
}
