package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Clementine55/Licey22Schedule/internal/workbook"
)

// classNamePattern 年级 1-11 + 可选空格 + 字母开头的后缀（允许括号等任意尾部，如 "11 ИП(наука)"）
var classNamePattern = regexp.MustCompile(`^(10|11|[1-9])\s?(\p{L}.*)$`)

var gradePattern = regexp.MustCompile(`^(\d+)`)

var upper = cases.Upper(language.Russian)

// IsValidClassName 判断列名是否为班级名
func IsValidClassName(s string) bool {
	return classNamePattern.MatchString(workbook.CleanText(s))
}

// NormalizeClassName 统一为 "10 А" 形式：数字 + 空格 + 大写字母部分，括号等尾部保持原样
func NormalizeClassName(s string) string {
	s = workbook.CleanText(s)
	m := classNamePattern.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	suffix := m[2]
	cut := strings.IndexFunc(suffix, func(r rune) bool { return !unicode.IsLetter(r) })
	if cut < 0 {
		cut = len(suffix)
	}
	return m[1] + " " + upper.String(suffix[:cut]) + suffix[cut:]
}

// GradeOf 班级名开头的年级数字，解析失败返回 -1
func GradeOf(className string) int {
	m := gradePattern.FindStringSubmatch(strings.TrimSpace(className))
	if m == nil {
		return -1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return -1
	}
	return n
}
