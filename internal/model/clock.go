package model

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// Clock 一天内的钟点（自午夜起的分钟数），JSON 中统一序列化为 "HH:MM"
type Clock int

var clockPattern = regexp.MustCompile(`^\s*(\d{1,2})[.:](\d{2})`)

// NewClock 由时、分构造 Clock
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock 从字符串开头解析 "8:30" / "08.30" 形式的时间
// 只匹配开头，后缀（如 "-9.10"）忽略；越界的时、分视为无效
func ParseClock(s string) (Clock, bool) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if h < 0 || h >= 24 || mm < 0 || mm >= 60 {
		return 0, false
	}
	return NewClock(h, mm), true
}

// MustClock 仅用于静态表与测试
func MustClock(s string) Clock {
	c, ok := ParseClock(s)
	if !ok {
		panic(fmt.Sprintf("invalid clock %q", s))
	}
	return c
}

// Hour 返回小时
func (c Clock) Hour() int { return int(c) / 60 }

// Minute 返回分钟
func (c Clock) Minute() int { return int(c) % 60 }

// String 返回 "HH:MM"
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Short 返回不补零的 "H:MM"（与铃声表原始写法一致）
func (c Clock) Short() string {
	return fmt.Sprintf("%d:%02d", c.Hour(), c.Minute())
}

// Ptr 返回指针，便于填充可空字段
func (c Clock) Ptr() *Clock { return &c }

func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Clock) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("clock: %w", err)
	}
	v, ok := ParseClock(s)
	if !ok {
		return fmt.Errorf("clock: invalid value %q", s)
	}
	*c = v
	return nil
}
