// Package timesync 网络校时：以远端 HTTP 响应的 Date 头为准，失败时退回本机时钟
package timesync

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultURL 默认校时地址
const DefaultURL = "https://yandex.com/time/sync.json"

// DayNames 星期名（time.Weekday 顺序，周日在前）
var DayNames = [7]string{"Воскресенье", "Понедельник", "Вторник", "Среда", "Четверг", "Пятница", "Суббота"}

// monthsGenitive 月份属格，用于 "17 октября 2025 г."
var monthsGenitive = [12]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// CurrentTime 当地当前时间的各种表示
type CurrentTime struct {
	DayName     string
	DateDisplay string
	DateISO     string
	Time        time.Time
	// Synced 是否来自网络校时
	Synced bool
}

// HourMinute 当前时、分
func (c CurrentTime) HourMinute() (int, int) {
	return c.Time.Hour(), c.Time.Minute()
}

// Client 校时客户端
type Client struct {
	url    string
	zone   *time.Location
	http   *http.Client
	logger *zap.Logger
	now    func() time.Time
}

// New 创建校时客户端；offsetHours 为相对 UTC 的地区时差
func New(url string, offsetHours int, timeout time.Duration, logger *zap.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		url:    url,
		zone:   time.FixedZone(fmt.Sprintf("UTC%+d", offsetHours), offsetHours*3600),
		http:   &http.Client{Timeout: timeout},
		logger: logger,
		now:    time.Now,
	}
}

// Now 返回当地当前时间，不会失败
func (c *Client) Now(ctx context.Context) CurrentTime {
	utc, err := c.remote(ctx)
	synced := err == nil
	if err != nil {
		c.logger.Warn("网络校时失败，使用系统时间", zap.String("url", c.url), zap.Error(err))
		utc = c.now().UTC()
	}
	return describe(utc.In(c.zone), synced)
}

func (c *Client) remote(ctx context.Context) (time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.url, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("构造请求失败: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("请求失败: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return time.Time{}, fmt.Errorf("非预期状态码 %d", resp.StatusCode)
	}
	header := resp.Header.Get("Date")
	if header == "" {
		return time.Time{}, fmt.Errorf("响应缺少 Date 头")
	}
	t, err := http.ParseTime(header)
	if err != nil {
		return time.Time{}, fmt.Errorf("无法解析 Date 头 %q: %w", header, err)
	}
	return t.UTC(), nil
}

func describe(local time.Time, synced bool) CurrentTime {
	return CurrentTime{
		DayName:     DayNames[local.Weekday()],
		DateDisplay: FormatDate(local),
		DateISO:     local.Format("2006-01-02"),
		Time:        local,
		Synced:      synced,
	}
}

// FormatDate 俄文日期 "17 октября 2025 г."
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d г.", t.Day(), monthsGenitive[t.Month()-1], t.Year())
}
