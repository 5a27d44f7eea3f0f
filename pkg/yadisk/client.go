// Package yadisk Yandex Disk REST API 的最小客户端：读取文件元数据中的 MD5、下载文件
package yadisk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL 官方 API 地址
const DefaultBaseURL = "https://cloud-api.yandex.net/v1/disk"

// 错误类别，调用方用 errors.Is 判断
var (
	ErrConnection = errors.New("yadisk: 网络连接失败")
	ErrNotFound   = errors.New("yadisk: 文件不存在")
	ErrForbidden  = errors.New("yadisk: 无访问权限")
	ErrAPI        = errors.New("yadisk: 接口返回错误")
)

// Client API 客户端，可并发使用
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

// New 创建客户端；baseURL 为空时使用官方地址，timeout 作用于单次请求（含下载）
func New(token, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type resourceMeta struct {
	Path string `json:"path"`
	MD5  string `json:"md5"`
}

type link struct {
	Href string `json:"href"`
}

type apiError struct {
	Error       string `json:"error"`
	Description string `json:"description"`
}

// MD5 返回文件元数据中的 MD5
func (c *Client) MD5(ctx context.Context, path string) (string, error) {
	var meta resourceMeta
	if err := c.getJSON(ctx, "/resources", url.Values{"path": {path}, "fields": {"path,md5"}}, &meta); err != nil {
		return "", err
	}
	return meta.MD5, nil
}

// Download 取得下载链接后将文件内容写入 w
func (c *Client) Download(ctx context.Context, path string, w io.Writer) error {
	var l link
	if err := c.getJSON(ctx, "/resources/download", url.Values{"path": {path}}, &l); err != nil {
		return err
	}
	if l.Href == "" {
		return fmt.Errorf("%w: 下载链接为空", ErrAPI)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.Href, nil)
	if err != nil {
		return fmt.Errorf("构造下载请求失败: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classify(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("%w: 读取下载内容失败: %v", ErrConnection, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, q url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "OAuth "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classify(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: 解析响应失败: %v", ErrAPI, err)
	}
	return nil
}

// classify 将 HTTP 状态码映射为错误类别
func classify(resp *http.Response) error {
	var body apiError
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)
	detail := body.Description
	if detail == "" {
		detail = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, detail)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, detail)
	default:
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: %s", ErrConnection, detail)
		}
		return fmt.Errorf("%w: %s", ErrAPI, detail)
	}
}
