package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Clementine55/Licey22Schedule/config"
	"github.com/Clementine55/Licey22Schedule/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.Any("/x", func(c *gin.Context) {
		c.String(http.StatusOK, AdminSubject(c))
	})
	return r
}

func do(r http.Handler, method string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/x", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ── AdminAuth ──

func TestAdminAuth(t *testing.T) {
	mgr := jwt.NewManager(&config.AuthConfig{JWTSecret: "middleware-test-secret-2026", AdminTokenTTL: time.Hour})
	token, _, err := mgr.GenerateAdminToken("ops", 0)
	if err != nil {
		t.Fatal(err)
	}
	r := newEngine(AdminAuth(mgr))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"缺少认证头", "", http.StatusUnauthorized},
		{"格式错误", "Token " + token, http.StatusUnauthorized},
		{"无效 token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"有效 token", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := map[string]string{}
			if tt.header != "" {
				h["Authorization"] = tt.header
			}
			w := do(r, http.MethodPost, h)
			if w.Code != tt.status {
				t.Errorf("期望 %d, 实际 %d", tt.status, w.Code)
			}
			if tt.status == http.StatusOK && w.Body.String() != "ops" {
				t.Errorf("应注入管理员标识, 实际 %q", w.Body.String())
			}
		})
	}
}

// ── RateLimit ──

type countingLimiter struct {
	calls int
	limit int
	err   error
}

func (l *countingLimiter) CheckRateLimit(_ context.Context, _ string, limit int, _ time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	l.calls++
	return l.calls <= limit, nil
}

func TestRateLimit(t *testing.T) {
	r := newEngine(RateLimit(&countingLimiter{}, 2, time.Minute))
	for i := 0; i < 2; i++ {
		if w := do(r, http.MethodPost, nil); w.Code != http.StatusOK {
			t.Fatalf("第 %d 次请求应放行, 实际 %d", i+1, w.Code)
		}
	}
	if w := do(r, http.MethodPost, nil); w.Code != http.StatusTooManyRequests {
		t.Errorf("超限应返回 429, 实际 %d", w.Code)
	}

	r = newEngine(RateLimit(&countingLimiter{err: errors.New("redis down")}, 1, time.Minute))
	if w := do(r, http.MethodPost, nil); w.Code != http.StatusOK {
		t.Errorf("限流器出错时应放行, 实际 %d", w.Code)
	}
	r = newEngine(RateLimit(nil, 1, time.Minute))
	if w := do(r, http.MethodPost, nil); w.Code != http.StatusOK {
		t.Errorf("未配置限流器时应放行, 实际 %d", w.Code)
	}
}

// ── BodyLimit ──

func TestBodyLimit(t *testing.T) {
	r := newEngine(BodyLimit(8))
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(strings.Repeat("a", 32)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("超限请求体应返回 413, 实际 %d", w.Code)
	}
}

// ── CORS / RequestID / SecurityHeaders ──

func TestCORS(t *testing.T) {
	r := newEngine(CORS([]string{"https://screen.example/"}))

	w := do(r, http.MethodGet, map[string]string{"Origin": "https://screen.example"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://screen.example" {
		t.Errorf("允许的来源应回显, 实际 %q", got)
	}
	w = do(r, http.MethodGet, map[string]string{"Origin": "https://evil.example"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("未允许的来源不应回显, 实际 %q", got)
	}
	if w := do(r, http.MethodOptions, nil); w.Code != http.StatusNoContent {
		t.Errorf("预检请求应返回 204, 实际 %d", w.Code)
	}

	r = newEngine(CORS([]string{"*"}))
	w = do(r, http.MethodGet, map[string]string{"Origin": "https://any.example"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://any.example" {
		t.Errorf("通配时应允许任意来源, 实际 %q", got)
	}
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())

	w := do(r, http.MethodGet, map[string]string{"X-Request-ID": "abc"})
	if got := w.Header().Get("X-Request-ID"); got != "abc" {
		t.Errorf("应沿用外部请求 ID, 实际 %q", got)
	}
	w = do(r, http.MethodGet, map[string]string{"X-Request-ID": strings.Repeat("x", 100)})
	if got := w.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Errorf("过长的请求 ID 应被替换为 UUID, 实际 %q", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	w := do(newEngine(SecurityHeaders()), http.MethodGet, nil)
	if w.Header().Get("X-Content-Type-Options") != "nosniff" || w.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("安全响应头缺失: %v", w.Header())
	}
}
