package jwt

import (
	"errors"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/Clementine55/Licey22Schedule/config"
)

func newTestManager() *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:     "test-secret-key-for-unit-testing-2026",
		AdminTokenTTL: 24 * time.Hour,
	})
}

func TestGenerateAndParseAdminToken(t *testing.T) {
	m := newTestManager()

	token, expires, err := m.GenerateAdminToken("bot", 0)
	if err != nil {
		t.Fatalf("GenerateAdminToken 失败: %v", err)
	}
	if d := time.Until(expires); d < 23*time.Hour || d > 25*time.Hour {
		t.Errorf("默认有效期应为 24h, 实际剩余 %v", d)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken 失败: %v", err)
	}
	if claims.Role != RoleAdmin {
		t.Errorf("期望 Role=admin，实际=%s", claims.Role)
	}
	if claims.Subject != "bot" {
		t.Errorf("期望 Subject=bot，实际=%s", claims.Subject)
	}
	if claims.Issuer != issuer {
		t.Errorf("期望 Issuer=%s，实际=%s", issuer, claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("JTI 不应为空")
	}
}

func TestParseToken_Expired(t *testing.T) {
	m := newTestManager()
	m.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	token, _, err := m.GenerateAdminToken("ops", time.Hour)
	if err != nil {
		t.Fatalf("GenerateAdminToken 失败: %v", err)
	}

	m.now = time.Now
	if _, err := m.ParseToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("期望 ErrTokenExpired, 实际 %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, _, _ := newTestManager().GenerateAdminToken("ops", 0)

	other := NewManager(&config.AuthConfig{JWTSecret: "another-secret-key-0123456789", AdminTokenTTL: time.Hour})
	if _, err := other.ParseToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("期望 ErrTokenInvalid, 实际 %v", err)
	}
}

func TestParseToken_Garbage(t *testing.T) {
	if _, err := newTestManager().ParseToken("not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("期望 ErrTokenInvalid, 实际 %v", err)
	}
}

func TestParseToken_ForeignIssuer(t *testing.T) {
	m := newTestManager()
	claims := Claims{Role: RoleAdmin, RegisteredClaims: jwtv5.RegisteredClaims{
		Issuer:    "someone-else",
		ExpiresAt: jwtv5.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.ParseToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("其他签发者的 token 应被拒绝, 实际 %v", err)
	}
}
