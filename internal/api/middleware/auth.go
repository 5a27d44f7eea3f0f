package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Clementine55/Licey22Schedule/pkg/jwt"
	"github.com/Clementine55/Licey22Schedule/pkg/response"
)

const adminSubjectKey = "admin_subject"

// AdminAuth 管理接口认证：Authorization: Bearer <token>，且角色为 admin
func AdminAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "Отсутствует заголовок авторизации")
			c.Abort()
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			response.Unauthorized(c, 10002, "Неверный формат заголовка авторизации")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(strings.TrimSpace(token))
		if err != nil {
			msg := "Недействительный токен"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Срок действия токена истёк"
			}
			response.Unauthorized(c, 10002, msg)
			c.Abort()
			return
		}
		if claims.Role != jwt.RoleAdmin {
			response.Forbidden(c, 10003, "Недостаточно прав")
			c.Abort()
			return
		}

		c.Set(adminSubjectKey, claims.Subject)
		c.Next()
	}
}

// AdminSubject 返回当前请求的管理员标识（未认证时为空）
func AdminSubject(c *gin.Context) string {
	return c.GetString(adminSubjectKey)
}
