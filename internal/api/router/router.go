package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Clementine55/Licey22Schedule/config"
	"github.com/Clementine55/Licey22Schedule/internal/api/handler"
	"github.com/Clementine55/Licey22Schedule/internal/api/middleware"
	"github.com/Clementine55/Licey22Schedule/pkg/jwt"
)

// 管理接口：每个 IP 每分钟最多 10 次强制刷新
const (
	adminRateLimit  = 10
	adminRateWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
// jwtMgr 为 nil 时不挂载管理路由；limiter 为 nil 时不限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, limiter middleware.RateLimiter, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		schedules := v1.Group("/schedules")
		{
			schedules.GET("", h.Schedule.ListSchedules)
			schedules.GET("/:name", h.Schedule.GetWeek)
			schedules.GET("/:name/today", h.Schedule.GetToday)
			schedules.GET("/:name/consultations", h.Schedule.GetConsultations)
		}

		if jwtMgr == nil {
			logger.Warn("未配置 auth.jwt_secret，管理接口未启用")
			return r
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.BodyLimit(1 << 10))
		admin.Use(middleware.AdminAuth(jwtMgr))
		admin.Use(middleware.RateLimit(limiter, adminRateLimit, adminRateWindow))
		{
			admin.POST("/schedules/:name/refresh", h.Admin.RefreshSchedule)
			admin.POST("/refresh", h.Admin.RefreshAll)
		}
	}

	return r
}
