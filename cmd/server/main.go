package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Clementine55/Licey22Schedule/config"
	"github.com/Clementine55/Licey22Schedule/internal/api/handler"
	"github.com/Clementine55/Licey22Schedule/internal/api/middleware"
	"github.com/Clementine55/Licey22Schedule/internal/api/router"
	"github.com/Clementine55/Licey22Schedule/internal/app"
	"github.com/Clementine55/Licey22Schedule/pkg/jwt"
	applogger "github.com/Clementine55/Licey22Schedule/pkg/logger"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("SCHOOL_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log, "server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.Int("schedules", len(cfg.Schedules)),
		zap.String("remote", cfg.Remote.Kind),
	)

	// 3. 组装依赖（Redis、数据库可选）
	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("初始化失败", zap.Error(err))
	}
	defer a.Close()

	// 4. 管理接口：配置了密钥才启用
	var jwtMgr *jwt.Manager
	if cfg.Auth.JWTSecret != "" {
		jwtMgr = jwt.NewManager(&cfg.Auth)
	}
	var limiter middleware.RateLimiter
	if a.Redis != nil {
		limiter = a.Redis
	}

	// 5. 初始化路由
	if cfg.Log.Format != "console" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.Setup(cfg, handler.NewHandler(a.Service), jwtMgr, limiter, logger)

	// 6. 启动 HTTP 服务器（优雅关闭）
	// 强制刷新可能包含下载与解析，写超时留足余量
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Remote.Timeout + 60*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 7. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}
	logger.Info("服务器已关闭")
}
