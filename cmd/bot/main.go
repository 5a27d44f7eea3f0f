package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Clementine55/Licey22Schedule/config"
	"github.com/Clementine55/Licey22Schedule/internal/app"
	"github.com/Clementine55/Licey22Schedule/internal/bot"
	applogger "github.com/Clementine55/Licey22Schedule/pkg/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("SCHOOL_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log, "bot")
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Bot.Token == "" {
		logger.Fatal("未配置 bot.token（TELEGRAM_BOT_TOKEN）")
	}
	if len(cfg.Bot.AdminIDs) == 0 {
		logger.Warn("未配置管理员，机器人将拒绝所有操作")
	}

	// 与 server 共用数据目录；启用 Redis 时两个进程的刷新互斥
	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("初始化失败", zap.Error(err))
	}
	defer a.Close()

	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		logger.Fatal("连接 Telegram 失败", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := bot.New(api, a.Service.Display, cfg.Bot.AdminIDs, logger)
	if err := bot.Run(ctx, api, b); err != nil {
		logger.Error("机器人异常退出", zap.Error(err))
		return
	}
	logger.Info("机器人已停止")
}
