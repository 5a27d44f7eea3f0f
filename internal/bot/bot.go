// Package bot Telegram 管理机器人：管理员通过内联菜单强制刷新课表缓存
package bot

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Clementine55/Licey22Schedule/internal/dto"
)

// 回调数据
const (
	callbackOpenMenu      = "open_menu"
	callbackDeleteMessage = "delete_message"
	callbackUpdatePrefix  = "update:"
	updateAll             = "__all__"
)

// API Telegram 接口的最小子集（*tgbotapi.BotAPI 实现）
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Refresher 强制刷新（service.DisplayService 实现）
type Refresher interface {
	Schedules() []string
	Refresh(ctx context.Context, name string) (*dto.RefreshResponse, error)
}

// Bot 管理机器人
type Bot struct {
	api       API
	refresher Refresher
	admins    map[int64]bool
	sessions  *MenuSessions
	logger    *zap.Logger
}

// New 创建机器人
func New(api API, refresher Refresher, adminIDs []int64, logger *zap.Logger) *Bot {
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Bot{
		api:       api,
		refresher: refresher,
		admins:    admins,
		sessions:  NewMenuSessions(),
		logger:    logger,
	}
}

// Sessions 菜单会话表
func (b *Bot) Sessions() *MenuSessions { return b.sessions }

// ── 启动 ──

// Commands 菜单按钮中展示的命令
func Commands() tgbotapi.SetMyCommandsConfig {
	return tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "👋 Перезапустить бота"},
		tgbotapi.BotCommand{Command: "menu", Description: "⚙️ Панель управления"},
	)
}

// Run 长轮询直到 ctx 结束
func Run(ctx context.Context, api *tgbotapi.BotAPI, b *Bot) error {
	if _, err := api.Request(Commands()); err != nil {
		b.logger.Warn("设置命令菜单失败", zap.Error(err))
	}
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		return fmt.Errorf("删除 webhook 失败: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)
	b.logger.Info("机器人已启动", zap.String("username", api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			return nil
		case update := <-updates:
			b.Handle(ctx, update)
		}
	}
}

// ── 分发 ──

// Handle 处理单个更新
func (b *Bot) Handle(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(update.Message)
	}
}

func (b *Bot) isAdmin(u *tgbotapi.User) bool {
	return u != nil && b.admins[u.ID]
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.start(msg)
	case "menu":
		if !b.isAdmin(msg.From) {
			return
		}
		b.openMenu(msg.Chat.ID, msg.From.ID)
	default:
		return
	}
	b.deleteMessage(msg.Chat.ID, msg.MessageID)
}

func (b *Bot) start(msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From) {
		b.send(tgbotapi.NewMessage(msg.Chat.ID, "ℹ️ Этот бот предназначен только для административных задач."))
		var userID int64
		if msg.From != nil {
			userID = msg.From.ID
		}
		b.logger.Warn("非管理员访问机器人", zap.Int64("user_id", userID))
		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf("👋 Привет, администратор %s!", msg.From.FirstName))
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⚙️ Открыть панель управления", callbackOpenMenu),
	))
	b.send(reply)
}

// openMenu 发送新菜单，旧菜单先删除
func (b *Bot) openMenu(chatID, userID int64) {
	b.dropMenu(chatID, userID)

	msg := tgbotapi.NewMessage(chatID, "Панель управления расписаниями")
	msg.ReplyMarkup = b.menuKeyboard()
	sent, ok := b.send(msg)
	if !ok {
		return
	}
	b.sessions.Put(userID, sent.MessageID)
	b.logger.Info("已发送管理菜单", zap.Int64("user_id", userID), zap.Int("message_id", sent.MessageID))
}

// menuKeyboard 每个课表一个刷新按钮，每行两个，最后是全部刷新
func (b *Bot) menuKeyboard() tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton
	for _, name := range b.refresher.Schedules() {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("🔄 Обновить '%s'", name), callbackUpdatePrefix+name))
	}
	buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData("💥 Обновить все", callbackUpdatePrefix+updateAll))

	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(buttons); i += 2 {
		end := i + 2
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons[i:end]...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) dropMenu(chatID, userID int64) {
	if id, ok := b.sessions.Take(userID); ok {
		b.deleteMessage(chatID, id)
	}
}

// ── 回调 ──

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if !b.isAdmin(cb.From) {
		b.answer(cb.ID, "⛔ Нет доступа", false)
		return
	}
	chatID := cb.From.ID
	if cb.Message != nil && cb.Message.Chat != nil {
		chatID = cb.Message.Chat.ID
	}

	switch {
	case cb.Data == callbackOpenMenu:
		b.answer(cb.ID, "", false)
		b.openMenu(chatID, cb.From.ID)

	case cb.Data == callbackDeleteMessage:
		if cb.Message == nil || !b.deleteMessage(chatID, cb.Message.MessageID) {
			b.answer(cb.ID, "Сообщение уже удалено.", true)
			return
		}
		b.answer(cb.ID, "", false)

	case strings.HasPrefix(cb.Data, callbackUpdatePrefix):
		b.dropMenu(chatID, cb.From.ID)
		target := strings.TrimPrefix(cb.Data, callbackUpdatePrefix)
		var text string
		if target == updateAll {
			b.answer(cb.ID, "🚀 Начинаю обновление всех расписаний...", false)
			text = "✨ <b>Результаты полного обновления:</b>\n\n" + strings.Join(b.refreshAll(ctx), "\n")
		} else {
			b.answer(cb.ID, fmt.Sprintf("🚀 Обновляю '%s'...", target), false)
			text = b.refreshOne(ctx, target)
		}
		b.sendResult(chatID, text)

	default:
		b.answer(cb.ID, "", false)
	}
}

func (b *Bot) refreshOne(ctx context.Context, name string) string {
	b.logger.Info("机器人触发强制刷新", zap.String("schedule", name))
	res, err := b.refresher.Refresh(ctx, name)
	return FormatResult(name, res, err)
}

// refreshAll 并发刷新全部课表，结果按配置顺序排列
func (b *Bot) refreshAll(ctx context.Context) []string {
	names := b.refresher.Schedules()
	lines := make([]string, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			lines[i] = b.refreshOne(ctx, name)
		}(i, name)
	}
	wg.Wait()
	return lines
}

// FormatResult 刷新结果的 HTML 文本
func FormatResult(name string, res *dto.RefreshResponse, err error) string {
	n := html.EscapeString(name)
	if err != nil {
		return fmt.Sprintf("❌ <b>%s</b>: Ошибка\n<code>%s</code>", n, html.EscapeString(err.Error()))
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ <b>%s</b>: Кэш успешно обновлен.", n)
	if res != nil {
		if total := res.Changes.Total(); total > 0 {
			fmt.Fprintf(&sb, " Изменений в расписании: %d.", total)
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(&sb, "\n⚠️ <i>%s</i>", html.EscapeString(w))
		}
	}
	return sb.String()
}

// ── 发送 ──

func (b *Bot) sendResult(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("❌ Удалить", callbackDeleteMessage),
	))
	b.send(msg)
}

func (b *Bot) send(c tgbotapi.Chattable) (tgbotapi.Message, bool) {
	sent, err := b.api.Send(c)
	if err != nil {
		b.logger.Error("发送 Telegram 消息失败", zap.Error(err))
		return sent, false
	}
	return sent, true
}

func (b *Bot) deleteMessage(chatID int64, messageID int) bool {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.logger.Warn("删除消息失败", zap.Int64("chat_id", chatID), zap.Int("message_id", messageID), zap.Error(err))
		return false
	}
	return true
}

func (b *Bot) answer(callbackID, text string, alert bool) {
	cfg := tgbotapi.NewCallback(callbackID, text)
	cfg.ShowAlert = alert
	if _, err := b.api.Request(cfg); err != nil {
		b.logger.Warn("应答回调失败", zap.Error(err))
	}
}
