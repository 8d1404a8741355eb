// Package notify delivers reminders through a Telegram bot and tells users
// which chat id to register for them.
package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// botAPI is the part of tgbotapi.BotAPI the bot uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot sends HTML messages and answers a few commands in private chats.
type Bot struct {
	api botAPI
	log *slog.Logger
}

func New(token string, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Info("bot authorized", "account", api.Self.UserName)
	return &Bot{api: api, log: log}, nil
}

// Notify sends text, formatted as Telegram HTML, to chatID.
func (b *Bot) Notify(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return nil
}

// Start polls updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updateConfig.AllowedUpdates = []string{"message"}
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		msg := update.Message
		if msg == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
			continue
		}
		if err := b.handleMessage(ctx, msg); err != nil {
			b.log.Error("handle message", "chat_id", msg.Chat.ID, "error", err)
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if !msg.IsCommand() {
		return b.Notify(ctx, msg.Chat.ID, "Send /start to get the chat id for reminders.")
	}

	b.log.Debug("command received", "chat_id", msg.Chat.ID, "command", msg.Command())
	switch msg.Command() {
	case "start", "chatid":
		return b.Notify(ctx, msg.Chat.ID, welcomeText(msg))
	case "help":
		return b.Notify(ctx, msg.Chat.ID, helpText(msg.Chat.ID))
	default:
		return b.Notify(ctx, msg.Chat.ID, "Unknown command. See /help.")
	}
}

func welcomeText(msg *tgbotapi.Message) string {
	name := ""
	if msg.From != nil {
		name = strings.TrimSpace(msg.From.FirstName)
	}
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("👋 Hi, %s!\n\n%s", html.EscapeString(name), helpText(msg.Chat.ID))
}

func helpText(chatID int64) string {
	return fmt.Sprintf(
		"Your chat id is <code>%d</code>.\n"+
			"Save it as <code>telegram_chat_id</code> in your notification settings "+
			"and enable reminders to get told about upcoming deadlines.\n\n"+
			"• /chatid — show the chat id again\n"+
			"• /help — this message",
		chatID,
	)
}
