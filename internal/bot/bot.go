// Package bot delivers reminders and daily digests to Telegram chats.
package bot

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot sends messages through the Telegram Bot API and answers /start with
// the chat id a user has to link to their account.
type Bot struct {
	api    *tgbotapi.BotAPI
	logger *log.Logger
}

func New(token string, logger *log.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	logger.Info("telegram bot authorized", "account", api.Self.UserName)

	return &Bot{api: api, logger: logger}, nil
}

// Notify sends an HTML-formatted message to chatID.
func (b *Bot) Notify(_ context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return nil
}

// Start polls updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.logger.Info("start polling telegram updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		msg := update.Message
		if msg == nil || msg.Chat == nil || !msg.Chat.IsPrivate() || !msg.IsCommand() {
			continue
		}
		reply, ok := commandReply(msg.Command(), msg.Chat.ID)
		if !ok {
			continue
		}
		if err := b.Notify(ctx, msg.Chat.ID, reply); err != nil {
			b.logger.Error("handle command", "command", msg.Command(), "err", err)
		}
	}

	return ctx.Err()
}

func commandReply(command string, chatID int64) (string, bool) {
	switch command {
	case "start", "chatid":
		return fmt.Sprintf("👋 Your chat id is <code>%d</code>.\n"+
			"Send it to <code>PUT /api/auth/telegram</code> as <code>{\"chatId\": %d}</code> "+
			"to receive task reminders here.", chatID, chatID), true
	case "help":
		return "I deliver reminders and a daily report for your tasks. Use /start to get your chat id.", true
	default:
		return "", false
	}
}

// LogNotifier writes messages to the log instead of sending them. It is
// used when no Telegram token is configured.
type LogNotifier struct {
	Logger *log.Logger
}

func (n LogNotifier) Notify(_ context.Context, chatID int64, text string) error {
	n.Logger.Info("notification", "chat", chatID, "text", text)
	return nil
}
