// Package notify delivers lifecycle events to Telegram. Without a token it
// degrades to logging so callers never need to branch on configuration.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier sends operator notifications.
type Notifier struct {
	api      *tgbotapi.BotAPI
	chatID   int64
	disabled bool
	logger   *slog.Logger
}

// New creates a Notifier. An empty token yields a disabled notifier that
// logs messages instead of sending them.
func New(token, chatID string, logger *slog.Logger) (*Notifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if token == "" {
		logger.Info("telegram not configured, notifications log only")
		return &Notifier{disabled: true, logger: logger}, nil
	}

	parsedChatID, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID %q: %w", chatID, err)
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	logger.Info("telegram authorized", "user", api.Self.UserName)

	return &Notifier{api: api, chatID: parsedChatID, logger: logger}, nil
}

// Notify sends a plain text message.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	if n.disabled {
		n.logger.Info("notification", "text", text)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

// Alert sends a Markdown-formatted message with a bold title.
func (n *Notifier) Alert(ctx context.Context, title, message string) error {
	if n.disabled {
		n.logger.Info("notification", "title", title, "text", message)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, fmt.Sprintf("*%s*\n\n%s", title, message))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}
