// Package telegram handles the integration with the Telegram Bot API: alerts for
// urgent complaints and a small command interface for the staff chat.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"complaintdesk/backend/internal/analysis"
	"complaintdesk/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of *tgbotapi.BotAPI used to post messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// NewBot authorizes token against the Bot API.
func NewBot(token string, logger *slog.Logger) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: authorize bot: %w", err)
	}
	bot.Debug = false
	logger.Info("telegram bot authorized", slog.String("account", bot.Self.UserName))
	return bot, nil
}

// Notifier posts newly created complaints at or above a priority threshold to one chat.
type Notifier struct {
	Bot       Sender
	ChatID    int64
	MinWeight int
	Log       *slog.Logger
}

func NewNotifier(bot Sender, chatID int64, minPriority string, logger *slog.Logger) *Notifier {
	return &Notifier{
		Bot:       bot,
		ChatID:    chatID,
		MinWeight: analysis.PriorityWeight(minPriority),
		Log:       logger,
	}
}

// NotifyCreated sends an alert for c when its priority is high enough.
func (n *Notifier) NotifyCreated(ctx context.Context, c models.Complaint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if analysis.PriorityWeight(c.Priority) < n.MinWeight {
		return nil
	}

	msg := tgbotapi.NewMessage(n.ChatID, FormatComplaint(c))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.Bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: send alert for %s: %w", c.ID, err)
	}
	n.Log.InfoContext(ctx, "complaint alert sent", slog.String("id", c.ID), slog.String("priority", c.Priority))
	return nil
}

// FormatComplaint renders c as a Markdown alert. Caller text is escaped.
func FormatComplaint(c models.Complaint) string {
	esc := func(s string) string { return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s) }

	var b strings.Builder
	fmt.Fprintf(&b, "🚨 *New %s complaint*\n", esc(c.Priority))
	fmt.Fprintf(&b, "*%s*\n", esc(c.Title))
	if c.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", esc(c.Category))
	}
	if c.Department != "" {
		fmt.Fprintf(&b, "Department: %s\n", esc(c.Department))
	}
	if c.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", esc(truncate(c.Description, 500)))
	}
	fmt.Fprintf(&b, "\nID: `%s`", c.ID)
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
