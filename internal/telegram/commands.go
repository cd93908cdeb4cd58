package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"complaintdesk/backend/internal/analytics"
	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Desk is what the staff commands read.
type Desk interface {
	Summary(ctx context.Context) (analytics.Summary, error)
	Get(ctx context.Context, id string) (models.Complaint, error)
}

// UpdateSource is the part of *tgbotapi.BotAPI that long-polls for updates.
type UpdateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// CommandService answers /stats, /status and /help in the staff chat.
// Messages from any other chat are ignored.
type CommandService struct {
	Bot    Sender
	Desk   Desk
	ChatID int64
	Log    *slog.Logger
}

func NewCommandService(bot Sender, desk Desk, chatID int64, logger *slog.Logger) *CommandService {
	return &CommandService{Bot: bot, Desk: desk, ChatID: chatID, Log: logger}
}

// Run is the main loop for receiving Telegram updates. It returns when ctx is cancelled.
func (s *CommandService) Run(ctx context.Context, src UpdateSource) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := src.GetUpdatesChan(u)
	defer src.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			s.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes one update.
func (s *CommandService) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || !msg.IsCommand() || msg.Chat == nil || msg.Chat.ID != s.ChatID {
		return
	}

	var text string
	switch msg.Command() {
	case "stats":
		text = s.statsReply(ctx)
	case "status":
		text = s.statusReply(ctx, strings.TrimSpace(msg.CommandArguments()))
	case "help", "start":
		text = "/stats - dashboard summary\n/status <id> - status of one complaint"
	default:
		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ParseMode = tgbotapi.ModeMarkdown
	reply.ReplyToMessageID = msg.MessageID
	if _, err := s.Bot.Send(reply); err != nil {
		s.Log.WarnContext(ctx, "telegram reply failed", slog.String("command", msg.Command()), slog.String("error", err.Error()))
	}
}

func (s *CommandService) statsReply(ctx context.Context) string {
	sum, err := s.Desk.Summary(ctx)
	if err != nil {
		s.Log.ErrorContext(ctx, "stats command failed", slog.String("error", err.Error()))
		return "Statistics are unavailable right now."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Complaints:* %d\n", sum.TotalComplaints)
	fmt.Fprintf(&b, "Pending: %d, resolved: %d (%.1f%%)\n", sum.PendingCount, sum.ResolvedCount, sum.ResolutionRate)
	fmt.Fprintf(&b, "Sentiment score: %.0f/100\n", sum.Sentiment.Score)
	if len(sum.Categories) > 0 {
		b.WriteString("\n*Top categories*\n")
		for _, c := range sum.Categories {
			fmt.Fprintf(&b, "%s: %d\n", tgbotapi.EscapeText(tgbotapi.ModeMarkdown, c.Name), c.Count)
		}
	}
	return b.String()
}

func (s *CommandService) statusReply(ctx context.Context, id string) string {
	if id == "" {
		return "Usage: /status <id>"
	}
	c, err := s.Desk.Get(ctx, id)
	if errors.Is(err, complaint.ErrNotFound) {
		return "No complaint with that ID."
	}
	if err != nil {
		s.Log.ErrorContext(ctx, "status command failed", slog.String("id", id), slog.String("error", err.Error()))
		return "Lookup failed, try again later."
	}
	category := c.Category
	if category == "" {
		category = config.UnknownGroup
	}
	return fmt.Sprintf("*%s*\nStatus: %s\nPriority: %s\nCategory: %s",
		tgbotapi.EscapeText(tgbotapi.ModeMarkdown, c.Title),
		tgbotapi.EscapeText(tgbotapi.ModeMarkdown, c.Status),
		tgbotapi.EscapeText(tgbotapi.ModeMarkdown, c.Priority),
		tgbotapi.EscapeText(tgbotapi.ModeMarkdown, category))
}
