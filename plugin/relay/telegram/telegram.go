// Package telegram forwards planning analytics and user feedback to a
// Telegram chat. Delivery is best-effort: failures are logged and never
// propagate to the pipeline.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/hrygo/habitsense/engine/planner"
)

// Config holds the relay destination.
type Config struct {
	BotToken string
	ChatID   int64
}

// Event is one feedback or analytics record to forward.
type Event struct {
	UserID  string `json:"userId"`
	Kind    string `json:"kind"`
	HabitID string `json:"habitId,omitempty"`
	Message string `json:"message,omitempty"`
	Rating  int    `json:"rating,omitempty"`
}

// Relay sends events to a single Telegram chat.
type Relay struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

// New creates a relay. The token is verified against the Bot API.
func New(cfg Config, logger *slog.Logger) (*Relay, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("telegram bot token is required")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id is required")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, errors.Wrap(err, "create telegram bot")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{bot: bot, chatID: cfg.ChatID, logger: logger}, nil
}

// SendEvent forwards one feedback event. Errors are logged and
// swallowed.
func (r *Relay) SendEvent(ctx context.Context, ev Event) {
	var b strings.Builder
	fmt.Fprintf(&b, "📬 *%s* from `%s`\n", ev.Kind, ev.UserID)
	if ev.HabitID != "" {
		fmt.Fprintf(&b, "habit: `%s`\n", ev.HabitID)
	}
	if ev.Rating != 0 {
		fmt.Fprintf(&b, "rating: %d\n", ev.Rating)
	}
	if ev.Message != "" {
		b.WriteString(ev.Message)
	}
	r.send(ctx, b.String())
}

// SendPlanSummary forwards a one-line planning digest.
func (r *Relay) SendPlanSummary(ctx context.Context, userID string, resp *planner.Response) {
	text := fmt.Sprintf("🗓 planned %d notifications for `%s`", len(resp.Notifications), userID)
	if n := len(resp.NewMissedEvents); n > 0 {
		text += fmt.Sprintf(", %d new missed days", n)
	}
	r.send(ctx, text)
}

func (r *Relay) send(ctx context.Context, text string) {
	if err := ctx.Err(); err != nil {
		return
	}
	msg := tgbotapi.NewMessage(r.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := r.bot.Send(msg); err != nil {
		r.logger.Warn("telegram relay send failed", "error", err)
	}
}
