package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"intraday-trader/internal/api"
	"intraday-trader/internal/interfaces"
	"intraday-trader/internal/logger"
	"intraday-trader/internal/types"
)

const telegramAPIURL = "https://api.telegram.org/bot%s/sendMessage"

// Telegram pushes trade events to a Telegram chat via the Bot API. Send
// failures are logged and dropped; notification must never block trading.
type Telegram struct {
	botToken string
	chatID   string
	client   *api.Client
	retry    *api.RetryConfig
}

var _ interfaces.Notifier = (*Telegram)(nil)

func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		client:   api.NewClient(api.WithTimeout(10 * time.Second)),
		retry: &api.RetryConfig{
			MaxAttempts: 2,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     2 * time.Second,
		},
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

func (t *Telegram) send(ctx context.Context, message string) {
	url := fmt.Sprintf(telegramAPIURL, t.botToken)
	req := api.NewRequest(http.MethodPost, url).
		WithContext(ctx).
		WithBody(sendMessageRequest{
			ChatID:    t.chatID,
			Text:      message,
			ParseMode: "HTML",
		})

	resp, err := t.client.DoWithRetry(req, t.retry)
	if err != nil {
		logger.Warn(ctx, "telegram send failed", "error", err.Error())
		return
	}

	var response sendMessageResponse
	if err := resp.ParseJSON(&response); err != nil {
		return
	}
	if !response.OK {
		logger.Warn(ctx, "telegram API error", "description", response.Description)
	}
}

func (t *Telegram) EntryAccepted(ctx context.Context, pos types.Position, reason string) {
	t.send(ctx, fmt.Sprintf("🟢 <b>%s %s</b> x%d @ %.2f\nSL %.2f / TGT %.2f\n%s [%s]",
		pos.Direction, pos.Symbol, pos.Quantity, pos.EntryPrice, pos.StopLoss, pos.Target, reason, pos.Strategy))
}

func (t *Telegram) ExitRealized(ctx context.Context, trade types.Trade) {
	emoji := "✅"
	if trade.PnL < 0 {
		emoji = "🔻"
	}
	t.send(ctx, fmt.Sprintf("%s <b>EXIT %s</b> x%d @ %.2f (%s)\nP&L: %+.2f",
		emoji, trade.Symbol, trade.Quantity, trade.ExitPrice, trade.ExitReason, trade.PnL))
}

func (t *Telegram) KillSwitchTripped(ctx context.Context, reason string) {
	t.send(ctx, fmt.Sprintf("🛑 <b>KILL SWITCH</b>\n%s\nNo new entries for the rest of the session.", reason))
}

func (t *Telegram) SessionSummary(ctx context.Context, snap types.PortfolioSnapshot) {
	t.send(ctx, fmt.Sprintf("📊 <b>Session summary</b>\nP&L: %+.2f\nTrades: %d (losing %d)\nKill switch: %v",
		snap.DailyPnL, snap.DailyTrades, snap.DailyLosing, snap.KillSwitch))
}
