package notify

import (
	"context"

	"intraday-trader/internal/interfaces"
	"intraday-trader/internal/logger"
	"intraday-trader/internal/types"
)

// Multi fans engine events out to every configured sink.
type Multi struct {
	sinks []interfaces.Notifier
}

var _ interfaces.Notifier = (*Multi)(nil)

func NewMulti(sinks ...interfaces.Notifier) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) EntryAccepted(ctx context.Context, pos types.Position, reason string) {
	for _, s := range m.sinks {
		s.EntryAccepted(ctx, pos, reason)
	}
}

func (m *Multi) ExitRealized(ctx context.Context, trade types.Trade) {
	for _, s := range m.sinks {
		s.ExitRealized(ctx, trade)
	}
}

func (m *Multi) KillSwitchTripped(ctx context.Context, reason string) {
	for _, s := range m.sinks {
		s.KillSwitchTripped(ctx, reason)
	}
}

func (m *Multi) SessionSummary(ctx context.Context, snap types.PortfolioSnapshot) {
	for _, s := range m.sinks {
		s.SessionSummary(ctx, snap)
	}
}

// Log is the always-on sink writing events to the structured log.
type Log struct{}

var _ interfaces.Notifier = Log{}

func (Log) EntryAccepted(ctx context.Context, pos types.Position, reason string) {
	logger.Info(ctx, "ENTRY",
		"symbol", pos.Symbol,
		"strategy", pos.Strategy,
		"direction", string(pos.Direction),
		"qty", pos.Quantity,
		"entry_price", pos.EntryPrice,
		"reason", reason,
	)
}

func (Log) ExitRealized(ctx context.Context, trade types.Trade) {
	logger.Info(ctx, "EXIT",
		"symbol", trade.Symbol,
		"strategy", trade.Strategy,
		"exit_reason", string(trade.ExitReason),
		"pnl", trade.PnL,
	)
}

func (Log) KillSwitchTripped(ctx context.Context, reason string) {
	logger.Warn(ctx, "KILL SWITCH", "reason", reason)
}

func (Log) SessionSummary(ctx context.Context, snap types.PortfolioSnapshot) {
	logger.Info(ctx, "SESSION SUMMARY",
		"daily_pnl", snap.DailyPnL,
		"trades", snap.DailyTrades,
		"losing_trades", snap.DailyLosing,
		"kill_switch", snap.KillSwitch,
	)
}
