package engine

import (
	"context"
	"fmt"
	"sync"

	"intraday-trader/internal/logger"
	"intraday-trader/internal/store"
	"intraday-trader/internal/types"
)

// RiskState is the kill-switch state. ACTIVE -> HALTED is one-way within a
// session; only an explicit session reset returns to ACTIVE.
type RiskState string

const (
	RiskActive RiskState = "ACTIVE"
	RiskHalted RiskState = "HALTED"
)

// RiskManager owns the daily kill switch. It observes every realized trade
// and halts new entries when the daily loss cap or the losing-trade streak
// cap is breached. Exits are never blocked.
type RiskManager struct {
	mu sync.Mutex

	capital         float64
	maxDailyLoss    float64
	maxLosingPerDay int

	state  RiskState
	reason string
}

func NewRiskManager(cfg *store.Config) *RiskManager {
	return &RiskManager{
		capital:         cfg.Capital,
		maxDailyLoss:    cfg.Risk.MaxDailyLoss,
		maxLosingPerDay: cfg.Risk.MaxLosingTradesPerDay,
		state:           RiskActive,
	}
}

// Halted reports whether the kill switch has tripped.
func (r *RiskManager) Halted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == RiskHalted
}

// Reason returns the recorded trip reason, empty while ACTIVE. The first
// recorded reason is immutable for the rest of the session.
func (r *RiskManager) Reason() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reason
}

// OnTradeRealized re-evaluates the kill switch after a trade's P&L has been
// applied to the portfolio. Returns true if this call tripped the switch.
func (r *RiskManager) OnTradeRealized(ctx context.Context, dailyPnL float64, losingToday int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == RiskHalted {
		return false
	}

	lossCap := r.maxDailyLoss * r.capital
	if dailyPnL <= -lossCap {
		r.trip(ctx, fmt.Sprintf("daily_loss_breach: daily P&L %.2f breached cap -%.2f", dailyPnL, lossCap))
		return true
	}
	if losingToday >= r.maxLosingPerDay {
		r.trip(ctx, fmt.Sprintf("loss_streak_breach: %d losing trades reached cap %d", losingToday, r.maxLosingPerDay))
		return true
	}
	return false
}

// trip must be called with the lock held.
func (r *RiskManager) trip(ctx context.Context, reason string) {
	r.state = RiskHalted
	r.reason = reason
	logger.Risk(ctx, "kill_switch_tripped")
	logger.Warn(ctx, "kill switch tripped, entries halted for the session",
		"reason", reason)
}

// ResetSession returns the manager to ACTIVE for a new trading day. This is
// the only path out of HALTED.
func (r *RiskManager) ResetSession(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == RiskHalted {
		logger.Info(ctx, "kill switch reset for new session", "previous_reason", r.reason)
	}
	r.state = RiskActive
	r.reason = ""
}

// Snapshot populates the kill-switch fields of a portfolio snapshot.
func (r *RiskManager) Snapshot(snap *types.PortfolioSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap.KillSwitch = r.state == RiskHalted
	snap.KillSwitchReason = r.reason
}
