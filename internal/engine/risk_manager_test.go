package engine

import (
	"context"
	"strings"
	"testing"

	"intraday-trader/internal/store"
)

func riskConfig() *store.Config {
	cfg := &store.Config{Capital: 100000}
	cfg.Risk.MaxDailyLoss = 0.03
	cfg.Risk.MaxLosingTradesPerDay = 3
	return cfg
}

func TestRiskManagerStartsActive(t *testing.T) {
	r := NewRiskManager(riskConfig())
	if r.Halted() {
		t.Error("risk manager should start ACTIVE")
	}
	if r.Reason() != "" {
		t.Errorf("expected empty reason while active, got %q", r.Reason())
	}
}

func TestRiskManagerDailyLossBreach(t *testing.T) {
	r := NewRiskManager(riskConfig())
	ctx := context.Background()

	if r.OnTradeRealized(ctx, -1200, 1) {
		t.Fatal("should not trip at -1200 with cap -3000")
	}
	if !r.OnTradeRealized(ctx, -3300, 2) {
		t.Fatal("should trip at -3300 with cap -3000")
	}
	if !r.Halted() {
		t.Error("expected HALTED after breach")
	}
	if !strings.HasPrefix(r.Reason(), "daily_loss_breach") {
		t.Errorf("expected daily_loss_breach reason, got %q", r.Reason())
	}
}

func TestRiskManagerLossStreakBreach(t *testing.T) {
	r := NewRiskManager(riskConfig())
	ctx := context.Background()

	if r.OnTradeRealized(ctx, -500, 2) {
		t.Fatal("should not trip at 2 losers with cap 3")
	}
	if !r.OnTradeRealized(ctx, -800, 3) {
		t.Fatal("should trip at 3 losers")
	}
	if !strings.HasPrefix(r.Reason(), "loss_streak_breach") {
		t.Errorf("expected loss_streak_breach reason, got %q", r.Reason())
	}
}

func TestRiskManagerReasonIsImmutable(t *testing.T) {
	r := NewRiskManager(riskConfig())
	ctx := context.Background()

	r.OnTradeRealized(ctx, -3300, 1)
	first := r.Reason()

	// further breaches while halted must not overwrite the recorded reason
	if r.OnTradeRealized(ctx, -9000, 5) {
		t.Error("already-halted manager reported a fresh trip")
	}
	if r.Reason() != first {
		t.Errorf("reason changed after halt: %q -> %q", first, r.Reason())
	}
}

func TestRiskManagerResetSession(t *testing.T) {
	r := NewRiskManager(riskConfig())
	ctx := context.Background()

	r.OnTradeRealized(ctx, -3300, 1)
	if !r.Halted() {
		t.Fatal("expected HALTED")
	}

	r.ResetSession(ctx)
	if r.Halted() {
		t.Error("expected ACTIVE after session reset")
	}
	if r.Reason() != "" {
		t.Errorf("expected cleared reason after reset, got %q", r.Reason())
	}
}

func TestRiskManagerExactBoundary(t *testing.T) {
	r := NewRiskManager(riskConfig())
	ctx := context.Background()

	// cap is -3000; exactly hitting it trips
	if !r.OnTradeRealized(ctx, -3000, 1) {
		t.Error("expected trip at exactly the loss cap")
	}
}
