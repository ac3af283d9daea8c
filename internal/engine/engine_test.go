package engine

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"intraday-trader/internal/interfaces"
	"intraday-trader/internal/logger"
	"intraday-trader/internal/store"
	"intraday-trader/internal/types"
)

func TestMain(m *testing.M) {
	_ = logger.InitWithConfig(logger.LogConfig{Level: "ERROR", Format: "text"})
	dir, err := os.MkdirTemp("", "tradertest")
	if err == nil {
		os.Setenv("TRADER_LOG_DIR", dir)
	}
	code := m.Run()
	if dir != "" {
		os.RemoveAll(dir)
	}
	os.Exit(code)
}

func engineConfig() *store.Config {
	cfg := &store.Config{
		Mode:      "PAPER",
		Capital:   100000,
		Watchlist: []string{"RELIANCE"},
	}
	cfg.Session.Open = "09:15"
	cfg.Session.Close = "15:30"
	cfg.Session.WarmupMinutes = 15
	cfg.Session.EntryCutoff = "14:45"
	cfg.Session.FlattenAt = "15:15"
	cfg.Risk.MaxRiskPerTrade = 0.002
	cfg.Risk.MaxDailyLoss = 0.002 // cap 200
	cfg.Risk.MaxLosingTradesPerDay = 5
	cfg.Risk.PerSymbolAllocPct = 0.25
	cfg.Risk.MaxDeployedPct = 1.0
	cfg.Strategies.Priority = []string{"orb_supertrend", "ema_trend"}
	cfg.Strategies.ORB.VolumeMultiplier = 1.5
	cfg.Strategies.ORB.RSIThreshold = 55
	cfg.Strategies.ORB.ATRStopMult = 2.0
	cfg.Strategies.ORB.RewardRatio = 1.5
	cfg.Strategies.EMA.UseVWAPFilter = true
	cfg.Strategies.EMA.ATRStopMult = 2.0
	cfg.Strategies.EMA.RewardRatio = 1.5
	cfg.Gates.MinRegimeConfidence = 0.6
	cfg.Gates.LowConfidenceScale = 0.5
	cfg.Gates.ContraSentimentScale = 0.5
	cfg.Gates.ContraSentimentCutoff = -0.5
	cfg.Bias.Multipliers = map[string]float64{"moderate": 1.0, "defensive": 0.5}
	return cfg
}

type staticAdvisory struct {
	regime    types.RegimeState
	sentiment types.SentimentState
	bias      types.MarketBias
}

func (a *staticAdvisory) Regime(_ context.Context, _ string) types.RegimeState { return a.regime }
func (a *staticAdvisory) Sentiment(_ context.Context, _ string) types.SentimentState {
	return a.sentiment
}
func (a *staticAdvisory) Bias(_ context.Context) types.MarketBias { return a.bias }

func confidentAdvisory() *staticAdvisory {
	return &staticAdvisory{
		regime:    types.RegimeState{Regime: types.Trending, Confidence: 0.9},
		sentiment: types.NeutralSentiment(),
		bias:      types.NeutralBias(),
	}
}

type fakeExec struct {
	mu           sync.Mutex
	submitted    []types.TradeInstruction
	failNext     bool
	unfilledNext bool
}

func (f *fakeExec) Submit(_ context.Context, instr types.TradeInstruction) (types.FillResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return types.FillResult{}, errors.New("broker unavailable")
	}
	if f.unfilledNext {
		f.unfilledNext = false
		return types.FillResult{Filled: false, Message: "no liquidity"}, nil
	}
	f.submitted = append(f.submitted, instr)
	return types.FillResult{OrderID: "ORD1", Price: instr.EntryPrice, Filled: true}, nil
}

type recordingNotifier struct {
	mu         sync.Mutex
	entries    int
	exits      int
	killSwitch int
	summaries  int
}

func (n *recordingNotifier) EntryAccepted(_ context.Context, _ types.Position, _ string) {
	n.mu.Lock()
	n.entries++
	n.mu.Unlock()
}
func (n *recordingNotifier) ExitRealized(_ context.Context, _ types.Trade) {
	n.mu.Lock()
	n.exits++
	n.mu.Unlock()
}
func (n *recordingNotifier) KillSwitchTripped(_ context.Context, _ string) {
	n.mu.Lock()
	n.killSwitch++
	n.mu.Unlock()
}
func (n *recordingNotifier) SessionSummary(_ context.Context, _ types.PortfolioSnapshot) {
	n.mu.Lock()
	n.summaries++
	n.mu.Unlock()
}

type scriptedFeed struct {
	mu    sync.Mutex
	snaps map[string][]*types.MarketSnapshot
}

func (f *scriptedFeed) Start(_ context.Context, _ []string) error { return nil }
func (f *scriptedFeed) Stop(_ context.Context)                    {}
func (f *scriptedFeed) Next(_ context.Context, symbol string) (*types.MarketSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := f.snaps[symbol]
	if len(q) == 0 {
		return nil, interfaces.ErrEndOfSession
	}
	next := q[0]
	f.snaps[symbol] = q[1:]
	return next, nil
}

func newTestEngine(t *testing.T, feed interfaces.MarketData) (*TradingEngine, *fakeExec, *recordingNotifier) {
	t.Helper()
	exec := &fakeExec{}
	notifier := &recordingNotifier{}
	eng, err := New(engineConfig(), Deps{
		MarketData: feed,
		Execution:  exec,
		Regime:     confidentAdvisory(),
		Sentiment:  confidentAdvisory(),
		Bias:       confidentAdvisory(),
		Notifier:   notifier,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return eng, exec, notifier
}

func bullishSnap(h, m int, close float64) *types.MarketSnapshot {
	return &types.MarketSnapshot{
		Symbol: "RELIANCE",
		Time:   time.Date(2026, 8, 28, h, m, 0, 0, IST),
		Bar:    types.Candle{Open: close - 2, High: close + 3, Low: close - 4, Close: close, Vol: 150000},
		Ind: types.Indicators{
			ORBHigh:           2440,
			ORBLow:            2410,
			SupertrendBullish: true,
			VolumeRatio:       2.1,
			RSI:               62,
			ATR:               10,
			SwingLow:          2430,
			VWAP:              2435,
			EMAFast:           2448,
			EMASlow:           2440,
			PrevEMAFast:       2438,
			PrevEMASlow:       2439,
		},
	}
}

func exitSnap(h, m int, close float64) *types.MarketSnapshot {
	snap := bullishSnap(h, m, close)
	snap.Ind.SupertrendBullish = false
	return snap
}

func TestEngineEntryCycle(t *testing.T) {
	eng, exec, notifier := newTestEngine(t, nil)
	ctx := context.Background()

	result, err := eng.Step(ctx, bullishSnap(10, 30, 2450))
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("expected entry accepted, got: %s", result.Reason)
	}
	if len(exec.submitted) != 1 {
		t.Fatalf("expected 1 submitted order, got %d", len(exec.submitted))
	}
	// 100000 * 0.002 / 20 = 10
	if exec.submitted[0].Quantity != 10 {
		t.Errorf("expected quantity 10, got %d", exec.submitted[0].Quantity)
	}

	snap := eng.Portfolio()
	pos, ok := snap.OpenPositions["RELIANCE"]
	if !ok {
		t.Fatal("expected open position after accepted entry")
	}
	if pos.Strategy != "orb_supertrend" {
		t.Errorf("expected orb_supertrend to win priority, got %s", pos.Strategy)
	}
	if notifier.entries != 1 {
		t.Errorf("expected 1 entry notification, got %d", notifier.entries)
	}
}

func TestEnginePriorityConflict(t *testing.T) {
	// both strategies fire on this snapshot; the first in priority order wins
	eng, _, _ := newTestEngine(t, nil)
	result, err := eng.Step(context.Background(), bullishSnap(10, 30, 2450))
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if result.Instruction == nil || result.Instruction.Strategy != "orb_supertrend" {
		t.Errorf("expected orb_supertrend instruction, got %+v", result.Instruction)
	}
}

func TestEngineIdempotentResubmission(t *testing.T) {
	eng, exec, _ := newTestEngine(t, nil)
	ctx := context.Background()

	if _, err := eng.Step(ctx, bullishSnap(10, 30, 2450)); err != nil {
		t.Fatalf("first Step failed: %v", err)
	}
	result, err := eng.Step(ctx, bullishSnap(10, 30, 2450))
	if err != nil {
		t.Fatalf("second Step failed: %v", err)
	}
	if result.Accepted {
		t.Error("re-evaluating the same snapshot must not open a second position")
	}
	if len(exec.submitted) != 1 {
		t.Errorf("expected 1 order total, got %d", len(exec.submitted))
	}
	if eng.Portfolio().OpenPositions["RELIANCE"].Quantity != 10 {
		t.Error("position changed on resubmission")
	}
}

func TestEngineRejectionLeavesPortfolioUnchanged(t *testing.T) {
	eng, exec, _ := newTestEngine(t, nil)

	// still inside warm-up
	result, err := eng.Step(context.Background(), bullishSnap(9, 20, 2450))
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if result.Accepted {
		t.Fatal("expected warmup rejection")
	}
	if !strings.HasPrefix(result.Reason, "warmup_not_elapsed") {
		t.Errorf("expected warmup_not_elapsed, got: %s", result.Reason)
	}
	if len(exec.submitted) != 0 {
		t.Error("rejected instruction reached execution")
	}
	snap := eng.Portfolio()
	if len(snap.OpenPositions) != 0 || snap.DailyPnL != 0 {
		t.Error("rejection mutated portfolio state")
	}
}

func TestEngineExecutionFailureRollsBack(t *testing.T) {
	eng, exec, _ := newTestEngine(t, nil)
	exec.failNext = true

	result, err := eng.Step(context.Background(), bullishSnap(10, 30, 2450))
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if result.Accepted {
		t.Fatal("expected rejection on execution failure")
	}
	if len(eng.Portfolio().OpenPositions) != 0 {
		t.Error("failed execution left a phantom position")
	}
}

func TestEngineStopHitExit(t *testing.T) {
	eng, _, notifier := newTestEngine(t, nil)
	ctx := context.Background()

	if _, err := eng.Step(ctx, bullishSnap(10, 30, 2450)); err != nil {
		t.Fatalf("entry Step failed: %v", err)
	}

	// stop at 2430; price gaps through it
	result, err := eng.Step(ctx, bullishSnap(11, 0, 2429))
	if err != nil {
		t.Fatalf("exit Step failed: %v", err)
	}
	if !result.Accepted || result.Instruction.ExitReason != types.StopHit {
		t.Fatalf("expected STOP_HIT exit, got %+v (%s)", result.Instruction, result.Reason)
	}

	snap := eng.Portfolio()
	if len(snap.OpenPositions) != 0 {
		t.Error("position still open after stop hit")
	}
	if snap.DailyPnL != -210 {
		t.Errorf("expected daily pnl -210, got %.2f", snap.DailyPnL)
	}
	if notifier.exits != 1 {
		t.Errorf("expected 1 exit notification, got %d", notifier.exits)
	}
}

func TestEngineTargetHitExit(t *testing.T) {
	eng, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	if _, err := eng.Step(ctx, bullishSnap(10, 30, 2450)); err != nil {
		t.Fatalf("entry Step failed: %v", err)
	}

	// target is 2480 (risk 20, RR 1.5)
	result, err := eng.Step(ctx, bullishSnap(11, 0, 2481))
	if err != nil {
		t.Fatalf("exit Step failed: %v", err)
	}
	if !result.Accepted || result.Instruction.ExitReason != types.TargetHit {
		t.Fatalf("expected TARGET_HIT exit, got %+v", result.Instruction)
	}
	if got := eng.Portfolio().DailyPnL; got != 310 {
		t.Errorf("expected daily pnl 310, got %.2f", got)
	}
}

func TestEngineUnfilledExitKeepsPosition(t *testing.T) {
	eng, exec, notifier := newTestEngine(t, nil)
	ctx := context.Background()

	if _, err := eng.Step(ctx, bullishSnap(10, 30, 2450)); err != nil {
		t.Fatal(err)
	}

	// broker reports the exit as not filled; it still holds the position
	exec.unfilledNext = true
	_, err := eng.Step(ctx, bullishSnap(11, 0, 2429))
	if err == nil || !strings.HasPrefix(err.Error(), "not_filled") {
		t.Fatalf("expected not_filled error, got: %v", err)
	}

	snap := eng.Portfolio()
	if len(snap.OpenPositions) != 1 {
		t.Fatal("unfilled exit must leave the position open")
	}
	if snap.DailyPnL != 0 || snap.DailyTrades != 0 {
		t.Errorf("unfilled exit realized pnl %.2f over %d trades", snap.DailyPnL, snap.DailyTrades)
	}
	if notifier.exits != 0 {
		t.Errorf("expected no exit notification, got %d", notifier.exits)
	}

	// next bar the broker fills and the stop exit goes through
	result, err := eng.Step(ctx, bullishSnap(11, 5, 2429))
	if err != nil {
		t.Fatalf("retry Step failed: %v", err)
	}
	if !result.Accepted || result.Instruction.ExitReason != types.StopHit {
		t.Fatalf("expected STOP_HIT on retry, got %+v", result.Instruction)
	}
	if got := eng.Portfolio().DailyPnL; got != -210 {
		t.Errorf("expected daily pnl -210 after retried exit, got %.2f", got)
	}
}

func TestEngineKillSwitchHaltsEntries(t *testing.T) {
	eng, _, notifier := newTestEngine(t, nil)
	ctx := context.Background()

	// trade 1: signal exit for -120 (cap is -200)
	if _, err := eng.Step(ctx, bullishSnap(10, 30, 2450)); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Step(ctx, exitSnap(10, 45, 2438)); err != nil {
		t.Fatal(err)
	}
	if eng.Portfolio().KillSwitch {
		t.Fatal("kill switch tripped too early")
	}

	// trade 2: stop hit for -210, total -330 breaches the cap
	if _, err := eng.Step(ctx, bullishSnap(11, 0, 2450)); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Step(ctx, bullishSnap(11, 15, 2429)); err != nil {
		t.Fatal(err)
	}

	snap := eng.Portfolio()
	if !snap.KillSwitch {
		t.Fatalf("expected kill switch after daily pnl %.2f", snap.DailyPnL)
	}
	if !strings.HasPrefix(snap.KillSwitchReason, "daily_loss_breach") {
		t.Errorf("expected daily_loss_breach reason, got %q", snap.KillSwitchReason)
	}
	if notifier.killSwitch != 1 {
		t.Errorf("expected 1 kill-switch notification, got %d", notifier.killSwitch)
	}

	// further entries are rejected for the rest of the session
	result, err := eng.Step(ctx, bullishSnap(11, 30, 2450))
	if err != nil {
		t.Fatal(err)
	}
	if result.Accepted {
		t.Error("entry accepted while halted")
	}
	if !strings.HasPrefix(result.Reason, "kill_switch_active") {
		t.Errorf("expected kill_switch_active rejection, got: %s", result.Reason)
	}
}

func TestEngineForcedFlatten(t *testing.T) {
	eng, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	if _, err := eng.Step(ctx, bullishSnap(10, 30, 2450)); err != nil {
		t.Fatal(err)
	}

	result, err := eng.Step(ctx, bullishSnap(15, 16, 2455))
	if err != nil {
		t.Fatal(err)
	}
	if !result.Accepted || result.Instruction.ExitReason != types.ForcedFlatten {
		t.Fatalf("expected FORCED_FLATTEN, got %+v", result.Instruction)
	}

	// no new entries after the flatten point
	result, err = eng.Step(ctx, bullishSnap(15, 17, 2450))
	if err != nil {
		t.Fatal(err)
	}
	if result.Accepted || result.Instruction != nil {
		t.Error("activity after flatten time")
	}
}

func TestEngineFlattensEvenAfterClose(t *testing.T) {
	// a position surviving to a post-close snapshot is still force-closed
	eng, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	if _, err := eng.Step(ctx, bullishSnap(10, 30, 2450)); err != nil {
		t.Fatal(err)
	}

	result, err := eng.Step(ctx, bullishSnap(15, 31, 2455))
	if err != nil {
		t.Fatalf("post-close flatten failed: %v", err)
	}
	if !result.Accepted || result.Instruction.ExitReason != types.ForcedFlatten {
		t.Fatalf("expected FORCED_FLATTEN after close, got %+v (%s)", result.Instruction, result.Reason)
	}
	if len(eng.Portfolio().OpenPositions) != 0 {
		t.Error("position still open after post-close flatten")
	}
}

func TestEngineResetSession(t *testing.T) {
	eng, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	if _, err := eng.Step(ctx, bullishSnap(10, 30, 2450)); err != nil {
		t.Fatal(err)
	}
	if err := eng.ResetSession(ctx); err == nil {
		t.Error("reset must fail with an open position")
	}

	if _, err := eng.Step(ctx, exitSnap(10, 45, 2438)); err != nil {
		t.Fatal(err)
	}
	if err := eng.ResetSession(ctx); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	snap := eng.Portfolio()
	if snap.DailyPnL != 0 || snap.KillSwitch {
		t.Errorf("session not reset: %+v", snap)
	}
}

func TestEngineRunFullSession(t *testing.T) {
	feed := &scriptedFeed{snaps: map[string][]*types.MarketSnapshot{
		"RELIANCE": {
			bullishSnap(10, 30, 2450),
			bullishSnap(11, 0, 2460),
			exitSnap(11, 30, 2470),
		},
	}}
	eng, _, notifier := newTestEngine(t, feed)

	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	snap := eng.Portfolio()
	if snap.DailyTrades != 1 {
		t.Errorf("expected 1 realized trade, got %d", snap.DailyTrades)
	}
	if snap.DailyPnL != 200 {
		t.Errorf("expected daily pnl 200, got %.2f", snap.DailyPnL)
	}
	if notifier.summaries != 1 {
		t.Errorf("expected 1 session summary, got %d", notifier.summaries)
	}
}
