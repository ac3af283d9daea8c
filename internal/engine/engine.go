package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"intraday-trader/internal/interfaces"
	"intraday-trader/internal/logger"
	"intraday-trader/internal/store"
	"intraday-trader/internal/strategy"
	"intraday-trader/internal/tradelog"
	"intraday-trader/internal/types"
)

// TradingEngine evaluates one symbol snapshot at a time and drives all
// portfolio mutations. Symbol feeds run concurrently but every
// evaluate -> gate -> size -> validate -> submit -> apply cycle happens
// under one lock, so state transitions are strictly sequential.
type TradingEngine struct {
	cfg        *store.Config
	session    *Session
	strategies []strategy.Strategy

	ledger    *Ledger
	risk      *RiskManager
	sizer     *Sizer
	validator *Validator
	gates     *Gates

	marketData interfaces.MarketData
	execution  interfaces.Execution
	regime     interfaces.RegimeClassifier
	sentiment  interfaces.SentimentAnalyzer
	bias       interfaces.BiasProvider
	notifier   interfaces.Notifier

	// stepper is what Run calls per snapshot; defaults to the engine
	// itself and can be swapped for an observability wrapper.
	stepper interfaces.Engine

	mu sync.Mutex
}

type Deps struct {
	MarketData interfaces.MarketData
	Execution  interfaces.Execution
	Regime     interfaces.RegimeClassifier
	Sentiment  interfaces.SentimentAnalyzer
	Bias       interfaces.BiasProvider
	Notifier   interfaces.Notifier
}

func New(cfg *store.Config, deps Deps) (*TradingEngine, error) {
	session, err := NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("building session windows: %w", err)
	}
	strategies, err := strategy.BuildFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("building strategies: %w", err)
	}
	e := &TradingEngine{
		cfg:        cfg,
		session:    session,
		strategies: strategies,
		ledger:     NewLedger(cfg.Capital),
		risk:       NewRiskManager(cfg),
		sizer:      NewSizer(cfg),
		validator:  NewValidator(cfg, session),
		gates:      NewGates(cfg),
		marketData: deps.MarketData,
		execution:  deps.Execution,
		regime:     deps.Regime,
		sentiment:  deps.Sentiment,
		bias:       deps.Bias,
		notifier:   deps.Notifier,
	}
	e.stepper = e
	return e, nil
}

// SetStepper routes Run's per-snapshot calls through s, typically an
// observability wrapper around this engine.
func (e *TradingEngine) SetStepper(s interfaces.Engine) { e.stepper = s }

// Step runs one evaluation cycle for one snapshot. Order inside the lock:
// protective stop/target exits, forced end-of-day flatten, then strategy
// evaluation with first-eligible-entry conflict resolution.
func (e *TradingEngine) Step(ctx context.Context, snap *types.MarketSnapshot) (*types.CycleResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := &types.CycleResult{
		Symbol: snap.Symbol,
		Price:  snap.Bar.Close,
		Time:   snap.Time,
	}

	if pos := e.ledger.Position(snap.Symbol); pos != nil {
		if reason, hit := stopOrTargetHit(pos, snap.Bar.Close); hit {
			instr := protectiveExit(snap, pos, reason)
			trade, err := e.realizeExit(ctx, &instr)
			if err != nil {
				return result, err
			}
			result.Instruction = &instr
			result.Accepted = true
			result.Reason = fmt.Sprintf("%s at %.2f, pnl %.2f", reason, trade.ExitPrice, trade.PnL)
			return result, nil
		}

		if e.session.FlattenDue(snap.Time) {
			instr := protectiveExit(snap, pos, types.ForcedFlatten)
			trade, err := e.realizeExit(ctx, &instr)
			if err != nil {
				return result, err
			}
			result.Instruction = &instr
			result.Accepted = true
			result.Reason = fmt.Sprintf("forced flatten at %.2f, pnl %.2f", trade.ExitPrice, trade.PnL)
			return result, nil
		}
	}

	if e.session.FlattenDue(snap.Time) {
		result.Reason = "past flatten time, no new activity"
		return result, nil
	}

	instr := e.resolve(ctx, snap)
	if instr == nil {
		result.Reason = "no actionable signal"
		return result, nil
	}
	result.Instruction = instr

	switch {
	case instr.Signal == types.Exit:
		trade, err := e.realizeExit(ctx, instr)
		if err != nil {
			return result, err
		}
		result.Accepted = true
		result.Reason = fmt.Sprintf("signal exit at %.2f, pnl %.2f", trade.ExitPrice, trade.PnL)
	case instr.Signal.IsEntry():
		accepted, reason := e.tryEntry(ctx, snap, instr)
		result.Accepted = accepted
		result.Reason = reason
	}
	return result, nil
}

// resolve evaluates all strategies in priority order and picks the winning
// instruction: the owning strategy's EXIT, or the first eligible ENTRY.
// Later entries in the same cycle are journaled as superseded.
func (e *TradingEngine) resolve(ctx context.Context, snap *types.MarketSnapshot) *types.TradeInstruction {
	pos := e.ledger.Position(snap.Symbol)
	regime := e.regime.Regime(ctx, snap.Symbol)
	sentiment := e.sentiment.Sentiment(ctx, snap.Symbol)

	var winner *types.TradeInstruction
	for _, s := range e.strategies {
		instr := s.Evaluate(snap, pos, regime, sentiment)
		logger.Decision(ctx, snap.Symbol, s.Name(), string(instr.Signal), instr.Reason)

		switch {
		case instr.Signal == types.Exit:
			// only the owning strategy can emit an exit, so it always wins
			return &instr
		case instr.Signal.IsEntry():
			gated := e.gates.Apply(instr, regime, sentiment)
			if gated.Signal == types.Hold {
				logger.Rejection(ctx, snap.Symbol, s.Name(), "gated", "detail", gated.Reason)
				_ = tradelog.AppendRejection(snap.Symbol, s.Name(), string(instr.Signal), "gated", gated.Reason)
				continue
			}
			if winner == nil {
				winner = &gated
			} else {
				logger.Rejection(ctx, snap.Symbol, s.Name(), "superseded",
					"winning_strategy", winner.Strategy)
				_ = tradelog.AppendRejection(snap.Symbol, s.Name(), string(instr.Signal), "superseded",
					"lost priority to "+winner.Strategy)
			}
		}
	}
	return winner
}

// tryEntry sizes, validates, submits and applies an entry instruction.
// Rejections leave the portfolio untouched and are journaled with their
// reason code.
func (e *TradingEngine) tryEntry(ctx context.Context, snap *types.MarketSnapshot, instr *types.TradeInstruction) (bool, string) {
	reject := func(err error) (bool, string) {
		logger.Rejection(ctx, instr.Symbol, instr.Strategy, err.Error())
		_ = tradelog.AppendRejection(instr.Symbol, instr.Strategy, string(instr.Signal), err.Error(), instr.Reason)
		return false, err.Error()
	}

	if err := instr.CheckLevels(); err != nil {
		return reject(err)
	}
	if err := e.sizer.Size(instr, e.bias.Bias(ctx)); err != nil {
		return reject(err)
	}
	if err := e.validator.Validate(instr, e.ledger, e.risk, snap.Time); err != nil {
		return reject(err)
	}

	fill, err := e.execution.Submit(ctx, *instr)
	if err != nil {
		return reject(fmt.Errorf("execution_failed: %w", err))
	}
	if !fill.Filled {
		return reject(fmt.Errorf("not_filled: %s", fill.Message))
	}

	pos, err := e.ledger.ApplyEntry(instr, fill)
	if err != nil {
		return reject(err)
	}

	logger.Info(ctx, "position opened",
		"symbol", pos.Symbol,
		"strategy", pos.Strategy,
		"direction", string(pos.Direction),
		"quantity", pos.Quantity,
		"entry_price", pos.EntryPrice,
		"stop_loss", pos.StopLoss,
		"target", pos.Target)
	e.notifier.EntryAccepted(ctx, pos, instr.Reason)
	return true, "entry accepted"
}

// realizeExit submits the exit, applies it to the ledger, journals the trade
// and re-evaluates the kill switch. Exits bypass gates, sizing and the kill
// switch entirely.
func (e *TradingEngine) realizeExit(ctx context.Context, instr *types.TradeInstruction) (types.Trade, error) {
	if err := e.validator.Validate(instr, e.ledger, e.risk, instr.At); err != nil {
		// an exit with no position is a logic error upstream, not a rejection
		return types.Trade{}, err
	}
	if pos := e.ledger.Position(instr.Symbol); pos != nil {
		instr.PositionDirection = pos.Direction
	}

	fill, err := e.execution.Submit(ctx, *instr)
	if err != nil {
		return types.Trade{}, fmt.Errorf("exit execution for %s: %w", instr.Symbol, err)
	}
	if !fill.Filled {
		// broker still holds the position; keep it open and retry next bar
		logger.Rejection(ctx, instr.Symbol, instr.Strategy, "not_filled", "detail", fill.Message)
		_ = tradelog.AppendRejection(instr.Symbol, instr.Strategy, string(instr.Signal), "not_filled", fill.Message)
		return types.Trade{}, fmt.Errorf("not_filled: exit for %s: %s", instr.Symbol, fill.Message)
	}

	trade, err := e.ledger.ApplyExit(instr, fill)
	if err != nil {
		return types.Trade{}, err
	}

	logger.Trade(ctx, trade.Symbol, string(trade.Direction), trade.Quantity,
		trade.EntryPrice, trade.ExitPrice, trade.PnL,
		"strategy", trade.Strategy,
		"exit_reason", string(trade.ExitReason))
	_ = tradelog.AppendTrade(trade)
	e.notifier.ExitRealized(ctx, trade)

	snap := e.ledger.Snapshot()
	if e.risk.OnTradeRealized(ctx, snap.DailyPnL, snap.DailyLosing) {
		e.notifier.KillSwitchTripped(ctx, e.risk.Reason())
	}
	return trade, nil
}

func stopOrTargetHit(pos *types.Position, price float64) (types.ExitReason, bool) {
	if pos.Direction == types.Long {
		if pos.StopLoss > 0 && price <= pos.StopLoss {
			return types.StopHit, true
		}
		if pos.Target > 0 && price >= pos.Target {
			return types.TargetHit, true
		}
		return "", false
	}
	if pos.StopLoss > 0 && price >= pos.StopLoss {
		return types.StopHit, true
	}
	if pos.Target > 0 && price <= pos.Target {
		return types.TargetHit, true
	}
	return "", false
}

func protectiveExit(snap *types.MarketSnapshot, pos *types.Position, reason types.ExitReason) types.TradeInstruction {
	return types.TradeInstruction{
		Symbol:     snap.Symbol,
		Strategy:   pos.Strategy,
		Signal:     types.Exit,
		EntryPrice: snap.Bar.Close,
		Reason:     string(reason),
		ExitReason: reason,
		At:         snap.Time,
	}
}

// Run drives one full trading session: a goroutine per watchlist symbol
// pulls snapshots until the feed reports end of session, then the summary
// is journaled and published.
func (e *TradingEngine) Run(ctx context.Context) error {
	if err := e.marketData.Start(ctx, e.cfg.Watchlist); err != nil {
		return fmt.Errorf("starting market data: %w", err)
	}
	defer e.marketData.Stop(ctx)

	g, gctx := errgroup.WithContext(ctx)
	for _, symbol := range e.cfg.Watchlist {
		symbol := symbol
		g.Go(func() error {
			return e.runSymbol(gctx, symbol)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	snap := e.Portfolio()
	logger.Info(ctx, "session complete",
		"daily_pnl", snap.DailyPnL,
		"trades", snap.DailyTrades,
		"losing_trades", snap.DailyLosing,
		"kill_switch", snap.KillSwitch)
	_ = tradelog.AppendSession(snap)
	e.notifier.SessionSummary(ctx, snap)
	return nil
}

func (e *TradingEngine) runSymbol(ctx context.Context, symbol string) error {
	for {
		snap, err := e.marketData.Next(ctx, symbol)
		if errors.Is(err, interfaces.ErrEndOfSession) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("market data for %s: %w", symbol, err)
		}

		if _, err := e.stepper.Step(ctx, snap); err != nil {
			logger.ErrorWithErr(ctx, "evaluation cycle failed", err, "symbol", symbol)
		}
	}
}

// Portfolio returns a consistent snapshot including kill-switch state.
func (e *TradingEngine) Portfolio() types.PortfolioSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := e.ledger.Snapshot()
	e.risk.Snapshot(&snap)
	return snap
}

// ResetSession rolls daily risk state over to a new trading day. Open
// positions must already be flat.
func (e *TradingEngine) ResetSession(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n := len(e.ledger.Snapshot().OpenPositions); n > 0 {
		return fmt.Errorf("cannot reset session with %d open positions", n)
	}
	e.ledger.ResetSession()
	e.risk.ResetSession(ctx)
	return nil
}
