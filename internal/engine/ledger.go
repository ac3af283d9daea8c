package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"intraday-trader/internal/types"
)

// Ledger is the single source of truth for portfolio state. All mutations go
// through ApplyEntry/ApplyExit; everything else reads copies via Snapshot.
// Callers are expected to hold the engine's evaluation lock, the ledger
// itself is not concurrency-safe.
type Ledger struct {
	capital float64

	positions map[string]types.Position
	trades    []types.Trade

	dailyPnL    float64
	dailyTrades int
	dailyLosing int
}

func NewLedger(capital float64) *Ledger {
	return &Ledger{
		capital:   capital,
		positions: make(map[string]types.Position),
	}
}

// Position returns the open position for symbol, or nil.
func (l *Ledger) Position(symbol string) *types.Position {
	if p, ok := l.positions[symbol]; ok {
		cp := p
		return &cp
	}
	return nil
}

// DeployedCapital is the sum of entry notional across open positions.
func (l *Ledger) DeployedCapital() float64 {
	var total float64
	for _, p := range l.positions {
		total += p.EntryPrice * float64(p.Quantity)
	}
	return total
}

// ApplyEntry opens a position from a sized, validated instruction and its
// fill. The fill price wins over the instruction's intended entry.
func (l *Ledger) ApplyEntry(instr *types.TradeInstruction, fill types.FillResult) (types.Position, error) {
	if !instr.Signal.IsEntry() {
		return types.Position{}, fmt.Errorf("ApplyEntry called with %s signal", instr.Signal)
	}
	if _, exists := l.positions[instr.Symbol]; exists {
		return types.Position{}, fmt.Errorf("position already open for %s", instr.Symbol)
	}
	if instr.Quantity < 1 {
		return types.Position{}, fmt.Errorf("entry for %s has quantity %d", instr.Symbol, instr.Quantity)
	}

	price := fill.Price
	if price <= 0 {
		price = instr.EntryPrice
	}
	pos := types.Position{
		Symbol:     instr.Symbol,
		Strategy:   instr.Strategy,
		Direction:  instr.Direction(),
		Quantity:   instr.Quantity,
		EntryPrice: price,
		EntryTime:  instr.At,
		StopLoss:   instr.StopLoss,
		Target:     instr.Target,
	}
	l.positions[instr.Symbol] = pos
	return pos, nil
}

// ApplyExit closes the open position for the instruction's symbol and
// realizes the trade. daily_pnl stays the exact sum of realized trade P&L.
func (l *Ledger) ApplyExit(instr *types.TradeInstruction, fill types.FillResult) (types.Trade, error) {
	pos, exists := l.positions[instr.Symbol]
	if !exists {
		return types.Trade{}, fmt.Errorf("no open position for %s", instr.Symbol)
	}

	price := fill.Price
	if price <= 0 {
		price = instr.EntryPrice
	}
	pnl := pos.UnrealizedPnL(price)

	exitAt := instr.At
	if exitAt.IsZero() {
		exitAt = time.Now().In(IST)
	}
	trade := types.Trade{
		ID:         uuid.NewString(),
		Symbol:     pos.Symbol,
		Strategy:   pos.Strategy,
		Direction:  pos.Direction,
		Quantity:   pos.Quantity,
		EntryPrice: pos.EntryPrice,
		EntryTime:  pos.EntryTime,
		ExitPrice:  price,
		ExitTime:   exitAt,
		ExitReason: instr.ExitReason,
		PnL:        pnl,
	}

	delete(l.positions, instr.Symbol)
	l.trades = append(l.trades, trade)
	l.dailyPnL += pnl
	l.dailyTrades++
	if pnl < 0 {
		l.dailyLosing++
	}
	return trade, nil
}

// Snapshot returns a deep copy of the current portfolio state. The
// kill-switch fields are filled in by the caller.
func (l *Ledger) Snapshot() types.PortfolioSnapshot {
	positions := make(map[string]types.Position, len(l.positions))
	for sym, p := range l.positions {
		positions[sym] = p
	}
	trades := make([]types.Trade, len(l.trades))
	copy(trades, l.trades)
	return types.PortfolioSnapshot{
		Capital:         l.capital,
		DailyPnL:        l.dailyPnL,
		DailyTrades:     l.dailyTrades,
		DailyLosing:     l.dailyLosing,
		OpenPositions:   positions,
		ClosedTrades:    trades,
		DeployedCapital: l.DeployedCapital(),
	}
}

// ResetSession zeroes the daily counters for a new trading day. Closed
// trades are kept as history; open positions should already be flat.
func (l *Ledger) ResetSession() {
	l.dailyPnL = 0
	l.dailyTrades = 0
	l.dailyLosing = 0
}
