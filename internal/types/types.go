package types

import (
	"fmt"
	"time"
)

type Candle struct {
	Ts                          int64
	Open, High, Low, Close, Vol float64
}

// Indicators holds the precomputed values a snapshot carries into strategy
// evaluation. NaN means "not computable yet" (not enough history).
type Indicators struct {
	EMAFast, EMASlow  float64
	PrevEMAFast       float64
	PrevEMASlow       float64
	VWAP              float64
	ATR               float64
	RSI               float64
	VolumeRatio       float64
	SupertrendBullish bool
	ORBHigh, ORBLow   float64
	SwingHigh         float64
	SwingLow          float64
}

// MarketSnapshot is one bar plus its derived indicators. Immutable once
// produced; the engine never writes to it.
type MarketSnapshot struct {
	Symbol string
	Time   time.Time
	Bar    Candle
	Ind    Indicators
}

type Signal string

const (
	EntryLong  Signal = "ENTRY_LONG"
	EntryShort Signal = "ENTRY_SHORT"
	Exit       Signal = "EXIT"
	Hold       Signal = "HOLD"
)

func (s Signal) IsEntry() bool { return s == EntryLong || s == EntryShort }

type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

type ExitReason string

const (
	StopHit       ExitReason = "STOP_HIT"
	TargetHit     ExitReason = "TARGET_HIT"
	SignalExit    ExitReason = "SIGNAL_EXIT"
	ForcedFlatten ExitReason = "FORCED_FLATTEN"
	SessionCutoff ExitReason = "SESSION_CUTOFF"
)

type Regime string

const (
	Trending      Regime = "TRENDING"
	RangeBound    Regime = "RANGE_BOUND"
	RegimeUnknown Regime = "UNKNOWN"
)

// RegimeState is advisory only. The zero value (UNKNOWN, confidence 0) is the
// conservative default when the classifier is unavailable.
type RegimeState struct {
	Regime     Regime  `json:"regime"`
	Confidence float64 `json:"confidence"`
}

func NeutralRegime() RegimeState { return RegimeState{Regime: RegimeUnknown} }

// SentimentState is advisory only. Score is directional in [-1,1];
// EventRisky marks earnings/policy events where entries should stand down.
type SentimentState struct {
	Score      float64 `json:"score"`
	EventRisky bool    `json:"event_risky"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale,omitempty"`
}

func NeutralSentiment() SentimentState { return SentimentState{} }

// MarketBias is the global-market advisory sizing scalar.
type MarketBias struct {
	Stance     string  `json:"stance"`
	Multiplier float64 `json:"multiplier"`
	Confidence float64 `json:"confidence"`
}

func NeutralBias() MarketBias { return MarketBias{Stance: "moderate", Multiplier: 1.0} }

// TradeInstruction is the transient per-cycle output of a strategy. Quantity
// stays zero until the sizer fills it; GateScale is attached by the gates.
type TradeInstruction struct {
	ID         string     `json:"id"`
	Symbol     string     `json:"symbol"`
	Strategy   string     `json:"strategy"`
	Signal     Signal     `json:"signal"`
	Quantity   int        `json:"quantity"`
	EntryPrice float64    `json:"entry_price"`
	StopLoss   float64    `json:"stop_loss"`
	Target     float64    `json:"target"`
	Reason     string     `json:"reason"`
	GateScale  float64    `json:"gate_scale"`
	ExitReason ExitReason `json:"exit_reason,omitempty"`
	// PositionDirection is set on EXIT instructions to the direction of
	// the position being closed, so execution knows which side to trade.
	PositionDirection Direction `json:"position_direction,omitempty"`
	At                time.Time `json:"at"`
}

// CheckLevels verifies the entry price/stop/target ordering invariant:
// stop < entry < target for longs, inverted for shorts.
func (ti *TradeInstruction) CheckLevels() error {
	switch ti.Signal {
	case EntryLong:
		if !(ti.StopLoss < ti.EntryPrice && ti.EntryPrice < ti.Target) {
			return fmt.Errorf("long levels violated: stop %.2f entry %.2f target %.2f", ti.StopLoss, ti.EntryPrice, ti.Target)
		}
	case EntryShort:
		if !(ti.Target < ti.EntryPrice && ti.EntryPrice < ti.StopLoss) {
			return fmt.Errorf("short levels violated: target %.2f entry %.2f stop %.2f", ti.Target, ti.EntryPrice, ti.StopLoss)
		}
	}
	return nil
}

func (ti *TradeInstruction) Direction() Direction {
	if ti.Signal == EntryShort {
		return Short
	}
	return Long
}

// Position is an open position. At most one per symbol exists at any time.
type Position struct {
	Symbol     string    `json:"symbol"`
	Strategy   string    `json:"strategy"`
	Direction  Direction `json:"direction"`
	Quantity   int       `json:"quantity"`
	EntryPrice float64   `json:"entry_price"`
	EntryTime  time.Time `json:"entry_time"`
	StopLoss   float64   `json:"stop_loss"`
	Target     float64   `json:"target"`
}

// UnrealizedPnL values the position at price.
func (p *Position) UnrealizedPnL(price float64) float64 {
	if p.Direction == Short {
		return (p.EntryPrice - price) * float64(p.Quantity)
	}
	return (price - p.EntryPrice) * float64(p.Quantity)
}

// Trade is a closed position with its realized result.
type Trade struct {
	ID         string     `json:"id"`
	Symbol     string     `json:"symbol"`
	Strategy   string     `json:"strategy"`
	Direction  Direction  `json:"direction"`
	Quantity   int        `json:"quantity"`
	EntryPrice float64    `json:"entry_price"`
	EntryTime  time.Time  `json:"entry_time"`
	ExitPrice  float64    `json:"exit_price"`
	ExitTime   time.Time  `json:"exit_time"`
	ExitReason ExitReason `json:"exit_reason"`
	PnL        float64    `json:"pnl"`
}

// PortfolioSnapshot is the read-only view the ledger exposes for validation,
// reporting and persistence.
type PortfolioSnapshot struct {
	Capital          float64            `json:"capital"`
	DailyPnL         float64            `json:"daily_pnl"`
	DailyTrades      int                `json:"daily_trades"`
	DailyLosing      int                `json:"daily_losing"`
	OpenPositions    map[string]Position `json:"open_positions"`
	ClosedTrades     []Trade            `json:"closed_trades"`
	DeployedCapital  float64            `json:"deployed_capital"`
	KillSwitch       bool               `json:"kill_switch"`
	KillSwitchReason string             `json:"kill_switch_reason,omitempty"`
}

// FillResult is the execution collaborator's response to a submitted
// instruction. Filled=false means no position change happened.
type FillResult struct {
	OrderID string  `json:"order_id"`
	Price   float64 `json:"price"`
	Filled  bool    `json:"filled"`
	Message string  `json:"message,omitempty"`
}

// CycleResult summarizes one evaluation cycle for one symbol.
type CycleResult struct {
	Symbol      string            `json:"symbol"`
	Price       float64           `json:"price"`
	Time        time.Time         `json:"time"`
	Instruction *TradeInstruction `json:"instruction,omitempty"`
	Accepted    bool              `json:"accepted"`
	Reason      string            `json:"reason"`
}
