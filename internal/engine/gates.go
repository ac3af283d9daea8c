package engine

import (
	"intraday-trader/internal/store"
	"intraday-trader/internal/types"
)

// Gates apply the advisory regime and sentiment layers to an entry
// instruction. They can veto an entry (downgrade to HOLD) or scale its risk
// budget via GateScale in (0,1]. Exits pass through untouched.
type Gates struct {
	minRegimeConfidence   float64
	lowConfidenceScale    float64
	contraSentimentScale  float64
	contraSentimentCutoff float64
}

func NewGates(cfg *store.Config) *Gates {
	return &Gates{
		minRegimeConfidence:   cfg.Gates.MinRegimeConfidence,
		lowConfidenceScale:    cfg.Gates.LowConfidenceScale,
		contraSentimentScale:  cfg.Gates.ContraSentimentScale,
		contraSentimentCutoff: cfg.Gates.ContraSentimentCutoff,
	}
}

// Apply returns the gated instruction. GateScale is always set on entries so
// the sizer never has to guess.
func (g *Gates) Apply(instr types.TradeInstruction, regime types.RegimeState, sentiment types.SentimentState) types.TradeInstruction {
	if !instr.Signal.IsEntry() {
		return instr
	}

	if sentiment.EventRisky {
		instr.Signal = types.Hold
		instr.Reason = "gated: risky event flagged, standing down"
		return instr
	}

	scale := 1.0
	if regime.Confidence < g.minRegimeConfidence {
		scale *= g.lowConfidenceScale
	}
	if contra(instr, sentiment, g.contraSentimentCutoff) {
		scale *= g.contraSentimentScale
	}
	instr.GateScale = scale
	return instr
}

// contra reports whether sentiment points firmly against the entry's
// direction.
func contra(instr types.TradeInstruction, sentiment types.SentimentState, cutoff float64) bool {
	if instr.Signal == types.EntryLong {
		return sentiment.Score <= cutoff
	}
	return sentiment.Score >= -cutoff
}
