package engine

import (
	"fmt"
	"math"

	"intraday-trader/internal/store"
	"intraday-trader/internal/types"
)

// Sizer converts a risk budget into a share quantity:
//
//	qty = floor(capital * max_risk_per_trade * bias_mult * gate_scale / per_share_risk)
//
// where per_share_risk = |entry - stop|. A quantity below one share is a
// rejection, never rounded up.
type Sizer struct {
	capital         float64
	maxRiskPerTrade float64
	biasMultipliers map[string]float64
}

func NewSizer(cfg *store.Config) *Sizer {
	return &Sizer{
		capital:         cfg.Capital,
		maxRiskPerTrade: cfg.Risk.MaxRiskPerTrade,
		biasMultipliers: cfg.Bias.Multipliers,
	}
}

func (s *Sizer) biasMultiplier(bias types.MarketBias) float64 {
	if m, ok := s.biasMultipliers[bias.Stance]; ok {
		return m
	}
	if bias.Multiplier > 0 {
		return bias.Multiplier
	}
	return 1.0
}

// Size fills in instr.Quantity. A non-nil error carries the rejection reason
// and means the instruction must not reach execution.
func (s *Sizer) Size(instr *types.TradeInstruction, bias types.MarketBias) error {
	if !instr.Signal.IsEntry() {
		return nil
	}

	perShareRisk := math.Abs(instr.EntryPrice - instr.StopLoss)
	if perShareRisk <= 0 {
		return fmt.Errorf("zero_risk: entry %.2f equals stop %.2f", instr.EntryPrice, instr.StopLoss)
	}

	gate := instr.GateScale
	if gate == 0 {
		gate = 1.0
	}
	riskBudget := s.capital * s.maxRiskPerTrade * s.biasMultiplier(bias) * gate
	qty := int(math.Floor(riskBudget / perShareRisk))
	if qty < 1 {
		return fmt.Errorf("qty_below_one: risk budget %.2f cannot cover per-share risk %.2f", riskBudget, perShareRisk)
	}

	instr.Quantity = qty
	return nil
}
