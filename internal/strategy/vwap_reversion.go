package strategy

import (
	"fmt"
	"math"

	"intraday-trader/internal/types"
)

// VWAPReversion fades stretched moves back to VWAP. Only active while the
// regime is RANGE_BOUND; holds in TRENDING or UNKNOWN regardless of the
// local indicator picture.
type VWAPReversion struct {
	DeviationPct  float64
	RSIOversold   float64
	RSIOverbought float64
	ATRStopMult   float64
	RewardRatio   float64
}

func (s *VWAPReversion) Name() string { return "vwap_reversion" }

func (s *VWAPReversion) Evaluate(snap *types.MarketSnapshot, pos *types.Position, regime types.RegimeState, sentiment types.SentimentState) types.TradeInstruction {
	if pos != nil {
		if !ownedBy(pos, s.Name()) {
			return hold(snap, s.Name(), "position held by another strategy")
		}
		return s.checkExit(snap, pos)
	}

	if regime.Regime != types.RangeBound {
		return hold(snap, s.Name(), fmt.Sprintf("only active in RANGE_BOUND regime, current: %s", regime.Regime))
	}

	if instr := s.checkEntryLong(snap, sentiment); instr.Signal != types.Hold {
		return instr
	}
	return s.checkEntryShort(snap, sentiment)
}

func (s *VWAPReversion) checkEntryLong(snap *types.MarketSnapshot, sentiment types.SentimentState) types.TradeInstruction {
	price := snap.Bar.Close
	ind := snap.Ind

	if math.IsNaN(ind.VWAP) {
		return hold(snap, s.Name(), "VWAP not computable")
	}
	deviationPct := (price - ind.VWAP) / ind.VWAP * 100
	if deviationPct >= -s.DeviationPct {
		return hold(snap, s.Name(), fmt.Sprintf("deviation %.2f%% not below -%.2f%%", deviationPct, s.DeviationPct))
	}
	if math.IsNaN(ind.RSI) || ind.RSI > s.RSIOversold {
		return hold(snap, s.Name(), fmt.Sprintf("RSI %.2f not oversold (threshold %.2f)", ind.RSI, s.RSIOversold))
	}
	if sentiment.EventRisky {
		return hold(snap, s.Name(), "risky event flagged: "+sentiment.Rationale)
	}

	stop := stopFor(snap, s.ATRStopMult, true)
	if stop <= 0 {
		return hold(snap, s.Name(), "cannot compute stop loss")
	}
	target := math.Min(ind.VWAP, targetFor(price, stop, s.RewardRatio, true))

	return types.TradeInstruction{
		Symbol:     snap.Symbol,
		Strategy:   s.Name(),
		Signal:     types.EntryLong,
		EntryPrice: price,
		StopLoss:   stop,
		Target:     target,
		Reason: fmt.Sprintf("VWAP reversion long: price %.2f is %.2f%% below VWAP %.2f, RSI oversold at %.2f",
			price, deviationPct, ind.VWAP, ind.RSI),
		At: snap.Time,
	}
}

func (s *VWAPReversion) checkEntryShort(snap *types.MarketSnapshot, sentiment types.SentimentState) types.TradeInstruction {
	price := snap.Bar.Close
	ind := snap.Ind

	if math.IsNaN(ind.VWAP) {
		return hold(snap, s.Name(), "VWAP not computable")
	}
	deviationPct := (price - ind.VWAP) / ind.VWAP * 100
	if deviationPct <= s.DeviationPct {
		return hold(snap, s.Name(), fmt.Sprintf("deviation %.2f%% not above %.2f%%", deviationPct, s.DeviationPct))
	}
	if math.IsNaN(ind.RSI) || ind.RSI < s.RSIOverbought {
		return hold(snap, s.Name(), fmt.Sprintf("RSI %.2f not overbought (threshold %.2f)", ind.RSI, s.RSIOverbought))
	}
	if sentiment.EventRisky {
		return hold(snap, s.Name(), "risky event flagged: "+sentiment.Rationale)
	}

	stop := stopFor(snap, s.ATRStopMult, false)
	if stop <= 0 {
		return hold(snap, s.Name(), "cannot compute stop loss")
	}
	target := math.Max(ind.VWAP, targetFor(price, stop, s.RewardRatio, false))

	return types.TradeInstruction{
		Symbol:     snap.Symbol,
		Strategy:   s.Name(),
		Signal:     types.EntryShort,
		EntryPrice: price,
		StopLoss:   stop,
		Target:     target,
		Reason: fmt.Sprintf("VWAP reversion short: price %.2f is %.2f%% above VWAP %.2f, RSI overbought at %.2f",
			price, deviationPct, ind.VWAP, ind.RSI),
		At: snap.Time,
	}
}

func (s *VWAPReversion) checkExit(snap *types.MarketSnapshot, pos *types.Position) types.TradeInstruction {
	ind := snap.Ind
	if math.IsNaN(ind.VWAP) {
		return hold(snap, s.Name(), "holding position")
	}
	price := snap.Bar.Close
	if pos.Direction == types.Long && price >= ind.VWAP {
		return exit(snap, s.Name(), "price reached VWAP")
	}
	if pos.Direction == types.Short && price <= ind.VWAP {
		return exit(snap, s.Name(), "price reached VWAP")
	}
	return hold(snap, s.Name(), "holding position")
}

func (s *VWAPReversion) Parameters() map[string]any {
	return map[string]any{
		"deviation_pct":  s.DeviationPct,
		"rsi_oversold":   s.RSIOversold,
		"rsi_overbought": s.RSIOverbought,
		"atr_stop_mult":  s.ATRStopMult,
		"reward_ratio":   s.RewardRatio,
	}
}
