package strategy

import (
	"fmt"
	"math"

	"intraday-trader/internal/types"
)

// EMATrend trades fast/slow EMA crossovers with an optional VWAP filter.
// Shorts are disabled unless AllowShort is set.
type EMATrend struct {
	UseVWAPFilter bool
	UseRSIFilter  bool
	RSIThreshold  float64
	ATRStopMult   float64
	RewardRatio   float64
	AllowShort    bool
}

func (s *EMATrend) Name() string { return "ema_trend" }

func (s *EMATrend) Evaluate(snap *types.MarketSnapshot, pos *types.Position, regime types.RegimeState, sentiment types.SentimentState) types.TradeInstruction {
	if pos != nil {
		if !ownedBy(pos, s.Name()) {
			return hold(snap, s.Name(), "position held by another strategy")
		}
		return s.checkExit(snap, pos)
	}

	if instr := s.checkEntryLong(snap, sentiment); instr.Signal != types.Hold {
		return instr
	}
	if s.AllowShort {
		return s.checkEntryShort(snap, sentiment)
	}
	return hold(snap, s.Name(), "no signal")
}

func crossoverBullish(ind types.Indicators) bool {
	if math.IsNaN(ind.EMAFast) || math.IsNaN(ind.EMASlow) || math.IsNaN(ind.PrevEMAFast) || math.IsNaN(ind.PrevEMASlow) {
		return false
	}
	return ind.PrevEMAFast <= ind.PrevEMASlow && ind.EMAFast > ind.EMASlow
}

func crossoverBearish(ind types.Indicators) bool {
	if math.IsNaN(ind.EMAFast) || math.IsNaN(ind.EMASlow) || math.IsNaN(ind.PrevEMAFast) || math.IsNaN(ind.PrevEMASlow) {
		return false
	}
	return ind.PrevEMAFast >= ind.PrevEMASlow && ind.EMAFast < ind.EMASlow
}

func (s *EMATrend) checkEntryLong(snap *types.MarketSnapshot, sentiment types.SentimentState) types.TradeInstruction {
	price := snap.Bar.Close
	ind := snap.Ind

	if !crossoverBullish(ind) {
		return hold(snap, s.Name(), "no bullish EMA crossover")
	}
	if s.UseVWAPFilter {
		if math.IsNaN(ind.VWAP) || price <= ind.VWAP {
			return hold(snap, s.Name(), fmt.Sprintf("price %.2f not above VWAP %.2f", price, ind.VWAP))
		}
	}
	if s.UseRSIFilter {
		if math.IsNaN(ind.RSI) || ind.RSI < s.RSIThreshold {
			return hold(snap, s.Name(), fmt.Sprintf("RSI %.2f below threshold %.2f", ind.RSI, s.RSIThreshold))
		}
	}
	if sentiment.EventRisky {
		return hold(snap, s.Name(), "risky event flagged: "+sentiment.Rationale)
	}

	stop := stopFor(snap, s.ATRStopMult, true)
	if stop <= 0 {
		return hold(snap, s.Name(), "cannot compute stop loss")
	}
	target := targetFor(price, stop, s.RewardRatio, true)

	return types.TradeInstruction{
		Symbol:     snap.Symbol,
		Strategy:   s.Name(),
		Signal:     types.EntryLong,
		EntryPrice: price,
		StopLoss:   stop,
		Target:     target,
		Reason: fmt.Sprintf("bullish EMA crossover: fast %.2f > slow %.2f, price above VWAP",
			ind.EMAFast, ind.EMASlow),
		At: snap.Time,
	}
}

func (s *EMATrend) checkEntryShort(snap *types.MarketSnapshot, sentiment types.SentimentState) types.TradeInstruction {
	price := snap.Bar.Close
	ind := snap.Ind

	if !crossoverBearish(ind) {
		return hold(snap, s.Name(), "no bearish EMA crossover")
	}
	if s.UseVWAPFilter {
		if math.IsNaN(ind.VWAP) || price >= ind.VWAP {
			return hold(snap, s.Name(), fmt.Sprintf("price %.2f not below VWAP %.2f", price, ind.VWAP))
		}
	}
	if s.UseRSIFilter {
		if math.IsNaN(ind.RSI) || ind.RSI > 100-s.RSIThreshold {
			return hold(snap, s.Name(), fmt.Sprintf("RSI %.2f above threshold %.2f", ind.RSI, 100-s.RSIThreshold))
		}
	}
	if sentiment.EventRisky {
		return hold(snap, s.Name(), "risky event flagged: "+sentiment.Rationale)
	}

	stop := stopFor(snap, s.ATRStopMult, false)
	if stop <= 0 {
		return hold(snap, s.Name(), "cannot compute stop loss")
	}
	target := targetFor(price, stop, s.RewardRatio, false)

	return types.TradeInstruction{
		Symbol:     snap.Symbol,
		Strategy:   s.Name(),
		Signal:     types.EntryShort,
		EntryPrice: price,
		StopLoss:   stop,
		Target:     target,
		Reason: fmt.Sprintf("bearish EMA crossover: fast %.2f < slow %.2f, price below VWAP",
			ind.EMAFast, ind.EMASlow),
		At: snap.Time,
	}
}

func (s *EMATrend) checkExit(snap *types.MarketSnapshot, pos *types.Position) types.TradeInstruction {
	if pos.Direction == types.Long && crossoverBearish(snap.Ind) {
		return exit(snap, s.Name(), "bearish EMA crossover")
	}
	if pos.Direction == types.Short && crossoverBullish(snap.Ind) {
		return exit(snap, s.Name(), "bullish EMA crossover")
	}
	return hold(snap, s.Name(), "holding position")
}

func (s *EMATrend) Parameters() map[string]any {
	return map[string]any{
		"use_vwap_filter": s.UseVWAPFilter,
		"use_rsi_filter":  s.UseRSIFilter,
		"rsi_threshold":   s.RSIThreshold,
		"atr_stop_mult":   s.ATRStopMult,
		"reward_ratio":    s.RewardRatio,
		"allow_short":     s.AllowShort,
	}
}
