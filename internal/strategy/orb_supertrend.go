package strategy

import (
	"fmt"
	"math"

	"intraday-trader/internal/types"
)

// ORBSupertrend enters long when price breaks the opening-range high with a
// bullish supertrend, elevated volume and strong RSI. Exits when supertrend
// flips bearish.
type ORBSupertrend struct {
	VolumeMultiplier float64
	RSIThreshold     float64
	ATRStopMult      float64
	RewardRatio      float64
}

func (s *ORBSupertrend) Name() string { return "orb_supertrend" }

func (s *ORBSupertrend) Evaluate(snap *types.MarketSnapshot, pos *types.Position, regime types.RegimeState, sentiment types.SentimentState) types.TradeInstruction {
	if pos != nil {
		if !ownedBy(pos, s.Name()) {
			return hold(snap, s.Name(), "position held by another strategy")
		}
		return s.checkExit(snap)
	}
	return s.checkEntry(snap, sentiment)
}

func (s *ORBSupertrend) checkEntry(snap *types.MarketSnapshot, sentiment types.SentimentState) types.TradeInstruction {
	price := snap.Bar.Close
	ind := snap.Ind

	if ind.ORBHigh == 0 || ind.ORBLow == 0 {
		return hold(snap, s.Name(), "opening range not yet established")
	}
	if price <= ind.ORBHigh {
		return hold(snap, s.Name(), fmt.Sprintf("price %.2f has not broken ORB high %.2f", price, ind.ORBHigh))
	}
	if !ind.SupertrendBullish {
		return hold(snap, s.Name(), "supertrend is not bullish")
	}
	if math.IsNaN(ind.VolumeRatio) || ind.VolumeRatio < s.VolumeMultiplier {
		return hold(snap, s.Name(), fmt.Sprintf("volume ratio %.2f below threshold %.2f", ind.VolumeRatio, s.VolumeMultiplier))
	}
	if math.IsNaN(ind.RSI) || ind.RSI < s.RSIThreshold {
		return hold(snap, s.Name(), fmt.Sprintf("RSI %.2f below threshold %.2f", ind.RSI, s.RSIThreshold))
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
		Reason: fmt.Sprintf("ORB breakout: price %.2f > ORB high %.2f, supertrend bullish, volume ratio %.2f, RSI %.2f",
			price, ind.ORBHigh, ind.VolumeRatio, ind.RSI),
		At: snap.Time,
	}
}

func (s *ORBSupertrend) checkExit(snap *types.MarketSnapshot) types.TradeInstruction {
	if !snap.Ind.SupertrendBullish {
		return exit(snap, s.Name(), "supertrend turned bearish")
	}
	return hold(snap, s.Name(), "holding position")
}

func (s *ORBSupertrend) Parameters() map[string]any {
	return map[string]any{
		"volume_multiplier": s.VolumeMultiplier,
		"rsi_threshold":     s.RSIThreshold,
		"atr_stop_mult":     s.ATRStopMult,
		"reward_ratio":      s.RewardRatio,
	}
}
