package strategy

import (
	"fmt"
	"math"

	"intraday-trader/internal/store"
	"intraday-trader/internal/types"
)

// Strategy is a pure evaluator: identical inputs always yield an identical
// instruction. Implementations hold parameters only, never state.
//
// When pos is non-nil and owned by the strategy, the result is EXIT or HOLD,
// never a second entry.
type Strategy interface {
	Name() string
	Evaluate(snap *types.MarketSnapshot, pos *types.Position, regime types.RegimeState, sentiment types.SentimentState) types.TradeInstruction
	Parameters() map[string]any
}

// BuildFromConfig instantiates the enabled strategies in priority order.
// The returned slice order IS the conflict-resolution order.
func BuildFromConfig(cfg *store.Config) ([]Strategy, error) {
	out := make([]Strategy, 0, len(cfg.Strategies.Priority))
	for _, name := range cfg.Strategies.Priority {
		switch name {
		case "orb_supertrend":
			p := cfg.Strategies.ORB
			out = append(out, &ORBSupertrend{
				VolumeMultiplier: p.VolumeMultiplier,
				RSIThreshold:     p.RSIThreshold,
				ATRStopMult:      p.ATRStopMult,
				RewardRatio:      p.RewardRatio,
			})
		case "ema_trend":
			p := cfg.Strategies.EMA
			out = append(out, &EMATrend{
				UseVWAPFilter: p.UseVWAPFilter,
				UseRSIFilter:  p.UseRSIFilter,
				RSIThreshold:  p.RSIThreshold,
				ATRStopMult:   p.ATRStopMult,
				RewardRatio:   p.RewardRatio,
				AllowShort:    p.AllowShort,
			})
		case "vwap_reversion":
			p := cfg.Strategies.VWAP
			out = append(out, &VWAPReversion{
				DeviationPct:  p.DeviationPct,
				RSIOversold:   p.RSIOversold,
				RSIOverbought: p.RSIOverbought,
				ATRStopMult:   p.ATRStopMult,
				RewardRatio:   p.RewardRatio,
			})
		default:
			return nil, fmt.Errorf("unknown strategy '%s'", name)
		}
	}
	return out, nil
}

func hold(snap *types.MarketSnapshot, name, reason string) types.TradeInstruction {
	return types.TradeInstruction{
		Symbol:   snap.Symbol,
		Strategy: name,
		Signal:   types.Hold,
		Reason:   reason,
		At:       snap.Time,
	}
}

func exit(snap *types.MarketSnapshot, name, reason string) types.TradeInstruction {
	return types.TradeInstruction{
		Symbol:     snap.Symbol,
		Strategy:   name,
		Signal:     types.Exit,
		EntryPrice: snap.Bar.Close,
		Reason:     reason,
		ExitReason: types.SignalExit,
		At:         snap.Time,
	}
}

// stopFor picks a swing-level stop when one exists on the protective side,
// otherwise falls back to an ATR stop. Returns 0 when neither is computable.
func stopFor(snap *types.MarketSnapshot, atrMult float64, long bool) float64 {
	price := snap.Bar.Close
	if long {
		if sl := snap.Ind.SwingLow; sl > 0 && sl < price {
			return sl
		}
		if atr := snap.Ind.ATR; atr > 0 && !math.IsNaN(atr) {
			return price - atrMult*atr
		}
		return 0
	}
	if sh := snap.Ind.SwingHigh; sh > 0 && sh > price {
		return sh
	}
	if atr := snap.Ind.ATR; atr > 0 && !math.IsNaN(atr) {
		return price + atrMult*atr
	}
	return 0
}

func targetFor(entry, stop, rewardRatio float64, long bool) float64 {
	risk := math.Abs(entry - stop)
	if long {
		return entry + risk*rewardRatio
	}
	return entry - risk*rewardRatio
}

// ownedBy reports whether the evaluator should run in exit-only mode.
func ownedBy(pos *types.Position, name string) bool {
	return pos != nil && pos.Strategy == name
}
