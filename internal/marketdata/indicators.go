package marketdata

import (
	"math"
	"time"

	"intraday-trader/internal/store"
	"intraday-trader/internal/ta"
	"intraday-trader/internal/types"
)

// buildSnapshot derives the full indicator set from session-anchored candle
// history. candles must start at the session open so VWAP and the opening
// range anchor correctly.
func buildSnapshot(cfg *store.Config, symbol string, candles []types.Candle, at time.Time) *types.MarketSnapshot {
	n := len(candles)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	vols := make([]float64, n)
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
		closes[i] = c.Close
		vols[i] = c.Vol
	}

	p := cfg.Indicators
	fast := ta.EMASeries(closes, p.EMAFast)
	slow := ta.EMASeries(closes, p.EMASlow)

	prev := func(series []float64) float64 {
		if len(series) < 2 {
			return math.NaN()
		}
		return series[len(series)-2]
	}
	last := func(series []float64) float64 {
		if len(series) == 0 {
			return math.NaN()
		}
		return series[len(series)-1]
	}

	orbBars := 0
	if p.IntervalMinutes > 0 {
		orbBars = p.ORBMinutes / p.IntervalMinutes
	}
	orbHigh, orbLow := ta.ORBLevels(highs, lows, orbBars)
	swingHigh, swingLow := ta.SwingLevels(highs, lows, p.SwingLookback)

	return &types.MarketSnapshot{
		Symbol: symbol,
		Time:   at,
		Bar:    candles[n-1],
		Ind: types.Indicators{
			EMAFast:           last(fast),
			EMASlow:           last(slow),
			PrevEMAFast:       prev(fast),
			PrevEMASlow:       prev(slow),
			VWAP:              ta.VWAP(highs, lows, closes, vols),
			ATR:               ta.ATR(highs, lows, closes, p.ATRPeriod),
			RSI:               ta.RSI(closes, p.RSIPeriod),
			VolumeRatio:       ta.VolumeRatio(vols, p.VolumeWindow),
			SupertrendBullish: ta.SupertrendBullish(highs, lows, closes, p.SupertrendPeriod, p.SupertrendMultiplier),
			ORBHigh:           orbHigh,
			ORBLow:            orbLow,
			SwingHigh:         swingHigh,
			SwingLow:          swingLow,
		},
	}
}
