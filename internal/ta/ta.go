package ta

import "math"

func SMA(vals []float64, n int) float64 {
	if len(vals) < n || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(vals) - n; i < len(vals); i++ {
		sum += vals[i]
	}
	return sum / float64(n)
}

// EMASeries returns the full EMA series, seeded with an SMA over the first
// n values. Entries before index n-1 are NaN.
func EMASeries(closes []float64, n int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(closes) < n || n <= 0 {
		return out
	}
	seed := 0.0
	for i := 0; i < n; i++ {
		seed += closes[i]
	}
	seed /= float64(n)
	out[n-1] = seed
	k := 2.0 / float64(n+1)
	for i := n; i < len(closes); i++ {
		out[i] = closes[i]*k + out[i-1]*(1-k)
	}
	return out
}

func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 || period <= 0 {
		return math.NaN()
	}
	gain, loss := 0.0, 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if loss == 0 {
		return 100.0
	}
	rs := (gain / float64(period)) / (loss / float64(period))
	return 100.0 - (100.0 / (1.0 + rs))
}

func ATR(highs, lows, closes []float64, period int) float64 {
	if len(highs) != len(lows) || len(lows) != len(closes) {
		return math.NaN()
	}
	n := period
	if len(closes) < n+1 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - n; i < len(closes); i++ {
		tr1 := highs[i] - lows[i]
		tr2 := math.Abs(highs[i] - closes[i-1])
		tr3 := math.Abs(lows[i] - closes[i-1])
		sum += math.Max(tr1, math.Max(tr2, tr3))
	}
	return sum / float64(n)
}

// VWAP is the volume-weighted average price over the given bars, anchored
// at the first bar (callers pass session-only history).
func VWAP(highs, lows, closes, vols []float64) float64 {
	if len(closes) == 0 || len(highs) != len(closes) || len(lows) != len(closes) || len(vols) != len(closes) {
		return math.NaN()
	}
	pv, v := 0.0, 0.0
	for i := range closes {
		typical := (highs[i] + lows[i] + closes[i]) / 3.0
		pv += typical * vols[i]
		v += vols[i]
	}
	if v == 0 {
		return math.NaN()
	}
	return pv / v
}

// VolumeRatio compares the last bar's volume to the average of the n bars
// before it.
func VolumeRatio(vols []float64, n int) float64 {
	if len(vols) < n+1 || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(vols) - n - 1; i < len(vols)-1; i++ {
		sum += vols[i]
	}
	avg := sum / float64(n)
	if avg == 0 {
		return math.NaN()
	}
	return vols[len(vols)-1] / avg
}

// SupertrendBullish computes the supertrend direction on the last bar.
// Bands are (H+L)/2 +/- mult*ATR with the usual trailing band logic.
func SupertrendBullish(highs, lows, closes []float64, period int, mult float64) bool {
	if len(closes) < period+2 || len(highs) != len(closes) || len(lows) != len(closes) {
		return false
	}

	atrAt := func(i int) float64 {
		if i < period {
			return math.NaN()
		}
		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			tr1 := highs[j] - lows[j]
			tr2 := math.Abs(highs[j] - closes[j-1])
			tr3 := math.Abs(lows[j] - closes[j-1])
			sum += math.Max(tr1, math.Max(tr2, tr3))
		}
		return sum / float64(period)
	}

	upper := make([]float64, len(closes))
	lower := make([]float64, len(closes))
	bullish := true
	for i := period; i < len(closes); i++ {
		atr := atrAt(i)
		mid := (highs[i] + lows[i]) / 2.0
		basicUpper := mid + mult*atr
		basicLower := mid - mult*atr

		if i == period {
			upper[i] = basicUpper
			lower[i] = basicLower
			bullish = closes[i] > mid
			continue
		}

		if basicUpper < upper[i-1] || closes[i-1] > upper[i-1] {
			upper[i] = basicUpper
		} else {
			upper[i] = upper[i-1]
		}
		if basicLower > lower[i-1] || closes[i-1] < lower[i-1] {
			lower[i] = basicLower
		} else {
			lower[i] = lower[i-1]
		}

		if bullish && closes[i] < lower[i] {
			bullish = false
		} else if !bullish && closes[i] > upper[i] {
			bullish = true
		}
	}
	return bullish
}

// ORBLevels returns the high/low of the first orbBars bars of the session.
// Returns zeros until the opening range is complete.
func ORBLevels(highs, lows []float64, orbBars int) (high, low float64) {
	if orbBars <= 0 || len(highs) < orbBars || len(lows) < orbBars {
		return 0, 0
	}
	high, low = highs[0], lows[0]
	for i := 1; i < orbBars; i++ {
		if highs[i] > high {
			high = highs[i]
		}
		if lows[i] < low {
			low = lows[i]
		}
	}
	return high, low
}

// SwingLevels returns the highest high and lowest low of the last lookback
// bars, excluding the current bar.
func SwingLevels(highs, lows []float64, lookback int) (swingHigh, swingLow float64) {
	if lookback <= 0 || len(highs) < lookback+1 || len(lows) < lookback+1 {
		return 0, 0
	}
	start := len(highs) - lookback - 1
	swingHigh, swingLow = highs[start], lows[start]
	for i := start + 1; i < len(highs)-1; i++ {
		if highs[i] > swingHigh {
			swingHigh = highs[i]
		}
		if lows[i] < swingLow {
			swingLow = lows[i]
		}
	}
	return swingHigh, swingLow
}
