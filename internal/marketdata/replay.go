package marketdata

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"intraday-trader/internal/interfaces"
	"intraday-trader/internal/logger"
	"intraday-trader/internal/store"
	"intraday-trader/internal/types"
)

var ist = time.FixedZone("IST", 19800)

// Replay serves a full synthetic trading day bar by bar. Series are seeded
// from the symbol name, so every run over the same watchlist replays the
// identical session.
type Replay struct {
	cfg *store.Config

	mu     sync.Mutex
	series map[string][]types.Candle
	cursor map[string]int
}

var _ interfaces.MarketData = (*Replay)(nil)

func NewReplay(cfg *store.Config) *Replay {
	return &Replay{
		cfg:    cfg,
		series: make(map[string][]types.Candle),
		cursor: make(map[string]int),
	}
}

func (r *Replay) Start(ctx context.Context, symbols []string) error {
	open, err := time.Parse("15:04", r.cfg.Session.Open)
	if err != nil {
		return fmt.Errorf("invalid session open '%s': %w", r.cfg.Session.Open, err)
	}
	closeT, err := time.Parse("15:04", r.cfg.Session.Close)
	if err != nil {
		return fmt.Errorf("invalid session close '%s': %w", r.cfg.Session.Close, err)
	}
	sessionMinutes := int(closeT.Sub(open).Minutes())
	bars := sessionMinutes / r.cfg.Indicators.IntervalMinutes

	now := time.Now().In(ist)
	sessionOpen := time.Date(now.Year(), now.Month(), now.Day(), open.Hour(), open.Minute(), 0, 0, ist)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, symbol := range symbols {
		r.series[symbol] = generateDay(symbol, sessionOpen, bars, r.cfg.Indicators.IntervalMinutes)
		r.cursor[symbol] = 0
	}
	logger.Info(ctx, "Replay feed ready", "symbols", symbols, "bars_per_symbol", bars)
	return nil
}

func (r *Replay) Stop(ctx context.Context) {}

func (r *Replay) Next(ctx context.Context, symbol string) (*types.MarketSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	series, ok := r.series[symbol]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("symbol %s not started", symbol)
	}
	i := r.cursor[symbol]
	if i >= len(series) {
		r.mu.Unlock()
		return nil, interfaces.ErrEndOfSession
	}
	r.cursor[symbol] = i + 1
	window := series[:i+1]
	r.mu.Unlock()

	at := time.Unix(window[i].Ts, 0).In(ist)
	return buildSnapshot(r.cfg, symbol, window, at), nil
}

// generateDay produces a deterministic random-walk session for a symbol.
func generateDay(symbol string, open time.Time, bars, intervalMinutes int) []types.Candle {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	price := 500 + float64(h.Sum64()%2000)
	out := make([]types.Candle, 0, bars)
	for i := 0; i < bars; i++ {
		drift := (rng.Float64() - 0.48) * price * 0.002
		o := price
		c := price + drift
		hi := max(o, c) + rng.Float64()*price*0.001
		lo := min(o, c) - rng.Float64()*price*0.001
		vol := 80000 + rng.Float64()*60000
		if rng.Float64() < 0.07 {
			vol *= 2.5 // occasional volume burst
		}
		out = append(out, types.Candle{
			Ts:    open.Add(time.Duration(i*intervalMinutes) * time.Minute).Unix(),
			Open:  o,
			High:  hi,
			Low:   lo,
			Close: c,
			Vol:   vol,
		})
		price = c
	}
	return out
}
