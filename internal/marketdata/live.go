package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"intraday-trader/internal/broker/zerodha"
	"intraday-trader/internal/interfaces"
	"intraday-trader/internal/store"
	"intraday-trader/internal/types"
)

// Live adapts the Kite tick stream into the snapshot feed. Next blocks
// polling for a freshly completed bar, and reports end of session once the
// exchange close has passed.
type Live struct {
	cfg    *store.Config
	stream *zerodha.TickerStream
	poll   time.Duration

	mu       sync.Mutex
	lastSeen map[string]int64
}

var _ interfaces.MarketData = (*Live)(nil)

func NewLive(cfg *store.Config, stream *zerodha.TickerStream) *Live {
	return &Live{
		cfg:      cfg,
		stream:   stream,
		poll:     time.Duration(cfg.PollSeconds) * time.Second,
		lastSeen: make(map[string]int64),
	}
}

func (l *Live) Start(ctx context.Context, symbols []string) error {
	if err := l.stream.Start(ctx); err != nil {
		return err
	}
	// give the websocket a moment before subscribing
	time.Sleep(2 * time.Second)
	return l.stream.Subscribe(ctx, symbols)
}

func (l *Live) Stop(ctx context.Context) {
	l.stream.Stop(ctx)
}

func (l *Live) Next(ctx context.Context, symbol string) (*types.MarketSnapshot, error) {
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		if l.pastClose() {
			return nil, interfaces.ErrEndOfSession
		}

		candles, err := l.stream.RecentCandles(symbol, 200)
		if err == nil && len(candles) > 0 {
			last := candles[len(candles)-1]
			l.mu.Lock()
			fresh := last.Ts > l.lastSeen[symbol]
			if fresh {
				l.lastSeen[symbol] = last.Ts
			}
			l.mu.Unlock()
			if fresh {
				at := time.Unix(last.Ts, 0).In(ist)
				return buildSnapshot(l.cfg, symbol, candles, at), nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *Live) pastClose() bool {
	closeT, err := time.Parse("15:04", l.cfg.Session.Close)
	if err != nil {
		return false
	}
	now := time.Now().In(ist)
	closeMin := closeT.Hour()*60 + closeT.Minute()
	return now.Hour()*60+now.Minute() >= closeMin
}

// Describe reports the configured source, used at startup for visibility.
func Describe(cfg *store.Config) string {
	return fmt.Sprintf("%s feed, %dm bars, poll %ds", cfg.DataSource, cfg.Indicators.IntervalMinutes, cfg.PollSeconds)
}
