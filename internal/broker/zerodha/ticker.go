package zerodha

import (
	"context"
	"fmt"
	"sync"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
	"github.com/zerodha/gokiteconnect/v4/models"
	kiteticker "github.com/zerodha/gokiteconnect/v4/ticker"

	"intraday-trader/internal/logger"
	"intraday-trader/internal/types"
)

const maxCandlesPerSymbol = 200

// TickerStream subscribes to the Kite WebSocket feed and aggregates ticks
// into fixed-interval candles per symbol.
type TickerStream struct {
	apiKey      string
	accessToken string
	interval    time.Duration

	ticker *kiteticker.Ticker

	mu            sync.RWMutex
	candles       map[string][]types.Candle
	building      map[string]*types.Candle
	tokenToSymbol map[uint32]string
	symbolToToken map[string]uint32
}

func NewTickerStream(apiKey, accessToken string, intervalMinutes int) *TickerStream {
	return &TickerStream{
		apiKey:        apiKey,
		accessToken:   accessToken,
		interval:      time.Duration(intervalMinutes) * time.Minute,
		candles:       make(map[string][]types.Candle),
		building:      make(map[string]*types.Candle),
		tokenToSymbol: make(map[uint32]string),
		symbolToToken: make(map[string]uint32),
	}
}

func (ts *TickerStream) Start(ctx context.Context) error {
	ts.ticker = kiteticker.New(ts.apiKey, ts.accessToken)

	ts.ticker.OnConnect(ts.onConnect)
	ts.ticker.OnError(ts.onError)
	ts.ticker.OnClose(ts.onClose)
	ts.ticker.OnReconnect(ts.onReconnect)
	ts.ticker.OnNoReconnect(ts.onNoReconnect)
	ts.ticker.OnTick(ts.onTick)
	ts.ticker.OnOrderUpdate(ts.onOrderUpdate)

	go func() {
		logger.Info(ctx, "Starting Kite WebSocket ticker")
		ts.ticker.Serve()
	}()
	return nil
}

func (ts *TickerStream) Stop(ctx context.Context) {
	if ts.ticker != nil {
		logger.Info(ctx, "Stopping Kite WebSocket ticker")
		ts.ticker.Stop()
	}
}

func (ts *TickerStream) Subscribe(ctx context.Context, symbols []string) error {
	tokens := make([]uint32, 0, len(symbols))
	ts.mu.Lock()
	for _, symbol := range symbols {
		token := instrumentToken(symbol)
		ts.tokenToSymbol[token] = symbol
		ts.symbolToToken[symbol] = token
		ts.candles[symbol] = make([]types.Candle, 0, maxCandlesPerSymbol)
		tokens = append(tokens, token)
	}
	ts.mu.Unlock()

	if err := ts.ticker.Subscribe(tokens); err != nil {
		return fmt.Errorf("subscribing to %d tokens: %w", len(tokens), err)
	}
	if err := ts.ticker.SetMode(kiteticker.ModeFull, tokens); err != nil {
		return fmt.Errorf("setting ticker mode: %w", err)
	}
	logger.Info(ctx, "Subscribed to live feed", "symbols", symbols)
	return nil
}

// RecentCandles returns up to n completed candles, oldest first.
func (ts *TickerStream) RecentCandles(symbol string, n int) ([]types.Candle, error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	cs, ok := ts.candles[symbol]
	if !ok {
		return nil, fmt.Errorf("not subscribed to %s", symbol)
	}
	if len(cs) == 0 {
		return nil, fmt.Errorf("no candles yet for %s", symbol)
	}
	if len(cs) < n {
		n = len(cs)
	}
	out := make([]types.Candle, n)
	copy(out, cs[len(cs)-n:])
	return out, nil
}

func (ts *TickerStream) onTick(tick models.Tick) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	symbol, ok := ts.tokenToSymbol[tick.InstrumentToken]
	if !ok {
		return
	}

	bucket := tick.Timestamp.Time.Truncate(ts.interval).Unix()
	cur := ts.building[symbol]
	if cur == nil || cur.Ts != bucket {
		if cur != nil {
			ts.appendCandle(symbol, *cur)
		}
		ts.building[symbol] = &types.Candle{
			Ts:    bucket,
			Open:  tick.LastPrice,
			High:  tick.LastPrice,
			Low:   tick.LastPrice,
			Close: tick.LastPrice,
			Vol:   float64(tick.VolumeTraded),
		}
		return
	}

	if tick.LastPrice > cur.High {
		cur.High = tick.LastPrice
	}
	if tick.LastPrice < cur.Low {
		cur.Low = tick.LastPrice
	}
	cur.Close = tick.LastPrice
	cur.Vol = float64(tick.VolumeTraded)
}

// appendCandle must be called with the lock held.
func (ts *TickerStream) appendCandle(symbol string, c types.Candle) {
	cs := append(ts.candles[symbol], c)
	if len(cs) > maxCandlesPerSymbol {
		cs = cs[1:]
	}
	ts.candles[symbol] = cs
}

func (ts *TickerStream) onConnect() {
	logger.Info(context.Background(), "WebSocket connected")
}

func (ts *TickerStream) onError(err error) {
	logger.ErrorWithErr(context.Background(), "WebSocket error", err)
}

func (ts *TickerStream) onClose(code int, reason string) {
	logger.Warn(context.Background(), "WebSocket closed", "code", code, "reason", reason)
}

func (ts *TickerStream) onReconnect(attempt int, delay time.Duration) {
	logger.Info(context.Background(), "WebSocket reconnecting", "attempt", attempt, "delay", delay)
}

func (ts *TickerStream) onNoReconnect(attempt int) {
	logger.Warn(context.Background(), "WebSocket reconnection abandoned", "attempts", attempt)
}

func (ts *TickerStream) onOrderUpdate(order kiteconnect.Order) {
	logger.Debug(context.Background(), "Order update",
		"order_id", order.OrderID,
		"status", order.Status,
		"symbol", order.TradingSymbol,
	)
}
