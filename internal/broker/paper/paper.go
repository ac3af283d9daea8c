package paper

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"intraday-trader/internal/interfaces"
	"intraday-trader/internal/logger"
	"intraday-trader/internal/types"
)

// Executor simulates fills without touching a broker. Orders fill at the
// instruction's price, which keeps paper sessions reproducible.
type Executor struct {
	seq uint64

	mu      sync.Mutex
	failErr error
}

var _ interfaces.Execution = (*Executor)(nil)

func New() *Executor { return &Executor{} }

// FailWith makes every subsequent Submit fail with err until cleared with
// nil. Used to exercise rejection paths.
func (e *Executor) FailWith(err error) {
	e.mu.Lock()
	e.failErr = err
	e.mu.Unlock()
}

func (e *Executor) Submit(ctx context.Context, instr types.TradeInstruction) (types.FillResult, error) {
	e.mu.Lock()
	failErr := e.failErr
	e.mu.Unlock()
	if failErr != nil {
		return types.FillResult{}, failErr
	}

	id := fmt.Sprintf("PAPER-%d", atomic.AddUint64(&e.seq, 1))
	logger.Debug(ctx, "Simulated fill",
		"order_id", id,
		"symbol", instr.Symbol,
		"signal", string(instr.Signal),
		"qty", instr.Quantity,
		"price", instr.EntryPrice,
	)
	return types.FillResult{
		OrderID: id,
		Price:   instr.EntryPrice,
		Filled:  true,
		Message: "simulated",
	}, nil
}
