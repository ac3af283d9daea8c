package interfaces

import (
	"context"
	"errors"

	"intraday-trader/internal/types"
)

// ErrEndOfSession is returned by MarketData.Next when no more snapshots
// will be produced for the current session.
var ErrEndOfSession = errors.New("end of session")

// MarketData yields the next snapshot for a symbol. Bars arrive in
// increasing timestamp order per symbol.
type MarketData interface {
	Next(ctx context.Context, symbol string) (*types.MarketSnapshot, error)
	Start(ctx context.Context, symbols []string) error
	Stop(ctx context.Context)
}
