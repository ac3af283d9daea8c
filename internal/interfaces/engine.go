package interfaces

import (
	"context"

	"intraday-trader/internal/types"
)

type Engine interface {
	Step(ctx context.Context, snap *types.MarketSnapshot) (*types.CycleResult, error)
}
