package engineobs

import (
	"context"
	"time"

	"intraday-trader/internal/interfaces"
	"intraday-trader/internal/logger"
	"intraday-trader/internal/trace"
	"intraday-trader/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

// Wrap adds a span and cycle timing around every Step call.
func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{
		engine: eng,
	}
}

func (oe *observableEngine) Step(ctx context.Context, snap *types.MarketSnapshot) (*types.CycleResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Step")
	defer span.End()

	start := time.Now()

	logger.Debug(ctx, "Starting evaluation cycle",
		"symbol", snap.Symbol,
		"price", snap.Bar.Close,
	)

	result, err := oe.engine.Step(ctx, snap)
	if err != nil {
		logger.ErrorWithErr(ctx, "Evaluation cycle failed", err,
			"symbol", snap.Symbol,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.Debug(ctx, "Evaluation cycle completed",
		"symbol", snap.Symbol,
		"accepted", result.Accepted,
		"reason", result.Reason,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}
