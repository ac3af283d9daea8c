package execobs

import (
	"context"

	"intraday-trader/internal/interfaces"
	"intraday-trader/internal/logger"
	"intraday-trader/internal/trace"
	"intraday-trader/internal/types"
)

// observableExecution wraps an Execution with observability (logging & tracing)
type observableExecution struct {
	exec interfaces.Execution
}

// Compile-time interface check
var _ interfaces.Execution = (*observableExecution)(nil)

// Wrap wraps an execution backend with observability middleware
func Wrap(exec interfaces.Execution) interfaces.Execution {
	return &observableExecution{
		exec: exec,
	}
}

func (oe *observableExecution) Submit(ctx context.Context, instr types.TradeInstruction) (types.FillResult, error) {
	ctx, span := trace.StartSpan(ctx, "execution.Submit")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Submitting order",
		"symbol", instr.Symbol,
		"signal", string(instr.Signal),
		"qty", instr.Quantity,
		"strategy", instr.Strategy,
	)

	fill, err := oe.exec.Submit(ctx, instr)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Order submission failed", err,
			"symbol", instr.Symbol,
			"signal", string(instr.Signal),
			"qty", instr.Quantity,
		)
		return types.FillResult{}, err
	}

	logger.InfoSkip(ctx, 1, "Order submitted successfully",
		"symbol", instr.Symbol,
		"order_id", fill.OrderID,
		"filled", fill.Filled,
		"price", fill.Price,
	)
	return fill, nil
}
