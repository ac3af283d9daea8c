package interfaces

import (
	"context"

	"intraday-trader/internal/types"
)

// Execution submits accepted instructions to the broker. Delivery is
// at-least-once; duplicate submissions are screened out upstream by the
// validator's open-position rule.
type Execution interface {
	Submit(ctx context.Context, instr types.TradeInstruction) (types.FillResult, error)
}
