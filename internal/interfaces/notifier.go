package interfaces

import (
	"context"

	"intraday-trader/internal/types"
)

// Notifier receives read-only engine events. Calls are fire-and-forget:
// failures are the sink's problem and must never affect engine state.
type Notifier interface {
	EntryAccepted(ctx context.Context, pos types.Position, reason string)
	ExitRealized(ctx context.Context, trade types.Trade)
	KillSwitchTripped(ctx context.Context, reason string)
	SessionSummary(ctx context.Context, snap types.PortfolioSnapshot)
}
