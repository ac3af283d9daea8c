package interfaces

import (
	"context"

	"intraday-trader/internal/types"
)

// Advisory providers refresh on their own schedule and are read as
// of-the-moment values. Implementations must return neutral states when
// no classification is available, never an error.
type RegimeClassifier interface {
	Regime(ctx context.Context, symbol string) types.RegimeState
}

type SentimentAnalyzer interface {
	Sentiment(ctx context.Context, symbol string) types.SentimentState
}

type BiasProvider interface {
	Bias(ctx context.Context) types.MarketBias
}
