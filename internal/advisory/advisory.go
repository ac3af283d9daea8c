package advisory

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"intraday-trader/internal/interfaces"
	"intraday-trader/internal/logger"
	"intraday-trader/internal/types"
)

// Neutral returns safe defaults for every advisory concern. Used whenever no
// advisory source is configured, so the engine trades as if no extra
// information were available.
type Neutral struct{}

var (
	_ interfaces.RegimeClassifier  = Neutral{}
	_ interfaces.SentimentAnalyzer = Neutral{}
	_ interfaces.BiasProvider      = Neutral{}
)

func (Neutral) Regime(_ context.Context, _ string) types.RegimeState { return types.NeutralRegime() }
func (Neutral) Sentiment(_ context.Context, _ string) types.SentimentState {
	return types.NeutralSentiment()
}
func (Neutral) Bias(_ context.Context) types.MarketBias { return types.NeutralBias() }

// fileDoc is the on-disk advisory format an external analysis pipeline
// writes. Missing symbols or fields fall back to neutral.
type fileDoc struct {
	Bias      types.MarketBias                `json:"bias"`
	Regimes   map[string]types.RegimeState    `json:"regimes"`
	Sentiment map[string]types.SentimentState `json:"sentiment"`
}

// File serves advisories from a JSON file, re-reading it when its mtime
// changes. A missing or malformed file degrades to neutral, never to an
// error.
type File struct {
	path string

	mu      sync.Mutex
	modTime time.Time
	doc     fileDoc
}

var (
	_ interfaces.RegimeClassifier  = (*File)(nil)
	_ interfaces.SentimentAnalyzer = (*File)(nil)
	_ interfaces.BiasProvider      = (*File)(nil)
)

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) load(ctx context.Context) fileDoc {
	f.mu.Lock()
	defer f.mu.Unlock()

	info, err := os.Stat(f.path)
	if err != nil {
		return fileDoc{}
	}
	if info.ModTime().Equal(f.modTime) {
		return f.doc
	}

	b, err := os.ReadFile(f.path)
	if err != nil {
		return fileDoc{}
	}
	var doc fileDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		logger.Warn(ctx, "advisory file unreadable, using neutral", "path", f.path, "error", err.Error())
		return fileDoc{}
	}
	f.modTime = info.ModTime()
	f.doc = doc
	logger.Info(ctx, "advisory file loaded",
		"path", f.path,
		"bias", doc.Bias.Stance,
		"regimes", len(doc.Regimes),
	)
	return doc
}

func (f *File) Regime(ctx context.Context, symbol string) types.RegimeState {
	doc := f.load(ctx)
	if state, ok := doc.Regimes[symbol]; ok && state.Regime != "" {
		return state
	}
	return types.NeutralRegime()
}

func (f *File) Sentiment(ctx context.Context, symbol string) types.SentimentState {
	doc := f.load(ctx)
	if state, ok := doc.Sentiment[symbol]; ok {
		return state
	}
	return types.NeutralSentiment()
}

func (f *File) Bias(ctx context.Context) types.MarketBias {
	doc := f.load(ctx)
	if doc.Bias.Stance == "" {
		return types.NeutralBias()
	}
	return doc.Bias
}
