package advisory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"intraday-trader/internal/types"
)

func TestNeutralDefaults(t *testing.T) {
	n := Neutral{}
	ctx := context.Background()

	regime := n.Regime(ctx, "RELIANCE")
	if regime.Regime != types.RegimeUnknown || regime.Confidence != 0 {
		t.Errorf("unexpected neutral regime: %+v", regime)
	}
	sentiment := n.Sentiment(ctx, "RELIANCE")
	if sentiment.Score != 0 || sentiment.EventRisky {
		t.Errorf("unexpected neutral sentiment: %+v", sentiment)
	}
	bias := n.Bias(ctx)
	if bias.Stance != "moderate" || bias.Multiplier != 1.0 {
		t.Errorf("unexpected neutral bias: %+v", bias)
	}
}

func TestFileMissingDegradesToNeutral(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "nope.json"))
	ctx := context.Background()

	if got := f.Regime(ctx, "RELIANCE"); got.Regime != types.RegimeUnknown {
		t.Errorf("expected UNKNOWN regime, got %+v", got)
	}
	if got := f.Bias(ctx); got.Stance != "moderate" {
		t.Errorf("expected moderate bias, got %+v", got)
	}
}

func TestFileMalformedDegradesToNeutral(t *testing.T) {
	path := filepath.Join(t.TempDir(), "advisory.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := NewFile(path)

	if got := f.Sentiment(context.Background(), "TCS"); got.Score != 0 {
		t.Errorf("expected neutral sentiment, got %+v", got)
	}
}

func TestFileServesAdvisories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "advisory.json")
	doc := `{
		"bias": {"stance": "defensive", "multiplier": 0.5, "confidence": 0.8},
		"regimes": {"RELIANCE": {"regime": "TRENDING", "confidence": 0.9}},
		"sentiment": {"RELIANCE": {"score": -0.6, "event_risky": true, "confidence": 0.7, "rationale": "earnings today"}}
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	f := NewFile(path)
	ctx := context.Background()

	regime := f.Regime(ctx, "RELIANCE")
	if regime.Regime != types.Trending || regime.Confidence != 0.9 {
		t.Errorf("unexpected regime: %+v", regime)
	}
	sentiment := f.Sentiment(ctx, "RELIANCE")
	if !sentiment.EventRisky || sentiment.Score != -0.6 {
		t.Errorf("unexpected sentiment: %+v", sentiment)
	}
	bias := f.Bias(ctx)
	if bias.Stance != "defensive" {
		t.Errorf("unexpected bias: %+v", bias)
	}

	// unlisted symbols stay neutral
	if got := f.Regime(ctx, "TCS"); got.Regime != types.RegimeUnknown {
		t.Errorf("expected neutral regime for unlisted symbol, got %+v", got)
	}
}
