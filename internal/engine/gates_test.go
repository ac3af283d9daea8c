package engine

import (
	"testing"

	"intraday-trader/internal/store"
	"intraday-trader/internal/types"
)

func gatesFixture() *Gates {
	cfg := &store.Config{}
	cfg.Gates.MinRegimeConfidence = 0.6
	cfg.Gates.LowConfidenceScale = 0.5
	cfg.Gates.ContraSentimentScale = 0.5
	cfg.Gates.ContraSentimentCutoff = -0.5
	return NewGates(cfg)
}

func gateEntry() types.TradeInstruction {
	return types.TradeInstruction{
		Symbol:     "RELIANCE",
		Strategy:   "orb_supertrend",
		Signal:     types.EntryLong,
		EntryPrice: 2450,
		StopLoss:   2430,
		Target:     2480,
	}
}

func TestGatesFullScaleWhenConfident(t *testing.T) {
	g := gatesFixture()
	regime := types.RegimeState{Regime: types.Trending, Confidence: 0.9}

	got := g.Apply(gateEntry(), regime, types.NeutralSentiment())
	if got.Signal != types.EntryLong {
		t.Fatalf("expected entry to pass, got %s", got.Signal)
	}
	if got.GateScale != 1.0 {
		t.Errorf("expected gate scale 1.0, got %.2f", got.GateScale)
	}
}

func TestGatesLowRegimeConfidenceScales(t *testing.T) {
	g := gatesFixture()
	regime := types.RegimeState{Regime: types.RegimeUnknown, Confidence: 0.2}

	got := g.Apply(gateEntry(), regime, types.NeutralSentiment())
	if got.Signal != types.EntryLong {
		t.Fatalf("low confidence scales, never vetoes: got %s", got.Signal)
	}
	if got.GateScale != 0.5 {
		t.Errorf("expected gate scale 0.5, got %.2f", got.GateScale)
	}
}

func TestGatesRiskyEventVetoes(t *testing.T) {
	g := gatesFixture()
	regime := types.RegimeState{Regime: types.Trending, Confidence: 0.9}
	sentiment := types.SentimentState{EventRisky: true, Rationale: "RBI policy decision"}

	got := g.Apply(gateEntry(), regime, sentiment)
	if got.Signal != types.Hold {
		t.Errorf("expected veto to HOLD, got %s", got.Signal)
	}
}

func TestGatesContraSentimentScales(t *testing.T) {
	g := gatesFixture()
	regime := types.RegimeState{Regime: types.Trending, Confidence: 0.9}
	sentiment := types.SentimentState{Score: -0.7}

	got := g.Apply(gateEntry(), regime, sentiment)
	if got.Signal != types.EntryLong {
		t.Fatalf("contra sentiment scales, never vetoes: got %s", got.Signal)
	}
	if got.GateScale != 0.5 {
		t.Errorf("expected gate scale 0.5, got %.2f", got.GateScale)
	}
}

func TestGatesScalesCompound(t *testing.T) {
	g := gatesFixture()
	regime := types.RegimeState{Regime: types.RegimeUnknown, Confidence: 0.1}
	sentiment := types.SentimentState{Score: -0.8}

	got := g.Apply(gateEntry(), regime, sentiment)
	if got.GateScale != 0.25 {
		t.Errorf("expected compounded gate scale 0.25, got %.2f", got.GateScale)
	}
	if got.GateScale <= 0 || got.GateScale > 1 {
		t.Errorf("gate scale out of (0,1]: %.2f", got.GateScale)
	}
}

func TestGatesShortContraIsPositiveSentiment(t *testing.T) {
	g := gatesFixture()
	regime := types.RegimeState{Regime: types.Trending, Confidence: 0.9}

	short := gateEntry()
	short.Signal = types.EntryShort
	short.StopLoss, short.Target = 2480, 2420

	got := g.Apply(short, regime, types.SentimentState{Score: 0.7})
	if got.GateScale != 0.5 {
		t.Errorf("bullish sentiment should scale a short entry, got scale %.2f", got.GateScale)
	}
}

func TestGatesExitsPassUntouched(t *testing.T) {
	g := gatesFixture()
	regime := types.RegimeState{Regime: types.RegimeUnknown, Confidence: 0}
	sentiment := types.SentimentState{EventRisky: true}

	exitInstr := types.TradeInstruction{Symbol: "RELIANCE", Signal: types.Exit, ExitReason: types.SignalExit}
	got := g.Apply(exitInstr, regime, sentiment)
	if got.Signal != types.Exit {
		t.Errorf("exit must never be gated, got %s", got.Signal)
	}
	if got.GateScale != 0 {
		t.Errorf("exit should pass through unmodified, gate scale %.2f", got.GateScale)
	}
}
