package engine

import (
	"strings"
	"testing"

	"intraday-trader/internal/store"
	"intraday-trader/internal/types"
)

func sizerConfig() *store.Config {
	cfg := &store.Config{Capital: 100000}
	cfg.Risk.MaxRiskPerTrade = 0.02
	cfg.Bias.Multipliers = map[string]float64{
		"aggressive":   1.2,
		"moderate":     1.0,
		"conservative": 0.7,
		"defensive":    0.5,
	}
	return cfg
}

func entryInstr(entry, stop float64) *types.TradeInstruction {
	return &types.TradeInstruction{
		Symbol:     "RELIANCE",
		Strategy:   "orb_supertrend",
		Signal:     types.EntryLong,
		EntryPrice: entry,
		StopLoss:   stop,
		Target:     entry + 2*(entry-stop),
		GateScale:  1.0,
	}
}

func TestSizerQuantity(t *testing.T) {
	s := NewSizer(sizerConfig())
	instr := entryInstr(2450, 2430)

	// 100000 * 0.02 * 1.0 * 1.0 / 20 = 100
	if err := s.Size(instr, types.NeutralBias()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if instr.Quantity != 100 {
		t.Errorf("expected quantity 100, got %d", instr.Quantity)
	}
}

func TestSizerFloorsQuantity(t *testing.T) {
	s := NewSizer(sizerConfig())
	instr := entryInstr(2450, 2427) // per-share risk 23 -> 86.95 -> 86

	if err := s.Size(instr, types.NeutralBias()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if instr.Quantity != 86 {
		t.Errorf("expected quantity floored to 86, got %d", instr.Quantity)
	}
}

func TestSizerBiasAndGateScale(t *testing.T) {
	s := NewSizer(sizerConfig())
	instr := entryInstr(2450, 2430)
	instr.GateScale = 0.5

	bias := types.MarketBias{Stance: "defensive", Multiplier: 0.5}
	// 100000 * 0.02 * 0.5 * 0.5 / 20 = 25
	if err := s.Size(instr, bias); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if instr.Quantity != 25 {
		t.Errorf("expected quantity 25, got %d", instr.Quantity)
	}
}

func TestSizerRejectsZeroRisk(t *testing.T) {
	s := NewSizer(sizerConfig())
	instr := entryInstr(2450, 2450)

	err := s.Size(instr, types.NeutralBias())
	if err == nil {
		t.Fatal("expected rejection for zero per-share risk")
	}
	if !strings.HasPrefix(err.Error(), "zero_risk") {
		t.Errorf("expected zero_risk reason, got: %v", err)
	}
}

func TestSizerRejectsSubShareQuantity(t *testing.T) {
	s := NewSizer(sizerConfig())
	instr := entryInstr(50000, 47000) // per-share risk 3000 > 2000 budget

	err := s.Size(instr, types.NeutralBias())
	if err == nil {
		t.Fatal("expected rejection when budget cannot cover one share")
	}
	if !strings.HasPrefix(err.Error(), "qty_below_one") {
		t.Errorf("expected qty_below_one reason, got: %v", err)
	}
	if instr.Quantity != 0 {
		t.Errorf("rejected instruction should keep zero quantity, got %d", instr.Quantity)
	}
}

func TestSizerIgnoresExits(t *testing.T) {
	s := NewSizer(sizerConfig())
	instr := &types.TradeInstruction{Signal: types.Exit, EntryPrice: 2450}

	if err := s.Size(instr, types.NeutralBias()); err != nil {
		t.Errorf("exits should never be sized or rejected: %v", err)
	}
}

func TestSizerUnknownStanceFallsBack(t *testing.T) {
	s := NewSizer(sizerConfig())
	instr := entryInstr(2450, 2430)

	bias := types.MarketBias{Stance: "panic", Multiplier: 0}
	if err := s.Size(instr, bias); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if instr.Quantity != 100 {
		t.Errorf("unknown stance should use neutral multiplier, got quantity %d", instr.Quantity)
	}
}
