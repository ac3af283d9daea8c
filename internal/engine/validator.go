package engine

import (
	"fmt"
	"time"

	"intraday-trader/internal/store"
	"intraday-trader/internal/types"
)

// Validator runs the ordered pre-trade checks on a sized instruction. The
// first failing check wins and its reason code prefixes the error:
//
//  1. kill switch (entries only, exits always pass)
//  2. position bookkeeping (one open position per symbol, exits need one)
//  3. capital allocation (per-symbol cap and total deployed cap)
//  4. session window, warm-up and entry cutoff (entries only; an exit is
//     never time-blocked, so flattening works even past the close)
//
// Validation never mutates anything.
type Validator struct {
	capital           float64
	perSymbolAllocPct float64
	maxDeployedPct    float64
	session           *Session
}

func NewValidator(cfg *store.Config, session *Session) *Validator {
	return &Validator{
		capital:           cfg.Capital,
		perSymbolAllocPct: cfg.Risk.PerSymbolAllocPct,
		maxDeployedPct:    cfg.Risk.MaxDeployedPct,
		session:           session,
	}
}

func (v *Validator) Validate(instr *types.TradeInstruction, ledger *Ledger, risk *RiskManager, now time.Time) error {
	isEntry := instr.Signal.IsEntry()

	if isEntry && risk.Halted() {
		return fmt.Errorf("kill_switch_active: %s", risk.Reason())
	}

	pos := ledger.Position(instr.Symbol)
	if isEntry && pos != nil {
		return fmt.Errorf("position_already_open: %s held by %s", instr.Symbol, pos.Strategy)
	}
	if instr.Signal == types.Exit && pos == nil {
		return fmt.Errorf("no_position_to_exit: %s", instr.Symbol)
	}

	if isEntry {
		notional := instr.EntryPrice * float64(instr.Quantity)
		symbolCap := v.capital * v.perSymbolAllocPct
		if notional > symbolCap {
			return fmt.Errorf("symbol_alloc_exceeded: notional %.2f over per-symbol cap %.2f", notional, symbolCap)
		}
		deployedCap := v.capital * v.maxDeployedPct
		if ledger.DeployedCapital()+notional > deployedCap {
			return fmt.Errorf("deployed_cap_exceeded: %.2f + %.2f over cap %.2f", ledger.DeployedCapital(), notional, deployedCap)
		}
	}

	if isEntry {
		if !v.session.InWindow(now) {
			return fmt.Errorf("outside_session_window: %s", now.In(IST).Format("15:04"))
		}
		if !v.session.PastWarmup(now) {
			return fmt.Errorf("warmup_not_elapsed: %s", now.In(IST).Format("15:04"))
		}
		if !v.session.BeforeCutoff(now) {
			return fmt.Errorf("past_entry_cutoff: %s", now.In(IST).Format("15:04"))
		}
	}

	return nil
}
