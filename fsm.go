// FILE: fsm.go
// Package main – Cycle FSM (C2): mode/H/L transitions over the daily candle
// stream, plus the RESTART/freeze transitions described in spec.md §4.2.
package main

import (
	"github.com/shopspring/decimal"
)

// restartMultiple is the +98.5% bounce threshold (today.high >= 1.985*L).
var restartMultiple = decimal.NewFromFloat(1.985)

// fsmResult carries the day's FSM-level outcome back to the ladder engine
// and sequencer: whether a restart fired (and its trigger price for the
// event row), and whether a freeze fired (freeze has no event row per
// §4.2/§4.4 — only RESTART does).
type fsmResult struct {
	restarted     bool
	restartTrigger decimal.Decimal
	restartLPrev  decimal.Decimal
	froze         bool
}

// stepFSM applies §4.2 steps 1-6 for one candle, mutating st in place.
// overrideH is the optional daily-H override value for today (ok=false
// when no override map entry exists for this date, or it is malformed).
func stepFSM(st *EngineState, c Candle, overrideH decimal.Decimal, hasOverride bool) fsmResult {
	var res fsmResult

	// Step 1: H override takes precedence over all other H-movement rules.
	overridden := false
	if hasOverride && !overrideH.Equal(st.H) && overrideH.Sign() > 0 {
		st.setH(overrideH)
		st.recomputeForbidden()
		overridden = true
	}

	today := candleDecimals(c)

	// Step 2: H seeding (only relevant when H was never set; NewEngineState
	// already seeds H at construction, so this only matters for an engine
	// state constructed with a zero H via an alternate path).
	if st.H.Sign() == 0 && st.Mode == modeHigh {
		st.setH(today.high)
	}

	// Step 3: H ratchet in high mode (not on a candle whose H was overridden).
	if !overridden && st.Mode == modeHigh && today.high.GreaterThan(st.H) {
		st.setH(today.high)
		st.recomputeForbidden()
	}

	// Step 4: L tracking in wait.
	if st.Mode == modeWait {
		st.trackLowInWait(today.low)
	}

	// Step 5: Restart transition (wait -> high).
	if st.Mode == modeWait && st.hasL && st.L.Sign() > 0 {
		threshold := st.L.Mul(restartMultiple)
		if today.high.GreaterThanOrEqual(threshold) {
			lPrev := st.L
			st.Mode = modeHigh
			st.setH(today.high)
			st.setL(today.low)
			st.clearCutoff()
			st.clearPosition()
			res.restarted = true
			res.restartTrigger = threshold
			res.restartLPrev = lPrev
		}
	}

	// Step 6: Freeze transition (high -> wait), evaluated after restart and
	// skipped on a candle where restart fired.
	if !res.restarted && st.Mode == modeHigh && st.H.Sign() > 0 {
		freezeLine := st.H.Mul(decimal.NewFromFloat(0.56))
		if today.low.LessThanOrEqual(freezeLine) {
			st.setH(st.H) // recompute from current H (no-op on value, refreshes Levels/forbidden)
			st.recomputeForbidden()
			st.Mode = modeWait
			st.setL(today.low)
			res.froze = true
		}
	}

	return res
}

// decimalCandle is a decimal-precision view of a Candle's OHLC, used by the
// FSM and ladder engine so all comparisons are done in shopspring/decimal
// rather than float64 (see SPEC_FULL.md §3 DebugRecord rationale).
type decimalCandle struct {
	open, high, low, close decimal.Decimal
}

func candleDecimals(c Candle) decimalCandle {
	return decimalCandle{
		open:  decimal.NewFromFloat(c.Open),
		high:  decimal.NewFromFloat(c.High),
		low:   decimal.NewFromFloat(c.Low),
		close: decimal.NewFromFloat(c.Close),
	}
}
