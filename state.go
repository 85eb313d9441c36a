// FILE: state.go
// Package main – EngineState: the mutable per-asset cycle/ladder state.
package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// mode is the Cycle FSM's top-level phase.
type mode string

const (
	modeHigh mode = "high"
	modeWait mode = "wait"
)

// EngineState is the mutable, per-asset state the FSM and ladder engine
// evolve candle by candle. Nullable fields use explicit bool/pointer
// sentinels rather than zero-value overloading, per SPEC_FULL.md §9.
type EngineState struct {
	Symbol string

	Mode mode
	H    decimal.Decimal
	Levels levelPrices

	hasL bool
	L    decimal.Decimal

	Position bool
	Stage    int // 0 when !Position, else 1..7

	FilledLevels map[levelName]bool
	LastFillDate map[levelName]string // dateKey, used only for same-day double-fill guard

	hasCutoff  bool
	Cutoff     decimal.Decimal
	Forbidden  map[levelName]bool
}

// NewEngineState seeds state from the first retained candle's high, the
// canonical "no history supplied" seeding path (§4.2 step 2). Panics if h
// is non-positive: a programmer-contract violation per §7.
func NewEngineState(symbol string, seedHigh float64) *EngineState {
	if seedHigh <= 0 {
		panic(fmt.Sprintf("NewEngineState(%s): non-positive seed H %v", symbol, seedHigh))
	}
	h := decimal.NewFromFloat(seedHigh)
	st := &EngineState{
		Symbol:       symbol,
		Mode:         modeHigh,
		H:            h,
		Levels:       computeLevels(h),
		FilledLevels: map[levelName]bool{},
		LastFillDate: map[levelName]string{},
		Forbidden:    map[levelName]bool{},
	}
	return st
}

// setH replaces H and recomputes the level set in one step, used by every
// H-movement rule in the FSM (override, seed, ratchet, freeze, restart).
func (st *EngineState) setH(h decimal.Decimal) {
	st.H = h
	st.Levels = computeLevels(h)
}

// setL sets the cycle low, marking it established.
func (st *EngineState) setL(l decimal.Decimal) {
	st.hasL = true
	st.L = l
}

// trackLowInWait folds today's low into L while in wait mode (§4.2 step 4).
func (st *EngineState) trackLowInWait(low decimal.Decimal) {
	if !st.hasL || low.LessThan(st.L) {
		st.setL(low)
	}
}

// clearCutoff removes the re-entry gate entirely (invariant 5: cutoff nil
// iff forbidden set empty).
func (st *EngineState) clearCutoff() {
	st.hasCutoff = false
	st.Cutoff = decimal.Zero
	st.Forbidden = map[levelName]bool{}
}

// setCutoff installs a new re-entry gate and recomputes the forbidden set
// from the current level table (§4.3 SELL, §9 design note: forbidden_prices
// is always recomputed, never carried across a level change).
func (st *EngineState) setCutoff(cutoff decimal.Decimal) {
	st.hasCutoff = true
	st.Cutoff = cutoff
	st.recomputeForbidden()
}

// recomputeForbidden rebuilds Forbidden from Levels and Cutoff. Call this
// any time Levels changes while a cutoff is active (ratchet, override,
// freeze) so the gate continues to track the current table (Scenario E).
func (st *EngineState) recomputeForbidden() {
	fb := map[levelName]bool{}
	if st.hasCutoff {
		for _, n := range levelOrder {
			if n == levelStop {
				continue
			}
			if st.Levels.rawPrice(n).GreaterThan(st.Cutoff) {
				fb[n] = true
			}
		}
	}
	st.Forbidden = fb
}

// clearPosition resets fill bookkeeping after a SELL or a RESTART.
func (st *EngineState) clearPosition() {
	st.Position = false
	st.Stage = 0
	st.FilledLevels = map[levelName]bool{}
	st.LastFillDate = map[levelName]string{}
}

// deepestFilledIndex returns the max level index among FilledLevels, or 0
// if none are filled.
func (st *EngineState) deepestFilledIndex() int {
	max := 0
	for n := range st.FilledLevels {
		if idx := levelIndex[n]; idx > max {
			max = idx
		}
	}
	return max
}

// fill records a BUY/ADD at level n on the given day, updating Position,
// Stage, FilledLevels, and LastFillDate consistently (invariant 3/4).
func (st *EngineState) fill(n levelName, day string) {
	st.Position = true
	st.FilledLevels[n] = true
	st.LastFillDate[n] = day
	st.Stage = st.deepestFilledIndex()
}

// checkInvariants validates the post-candle invariants from spec.md §3/§8.
// It is called from tests (fsm_test.go) rather than on production calls,
// matching the teacher's habit of keeping hot-path
// code free of assertions while still making invariants checkable.
func (st *EngineState) checkInvariants() error {
	if st.Mode != modeHigh && st.Mode != modeWait {
		return fmt.Errorf("invariant 1: mode %q not in {high,wait}", st.Mode)
	}
	if st.Position {
		if st.Mode != modeWait {
			return fmt.Errorf("invariant 1: position true but mode %q", st.Mode)
		}
		if st.Stage < 1 || st.Stage > 7 {
			return fmt.Errorf("invariant 1/2: position true but stage %d out of [1,7]", st.Stage)
		}
		if len(st.FilledLevels) == 0 {
			return fmt.Errorf("invariant 2: position true but filled_levels empty")
		}
		if !st.hasL {
			return fmt.Errorf("invariant 2: position true but L unset")
		}
		for n := range st.FilledLevels {
			if st.L.GreaterThan(st.Levels.rawPrice(n)) {
				return fmt.Errorf("invariant 2: L %s greater than filled level %s price %s", st.L, n, st.Levels.rawPrice(n))
			}
		}
		if want := st.deepestFilledIndex(); want != st.Stage {
			return fmt.Errorf("invariant 4: stage %d != deepest filled index %d", st.Stage, want)
		}
	}
	if st.hasCutoff != (len(st.Forbidden) > 0) {
		// Invariant 5 is an iff, but a cutoff with every level already below
		// it legitimately yields an empty Forbidden set; only the reverse
		// (Forbidden non-empty with no cutoff) is a genuine violation.
		if !st.hasCutoff && len(st.Forbidden) > 0 {
			return fmt.Errorf("invariant 5: forbidden set non-empty with no cutoff")
		}
	}
	return nil
}

// dateKeyOf formats t as a YYYY-MM-DD day key, the same form as Candle.dateKey.
func dateKeyOf(t time.Time) string { return t.Format("2006-01-02") }
