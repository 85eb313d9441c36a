// FILE: engine.go
// Package main – per-asset replay: the pure synchronous fold of the Cycle
// FSM + Ladder Engine + Event Sequencer over one asset's candle stream
// (§5.1). No goroutines, no suspension points, matching spec.md's
// "no suspension points inside the core".
package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Engine replays a single asset's candle stream into a DebugRecord stream.
type Engine struct {
	Symbol string
	// DailyHOverride optionally overrides H for specific dates (§4.2 step 1,
	// §6: "daily_H_override: map<date, float>"). Malformed/absent entries
	// are silently ignored per §7.
	DailyHOverride map[string]float64
}

// NewEngine constructs a replay engine for one asset.
func NewEngine(symbol string) *Engine {
	return &Engine{Symbol: symbol, DailyHOverride: map[string]float64{}}
}

// Replay folds candles in ascending date order into a DebugRecord stream.
// The first candle is discarded per §6 ("listing-day data is treated as
// untrustworthy"); the first valid retained candle with a positive high
// seeds H. An empty or single-candle stream, or one with no such candle, is
// skipped with a diagnostic, never fatal (§7).
func (e *Engine) Replay(candles []Candle) ([]DebugRecord, error) {
	if len(candles) < 2 {
		log.Warn().Str("symbol", e.Symbol).Int("candles", len(candles)).
			Msg("replay skipped: insufficient candle history")
		return nil, nil
	}

	rest := candles[1:]
	seedHigh := 0.0
	for _, c := range rest {
		if c.valid() && c.High > 0 {
			seedHigh = c.High
			break
		}
	}
	if seedHigh <= 0 {
		log.Warn().Str("symbol", e.Symbol).Msg("replay skipped: no valid candle with a positive high to seed H")
		return nil, nil
	}
	st := NewEngineState(e.Symbol, seedHigh)

	var out []DebugRecord
	for _, c := range rest {
		if !c.valid() {
			log.Debug().Str("symbol", e.Symbol).Str("date", c.dateKey()).
				Msg("skipping malformed candle")
			continue
		}

		overrideH, hasOverride := e.lookupOverride(c)

		fsmRes := stepFSM(st, c, overrideH, hasOverride)
		if fsmRes.restarted {
			metricRestarts.WithLabelValues(e.Symbol).Inc()
		}
		if fsmRes.froze {
			metricFreezes.WithLabelValues(e.Symbol).Inc()
		}

		events := stepLadder(st, c, c.dateKey())
		for _, ev := range events {
			kind := ev.label
			if sp := strings.IndexByte(ev.label, ' '); sp >= 0 {
				kind = ev.label[:sp]
			}
			metricEvents.WithLabelValues(kind, e.Symbol).Inc()
		}

		rows := sequenceDay(st, c, fsmRes, events)
		out = append(out, rows...)
	}

	return out, nil
}

// lookupOverride resolves today's H-override entry, if any, returning
// ok=false for an absent date or a non-positive value (malformed entries
// are advisory-only and silently skipped, §7/§6).
func (e *Engine) lookupOverride(c Candle) (decimal.Decimal, bool) {
	v, ok := e.DailyHOverride[c.dateKey()]
	if !ok || v <= 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(v), true
}

// validateSeedHigh guards the one fatal condition in the core: a
// non-positive seed H is a programmer-contract violation (§7), so callers
// constructing an Engine from externally-supplied seed data should check
// this before invoking Replay to get a clean error instead of a panic.
func validateSeedHigh(h float64) error {
	if h <= 0 {
		return fmt.Errorf("non-positive seed H: %v", h)
	}
	return nil
}
