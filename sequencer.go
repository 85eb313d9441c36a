// FILE: sequencer.go
// Package main – Event Sequencer (C4): orders a day's event rows and
// appends the single end-of-day snapshot row (§4.4).
package main

import (
	"sort"

	"github.com/shopspring/decimal"
)

// sequenceDay turns one candle's FSM/ladder outcome into the ordered
// DebugRecord rows: RESTART (if any) -> BUY -> ADDs (shallow->deep) ->
// SELL (if any) -> exactly one snapshot row.
func sequenceDay(st *EngineState, c Candle, fsmRes fsmResult, events []ladderEvent) []DebugRecord {
	var out []DebugRecord
	day := c.dateKey()

	if fsmRes.restarted {
		out = append(out, DebugRecord{
			Date:         day,
			Open:         decimal.NewFromFloat(c.Open),
			High:         decimal.NewFromFloat(c.High),
			Low:          decimal.NewFromFloat(c.Low),
			Close:        decimal.NewFromFloat(c.Close),
			Mode:         st.Mode,
			Position:     st.Position,
			Stage:        st.Stage,
			Event:        "RESTART_+98.5pct",
			Basis:        "HIGH",
			TriggerPrice: fsmRes.restartTrigger,
			HasTrigger:   true,
			H:            st.H,
			LNow:         st.L,
			HasLNow:      st.hasL,
			AllowedCount: allowedCount(st),
			Levels:       st.Levels,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].rank != events[j].rank {
			return events[i].rank < events[j].rank
		}
		return events[i].levelIndex < events[j].levelIndex
	})

	for _, ev := range events {
		out = append(out, DebugRecord{
			Date:          day,
			Open:          decimal.NewFromFloat(c.Open),
			High:          decimal.NewFromFloat(c.High),
			Low:           decimal.NewFromFloat(c.Low),
			Close:         decimal.NewFromFloat(c.Close),
			Mode:          st.Mode,
			Position:      st.Position,
			Stage:         st.Stage,
			Event:         ev.label,
			Basis:         ev.basis,
			LevelName:     ev.levelName,
			LevelPrice:    ev.levelPrice,
			HasLevelPrice: ev.hasLevelPrice,
			TriggerPrice:  ev.triggerPrice,
			HasTrigger:    true,
			FillPrice:     ev.fillPrice,
			HasFill:       true,
			H:             st.H,
			LNow:          st.L,
			HasLNow:       st.hasL,
			ReboundPct:    ev.reboundPct,
			HasRebound:    ev.hasRebound,
			ThresholdPct:  ev.thresholdPct,
			HasThreshold:  ev.hasThreshold,
			AllowedCount:  allowedCount(st),
			Levels:        st.Levels,
			CutoffPrice:   st.Cutoff,
			HasCutoff:     st.hasCutoff,
		})
	}

	snap := DebugRecord{
		Date:         day,
		Open:         decimal.NewFromFloat(c.Open),
		High:         decimal.NewFromFloat(c.High),
		Low:          decimal.NewFromFloat(c.Low),
		Close:        decimal.NewFromFloat(c.Close),
		Mode:         st.Mode,
		Position:     st.Position,
		Stage:        st.Stage,
		H:            st.H,
		LNow:         st.L,
		HasLNow:      st.hasL,
		AllowedCount: allowedCount(st),
		Levels:       st.Levels,
		CutoffPrice:  st.Cutoff,
		HasCutoff:    st.hasCutoff,
	}
	if name, price, trigger, ok := nextBuyCandidate(st, decimal.NewFromFloat(c.Close)); ok {
		snap.NextBuyLevelName = name
		snap.NextBuyLevelPrice = price
		snap.HasNextBuyLevelPrice = true
		snap.NextBuyTriggerPrice = trigger
		snap.HasNextBuyTrigger = true
	}
	out = append(out, snap)

	return out
}

// nextBuyCandidate is the core's own lightweight "next buy" projection
// carried in the debug record's next_buy_* columns (§6). It is the
// shallowest allowed level priced below today's close; it is deliberately
// simpler than the Alert Projector (C6, projector.go), which additionally
// applies the allowed-count rule and the STOP LOSS sentinel for downstream
// consumers; the monitor measures distance to its target from the live price.
func nextBuyCandidate(st *EngineState, lastClose decimal.Decimal) (name string, price decimal.Decimal, trigger decimal.Decimal, ok bool) {
	for _, n := range levelOrder {
		if n == levelStop {
			continue
		}
		if st.FilledLevels[n] {
			continue
		}
		if !allowedCandidate(st, n) {
			continue
		}
		p := st.Levels.rawPrice(n)
		if p.GreaterThanOrEqual(lastClose) {
			continue
		}
		return string(n), st.Levels.price(n), st.Levels.price(n), true
	}
	return "", decimal.Zero, decimal.Zero, false
}
