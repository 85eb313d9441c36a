// FILE: ladder.go
// Package main – Ladder Engine (C3): BUY/ADD/SELL decisioning for one
// candle, run after the Cycle FSM has applied its transitions.
package main

import (
	"github.com/shopspring/decimal"
)

// sellThresholds maps stage (1..7) to the required L-relative rebound
// percentage before a SELL fires (§4.3).
var sellThresholds = map[int]float64{
	1: 7.7,
	2: 17.3,
	3: 24.4,
	4: 37.4,
	5: 52.7,
	6: 79.9,
	7: 98.5,
}

// ladderEvent is one BUY/ADD/SELL occurrence for the day, in the shape the
// Event Sequencer (sequencer.go) turns into a DebugRecord row.
type ladderEvent struct {
	label         string // "BUY B2", "ADD B3", "SELL S1"
	basis         string // "LOW" or "HIGH"
	levelName     string
	levelIndex    int // sort key for ADDs; BUY/SELL don't need it
	levelPrice    decimal.Decimal
	hasLevelPrice bool
	triggerPrice  decimal.Decimal
	fillPrice     decimal.Decimal
	reboundPct    decimal.Decimal
	hasRebound    bool
	thresholdPct  decimal.Decimal
	hasThreshold  bool
	rank          int // event-type rank for sequencer ordering: 0=BUY,1=ADD,2=SELL
}

// crossed reports whether price p fell within today's [low, high] range,
// the §4.3 definition of "crossed today".
func crossed(p, low, high decimal.Decimal) bool {
	return !low.GreaterThan(p) && !p.GreaterThan(high)
}

// allowedCandidate reports whether level n is eligible for a BUY/ADD fill:
// not in the forbidden set, and (if a cutoff is active) at or below it.
func allowedCandidate(st *EngineState, n levelName) bool {
	if st.Forbidden[n] {
		return false
	}
	if st.hasCutoff && st.Levels.rawPrice(n).GreaterThan(st.Cutoff) {
		return false
	}
	return true
}

// stepLadder runs §4.3 for one candle, mutating st and returning the day's
// ordered BUY/ADD/SELL events (sequencer.go finishes the ordering/snapshot).
func stepLadder(st *EngineState, c Candle, day string) []ladderEvent {
	var events []ladderEvent
	today := candleDecimals(c)

	if st.Mode == modeWait && !st.Position {
		if ev, ok := tryBuy(st, today, day); ok {
			events = append(events, ev)
		}
	}

	if st.Mode == modeWait && st.Position {
		events = append(events, tryAdds(st, today, day)...)
	}

	if st.Position {
		if ev, ok := trySell(st, today, day); ok {
			events = append(events, ev)
		}
	}

	return events
}

// tryBuy selects the shallowest crossed, allowed level and fills it.
func tryBuy(st *EngineState, today decimalCandle, day string) (ladderEvent, bool) {
	for _, n := range levelOrder {
		if n == levelStop {
			continue
		}
		p := st.Levels.rawPrice(n)
		if !crossed(p, today.low, today.high) {
			continue
		}
		if !allowedCandidate(st, n) {
			continue
		}
		st.FilledLevels = map[levelName]bool{} // fresh position
		st.fill(n, day)
		st.setL(today.low)
		return ladderEvent{
			label:         "BUY " + string(n),
			basis:         "LOW",
			levelName:     string(n),
			levelIndex:    levelIndex[n],
			levelPrice:    st.Levels.price(n),
			hasLevelPrice: true,
			triggerPrice:  today.low,
			fillPrice:     p,
			rank:          0,
		}, true
	}
	return ladderEvent{}, false
}

// tryAdds emits every deeper, crossed, allowed, not-yet-filled-today level
// in shallow-to-deep order, advancing stage/L/filled_levels as it goes.
func tryAdds(st *EngineState, today decimalCandle, day string) []ladderEvent {
	var out []ladderEvent
	for _, n := range levelOrder {
		if n == levelStop {
			continue
		}
		if st.FilledLevels[n] {
			continue
		}
		if st.LastFillDate[n] == day {
			continue
		}
		if levelIndex[n] <= st.deepestFilledIndex() {
			continue
		}
		p := st.Levels.rawPrice(n)
		if !crossed(p, today.low, today.high) {
			continue
		}
		if !allowedCandidate(st, n) {
			continue
		}
		st.fill(n, day)
		st.trackLowInWaitDuringPosition(today.low)
		out = append(out, ladderEvent{
			label:         "ADD " + string(n),
			basis:         "LOW",
			levelName:     string(n),
			levelIndex:    levelIndex[n],
			levelPrice:    st.Levels.price(n),
			hasLevelPrice: true,
			triggerPrice:  today.low,
			fillPrice:     p,
			rank:          1,
		})
	}
	return out
}

// trySell evaluates the stage-specific rebound threshold and, if met,
// fires the SELL fill with gap-open semantics.
func trySell(st *EngineState, today decimalCandle, day string) (ladderEvent, bool) {
	thresholdF, ok := sellThresholds[st.Stage]
	if !ok {
		return ladderEvent{}, false
	}
	threshold := decimal.NewFromFloat(thresholdF)

	st.trackLowInWaitDuringPosition(today.low)
	if st.L.Sign() <= 0 {
		return ladderEvent{}, false // degenerate L=0: omit per §7
	}

	reboundPct := today.high.Div(st.L).Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100))
	if reboundPct.LessThan(threshold) {
		return ladderEvent{}, false
	}

	target := st.L.Mul(decimal.NewFromInt(1).Add(threshold.Div(decimal.NewFromInt(100))))
	var fillPrice decimal.Decimal
	if today.low.GreaterThanOrEqual(target) {
		fillPrice = today.open
	} else {
		fillPrice = target
	}

	cutoff := target
	if fillPrice.GreaterThan(cutoff) {
		cutoff = fillPrice
	}

	ev := ladderEvent{
		label:        sellLabel(st.Stage),
		basis:        "HIGH",
		triggerPrice: today.high,
		fillPrice:    fillPrice,
		reboundPct:   reboundPct,
		hasRebound:   true,
		thresholdPct: threshold,
		hasThreshold: true,
		rank:         2,
	}

	st.setCutoff(cutoff)
	st.clearPosition()
	return ev, true
}

// sellLabel renders the "SELL S<n>" event string for the stage that fired.
func sellLabel(stage int) string {
	switch stage {
	case 1:
		return "SELL S1"
	case 2:
		return "SELL S2"
	case 3:
		return "SELL S3"
	case 4:
		return "SELL S4"
	case 5:
		return "SELL S5"
	case 6:
		return "SELL S6"
	default:
		return "SELL S7"
	}
}

// trackLowInWaitDuringPosition folds today's low into L while holding, per
// §4.3's "L = min(L, today.low)" steps inside ADD and SELL. Distinct from
// EngineState.trackLowInWait, which the FSM applies in wait mode (§4.2
// step 4); both converge on the same "running minimum" semantics.
func (st *EngineState) trackLowInWaitDuringPosition(low decimal.Decimal) {
	if !st.hasL || low.LessThan(st.L) {
		st.setL(low)
	}
}
