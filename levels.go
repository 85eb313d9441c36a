// FILE: levels.go
// Package main – Level Calculator (C1): H -> {B1..B7, Stop}.
package main

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// levelName identifies one of the eight fixed ladder anchors.
type levelName string

const (
	levelB1   levelName = "B1"
	levelB2   levelName = "B2"
	levelB3   levelName = "B3"
	levelB4   levelName = "B4"
	levelB5   levelName = "B5"
	levelB6   levelName = "B6"
	levelB7   levelName = "B7"
	levelStop levelName = "Stop"
)

// levelOrder lists the ladder names shallowest (B1) to deepest (Stop); it
// governs iteration order everywhere a "shallowest first" rule applies.
var levelOrder = []levelName{levelB1, levelB2, levelB3, levelB4, levelB5, levelB6, levelB7, levelStop}

// levelRatios are the fixed proportions of H defining each level's price.
// B1 is shallowest (highest price, 0.56H); Stop is deepest (0.19H).
var levelRatios = map[levelName]float64{
	levelB1:   0.56,
	levelB2:   0.52,
	levelB3:   0.46,
	levelB4:   0.41,
	levelB5:   0.35,
	levelB6:   0.28,
	levelB7:   0.21,
	levelStop: 0.19,
}

// levelIndex maps B1..B7 to their stage index (1..7). Stop carries no stage;
// it is never a fill target, only an informational price.
var levelIndex = map[levelName]int{
	levelB1: 1,
	levelB2: 2,
	levelB3: 3,
	levelB4: 4,
	levelB5: 5,
	levelB6: 6,
	levelB7: 7,
}

// levelPrices is the ordered set of price points derived from a given H.
// Prices are rounded to 10 decimal places at emission (§4.1); comparisons
// elsewhere use the unrounded decimal value to avoid introducing drift
// ahead of the rounding boundary.
type levelPrices struct {
	H      decimal.Decimal
	prices map[levelName]decimal.Decimal
}

// computeLevels is the pure function H -> {B1..B7, Stop}. It panics on a
// non-positive H: the FSM guarantees H > 0 before calling this, so a
// violation here is a programmer-contract bug, not a data problem (§7).
func computeLevels(h decimal.Decimal) levelPrices {
	if h.Sign() <= 0 {
		panic(fmt.Sprintf("computeLevels: non-positive H %s", h.String()))
	}
	out := make(map[levelName]decimal.Decimal, len(levelOrder))
	for _, n := range levelOrder {
		ratio := decimal.NewFromFloat(levelRatios[n])
		out[n] = h.Mul(ratio)
	}
	return levelPrices{H: h, prices: out}
}

// price returns the level's price rounded to 10 decimals, as emitted in
// debug records and projector output; forbidden-set comparisons use rawPrice.
func (lp levelPrices) price(n levelName) decimal.Decimal {
	return lp.prices[n].Round(10)
}

// rawPrice returns the unrounded price, used internally for crossing tests
// so that rounding never shifts whether a level was "crossed today".
func (lp levelPrices) rawPrice(n levelName) decimal.Decimal {
	return lp.prices[n]
}

// orderedAscendingByPrice returns level names sorted ascending by price (B7/Stop
// first, B1 last) per §4.1's "B7 is first, B1 last" requirement.
func (lp levelPrices) orderedAscendingByPrice() []levelName {
	out := make([]levelName, len(levelOrder))
	copy(out, levelOrder)
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if lp.rawPrice(out[j]).LessThan(lp.rawPrice(out[i])) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}
