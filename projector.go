// FILE: projector.go
// Package main – Alert Projector (C6): a pure projection over the most
// recent DebugRecord per asset, deriving the next buy target and distance
// (§4.6). This is the only place the "STOP LOSS" sentinel is introduced —
// the core replay (engine.go/ladder.go) never emits it (§9 open question).
package main

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const stopLossSentinel = "STOP LOSS"
const allForbiddenSentinel = "all forbidden"

// AssetSnapshot is the Analysis Snapshot row (§6): the last debug row's
// derived fields plus rank/market-cap supplied by the universe collaborator.
type AssetSnapshot struct {
	Symbol       string
	Rank         int
	MarketCapUSD float64

	NextBuyTarget string // level name, stopLossSentinel, or allForbiddenSentinel
	NextBuyPrice  decimal.Decimal
	HasNextBuy    bool
	DistancePct   decimal.Decimal
	HasDistance   bool

	ReferenceH decimal.Decimal
	LastClose  decimal.Decimal
}

// AlertProjector derives the Analysis Snapshot from the tail of a replay's
// DebugRecord stream, plus the universe-supplied rank/market-cap.
type AlertProjector struct{}

// Project builds the snapshot for one asset from its last DebugRecord.
func (AlertProjector) Project(symbol string, rank int, marketCap float64, last DebugRecord) AssetSnapshot {
	snap := AssetSnapshot{
		Symbol:       symbol,
		Rank:         rank,
		MarketCapUSD: marketCap,
		ReferenceH:   last.H,
		LastClose:    last.Close,
	}

	target, price, ok := deriveNextBuyTarget(last)
	if !ok {
		return snap
	}
	snap.NextBuyTarget = target
	snap.HasNextBuy = true

	if target == stopLossSentinel || target == allForbiddenSentinel {
		return snap
	}
	snap.NextBuyPrice = price
	if price.Sign() > 0 {
		snap.DistancePct = last.Close.Sub(price).Div(price).Mul(decimal.NewFromInt(100))
		snap.HasDistance = true
	}
	return snap
}

// deriveNextBuyTarget implements §4.6's post-sell rule: the normative way
// downstream consumers reconstruct target state purely from the debug
// stream's stage and allowed-count columns, without replaying full state.
func deriveNextBuyTarget(last DebugRecord) (name string, price decimal.Decimal, ok bool) {
	if last.Position && last.Stage == 7 {
		return stopLossSentinel, decimal.Zero, true
	}

	allowed := clampAllowedCount(last.AllowedCount)
	switch {
	case allowed == 0:
		return allForbiddenSentinel, decimal.Zero, true
	case allowed == 7:
		return string(levelB1), last.Levels.price(levelB1), true
	case allowed > 0 && allowed < 7:
		idx := 8 - allowed
		n := levelName(fmt.Sprintf("B%d", idx))
		return string(n), last.Levels.price(n), true
	default:
		return "", decimal.Zero, false
	}
}

// AlertMessage is the pre-formatted plain-text payload handed to a
// Notifier (§6/§9, notify.go): coin, rank, current price, target level,
// distance, and reference H.
type AlertMessage struct {
	Symbol        string
	Rank          int
	CurrentPrice  decimal.Decimal
	TargetLevel   string
	TargetPrice   decimal.Decimal
	DistancePct   decimal.Decimal
	ReferenceH    decimal.Decimal
	CorrelationID string
}

// Format renders the message body the way crypto_realtime_monitor.py's
// send_alert formats its Telegram HTML payload, flattened to plain text.
func (m AlertMessage) Format() string {
	return fmt.Sprintf(
		"%s (rank %d)\ncurrent: %s\ntarget: %s @ %s (%.2f%% away)\nH: %s",
		m.Symbol, m.Rank, m.CurrentPrice.String(), m.TargetLevel, m.TargetPrice.String(),
		distanceFloat(m.DistancePct), m.ReferenceH.String(),
	)
}

func distanceFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
