// FILE: record.go
// Package main – Debug Record Writer (C5): the fixed external schema from
// spec.md §6, with decimal-backed rounding rules from §4.5.
package main

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
)

// debugColumns is the fixed column order of the external contract. Any
// change here is a breaking change to every downstream consumer.
var debugColumns = []string{
	"date", "open", "high", "low", "close",
	"mode", "position", "stage",
	"event", "basis", "level_name", "level_price", "trigger_price", "fill_price",
	"H", "L_now", "rebound_from_L_pct", "threshold_pct",
	"forbidden_levels_above_last_sell",
	"B1", "B2", "B3", "B4", "B5", "B6", "B7",
	"cutoff_price",
	"next_buy_level_name", "next_buy_level_price", "next_buy_trigger_price",
}

// DebugRecord is one row of the external debug stream: either an event row
// (BUY/ADD/SELL/RESTART) or the single end-of-day snapshot row.
type DebugRecord struct {
	Date  string
	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal

	Mode     mode
	Position bool
	Stage    int // 0 means absent/null

	Event        string // "", "BUY Bn", "ADD Bn", "SELL Sn", "RESTART_+98.5pct", "STOP LOSS"
	Basis        string // "", "LOW", "HIGH"
	LevelName    string
	LevelPrice   decimal.Decimal
	HasLevelPrice bool
	TriggerPrice  decimal.Decimal
	HasTrigger    bool
	FillPrice     decimal.Decimal
	HasFill       bool

	H                decimal.Decimal
	LNow             decimal.Decimal
	HasLNow          bool
	ReboundPct       decimal.Decimal
	HasRebound       bool
	ThresholdPct     decimal.Decimal
	HasThreshold     bool
	AllowedCount     int

	Levels levelPrices // snapshot of B1..B7 for the day, for column emission

	CutoffPrice decimal.Decimal
	HasCutoff   bool

	NextBuyLevelName     string
	NextBuyLevelPrice    decimal.Decimal
	HasNextBuyLevelPrice bool
	NextBuyTriggerPrice  decimal.Decimal
	HasNextBuyTrigger    bool
}

// roundPriceLike rounds an 8-decimal "price-like" field per §4.5.
func roundPriceLike(d decimal.Decimal) decimal.Decimal { return d.Round(8) }

// roundLevelPrice rounds a 10-decimal level-price field per §4.5/§4.1.
func roundLevelPrice(d decimal.Decimal) decimal.Decimal { return d.Round(10) }

// roundPct rounds a percentage field to 6 decimals per §4.5.
func roundPct(d decimal.Decimal) decimal.Decimal { return d.Round(6) }

// fields projects the record into the fixed column order as strings,
// with null/absent fields emitted empty per §4.5.
func (r DebugRecord) fields() []string {
	stage := ""
	if r.Stage > 0 {
		stage = strconv.Itoa(r.Stage)
	}
	levelPrice := ""
	if r.HasLevelPrice {
		levelPrice = roundLevelPrice(r.LevelPrice).String()
	}
	trigger := ""
	if r.HasTrigger {
		trigger = roundPriceLike(r.TriggerPrice).String()
	}
	fill := ""
	if r.HasFill {
		fill = roundPriceLike(r.FillPrice).String()
	}
	lNow := ""
	if r.HasLNow {
		lNow = roundPriceLike(r.LNow).String()
	}
	rebound := ""
	if r.HasRebound {
		rebound = roundPct(r.ReboundPct).String()
	}
	threshold := ""
	if r.HasThreshold {
		threshold = roundPct(r.ThresholdPct).String()
	}
	cutoff := ""
	if r.HasCutoff {
		cutoff = roundPriceLike(r.CutoffPrice).String()
	}
	nextPrice := ""
	if r.HasNextBuyLevelPrice {
		nextPrice = roundLevelPrice(r.NextBuyLevelPrice).String()
	}
	nextTrigger := ""
	if r.HasNextBuyTrigger {
		nextTrigger = roundPriceLike(r.NextBuyTriggerPrice).String()
	}

	levelCol := func(n levelName) string {
		if r.Levels.prices == nil {
			return ""
		}
		return roundLevelPrice(r.Levels.rawPrice(n)).String()
	}

	return []string{
		r.Date,
		roundPriceLike(r.Open).String(),
		roundPriceLike(r.High).String(),
		roundPriceLike(r.Low).String(),
		roundPriceLike(r.Close).String(),
		string(r.Mode),
		strconv.FormatBool(r.Position),
		stage,
		r.Event,
		r.Basis,
		r.LevelName,
		levelPrice,
		trigger,
		fill,
		roundPriceLike(r.H).String(),
		lNow,
		rebound,
		threshold,
		strconv.Itoa(clampAllowedCount(r.AllowedCount)),
		levelCol(levelB1), levelCol(levelB2), levelCol(levelB3), levelCol(levelB4),
		levelCol(levelB5), levelCol(levelB6), levelCol(levelB7),
		cutoff,
		r.NextBuyLevelName,
		nextPrice,
		nextTrigger,
	}
}

func clampAllowedCount(n int) int {
	if n < 0 {
		return 0
	}
	if n > 7 {
		return 7
	}
	return n
}

// allowedCount computes the §4.5 "forbidden_levels_above_last_sell" column,
// which despite its name is the *allowed*-level count in 0..7.
func allowedCount(st *EngineState) int {
	if !st.hasCutoff {
		return 7
	}
	blocked := 0
	for _, n := range levelOrder {
		if n == levelStop {
			continue
		}
		if st.Forbidden[n] {
			blocked++
		}
	}
	return clampAllowedCount(7 - blocked)
}

// writeDebugCSV streams records to w in the fixed column order, header
// first. Called by the replay command in main.go.
func writeDebugCSV(w io.Writer, records []DebugRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(debugColumns); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(r.fields()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
