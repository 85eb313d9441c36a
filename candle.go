// FILE: candle.go
// Package main – Normalized OHLC candle type and CSV ingestion.
//
// Candle is the only market-data shape the core understands: one row per
// calendar day, ascending by date. The core never ingests anything below
// daily granularity (see CandleSource in candlesource.go for the collaborator
// that supplies this stream).
package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Candle is the normalized daily OHLC row the engine folds over.
type Candle struct {
	Date  time.Time // calendar day, UTC midnight
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// dateKey returns the YYYY-MM-DD form used as the override-map key and as
// the debug record's date column.
func (c Candle) dateKey() string {
	return c.Date.Format("2006-01-02")
}

// valid reports whether a candle carries non-negative finite OHLC fields.
// Malformed candles are skipped by the caller (§7: never fatal).
func (c Candle) valid() bool {
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close} {
		if v < 0 || v-v != 0 { // v-v is NaN for NaN and ±Inf, without importing math here
			return false
		}
	}
	return true
}

// loadCandleCSV reads a generic daily-candle CSV with headers
// date|time|timestamp, open, high, low, close. Unknown columns are ignored;
// headers are case-insensitive. Rows are sorted ascending by date and the
// first row of the resulting series is the caller's responsibility to drop
// (see Engine.Replay, which discards index 0).
func loadCandleCSV(path string) ([]Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out []Candle
	var headers []string
	rowIdx := 0

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if rowIdx == 0 {
			headers = rec
			rowIdx++
			continue
		}
		row := map[string]string{}
		for j, h := range headers {
			k := strings.ToLower(strings.TrimSpace(h))
			if j < len(rec) {
				row[k] = strings.TrimSpace(rec[j])
			}
		}
		ds := firstNonEmpty(row, "date", "time", "timestamp")
		op := row["open"]
		hp := row["high"]
		lp := row["low"]
		cp := row["close"]
		if ds == "" || op == "" || hp == "" || lp == "" || cp == "" {
			continue // malformed row; skip, never fatal
		}
		d, err := parseCandleDate(ds)
		if err != nil {
			continue
		}
		o, errO := strconv.ParseFloat(op, 64)
		h, errH := strconv.ParseFloat(hp, 64)
		l, errL := strconv.ParseFloat(lp, 64)
		c, errC := strconv.ParseFloat(cp, 64)
		if errO != nil || errH != nil || errL != nil || errC != nil {
			continue
		}
		cand := Candle{Date: d, Open: o, High: h, Low: l, Close: c}
		if !cand.valid() {
			continue
		}
		out = append(out, cand)
		rowIdx++
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// parseCandleDate accepts RFC3339, YYYY-MM-DD, or UNIX seconds.
func parseCandleDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Truncate(24 * time.Hour), nil
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC().Truncate(24 * time.Hour), nil
	}
	return time.Time{}, fmt.Errorf("bad date: %s", s)
}

func firstNonEmpty(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}
