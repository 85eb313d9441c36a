// FILE: candlesource.go
// Package main – Candle Source (C7, collaborator): normalized OHLC
// ingestion, stubbed behind an interface per spec.md §6.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// CandleSource supplies normalized daily OHLC candles to the replay engine
// and the realtime monitor (§4.7).
type CandleSource interface {
	Recent(ctx context.Context, symbol string, limit int) ([]Candle, error)
	History(ctx context.Context, symbol string, since time.Time) ([]Candle, error)
}

// httpCandleSource hits a generic /klines-shaped REST endpoint, grounded on
// the teacher's broker_bridge.go HTTP client shape (url.Values query
// building, a dedicated *http.Client with a fixed timeout). It wraps the call with a
// rate limiter and a circuit breaker per §5's backpressure contract.
type httpCandleSource struct {
	baseURL string
	hc      *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// newHTTPCandleSource builds a candle source against baseURL, allowing at
// most ratePerSec requests/second and tripping its breaker after five
// consecutive failed fetches (each one already retried on 429/5xx).
func newHTTPCandleSource(baseURL string, timeout time.Duration, ratePerSec float64) *httpCandleSource {
	st := gobreaker.Settings{
		Name:    "candle-source",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &httpCandleSource{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

type klineRow struct {
	Date  string  `json:"date"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

func (s *httpCandleSource) Recent(ctx context.Context, symbol string, limit int) ([]Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("limit", strconv.Itoa(limit))
	return s.fetch(ctx, q)
}

func (s *httpCandleSource) History(ctx context.Context, symbol string, since time.Time) ([]Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("since", since.UTC().Format("2006-01-02"))
	return s.fetch(ctx, q)
}

func (s *httpCandleSource) fetch(ctx context.Context, q url.Values) ([]Candle, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.fetchWithRetry(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return result.([]Candle), nil
}

// fetchWithRetry implements bounded exponential backoff with jitter,
// honoring Retry-After on 429/5xx, per §5's backpressure contract.
func (s *httpCandleSource) fetchWithRetry(ctx context.Context, q url.Values) ([]Candle, error) {
	const maxAttempts = 5
	backoff := 250 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		reqURL := s.baseURL + "/klines?" + q.Encode()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}

		resp, err := s.hc.Do(req)
		if err != nil {
			lastErr = err
			log.Warn().Err(err).Int("attempt", attempt+1).Msg("candle source request failed")
			if !sleepBackoff(ctx, backoff) {
				return nil, ctx.Err()
			}
			backoff *= 2
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			wait := backoff
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil {
					wait = time.Duration(secs) * time.Second
				}
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("candle source status %d", resp.StatusCode)
			if !sleepBackoff(ctx, wait) {
				return nil, ctx.Err()
			}
			backoff *= 2
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("candle source status %d", resp.StatusCode)
		}

		var rows []klineRow
		decErr := json.NewDecoder(resp.Body).Decode(&rows)
		resp.Body.Close()
		if decErr != nil {
			return nil, decErr
		}
		return klineRowsToCandles(rows), nil
	}
	return nil, fmt.Errorf("candle source: exhausted retries: %w", lastErr)
}

func sleepBackoff(ctx context.Context, d time.Duration) bool {
	jitter := time.Duration(rand.Int63n(int64(d) / 4 + 1))
	timer := time.NewTimer(d + jitter)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func klineRowsToCandles(rows []klineRow) []Candle {
	out := make([]Candle, 0, len(rows))
	for _, r := range rows {
		d, err := parseCandleDate(r.Date)
		if err != nil {
			continue
		}
		c := Candle{Date: d, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close}
		if c.valid() {
			out = append(out, c)
		}
	}
	return out
}

// csvCandleSource reads the teacher-style CSV schema for replay/backtests.
// This is the implementation actually exercised by the replay CLI command.
type csvCandleSource struct {
	path string
}

func newCSVCandleSource(path string) *csvCandleSource { return &csvCandleSource{path: path} }

func (s *csvCandleSource) Recent(ctx context.Context, symbol string, limit int) ([]Candle, error) {
	all, err := loadCandleCSV(s.path)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (s *csvCandleSource) History(ctx context.Context, symbol string, since time.Time) ([]Candle, error) {
	all, err := loadCandleCSV(s.path)
	if err != nil {
		return nil, err
	}
	out := all[:0:0]
	for _, c := range all {
		if !c.Date.Before(since) {
			out = append(out, c)
		}
	}
	return out, nil
}
