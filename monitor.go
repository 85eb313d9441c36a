// FILE: monitor.go
// Package main – Realtime Monitor (§5.3): a context-aware ticker loop that
// polls recent candles/price for each tracked asset, applies the Alert
// Projector, compares against alert history, and notifies. A day-boundary
// check drives the daily full-rebuild task. Grounded on the teacher's
// runLive select{ctx.Done()/ticker.C} idiom rather than a cron library —
// the rebuild cadence is a single wall-clock comparison.
package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Monitor runs the realtime alert loop described in spec.md §5.3.
type Monitor struct {
	Universe UniverseProvider
	Source   CandleSource
	History  AlertHistoryStore
	Notifier Notifier
	Config   Config

	lastRebuildDate string
	latest          map[string]DebugRecord // last snapshot per symbol
}

// NewMonitor builds a Monitor from its collaborators.
func NewMonitor(universe UniverseProvider, source CandleSource, history AlertHistoryStore, notifier Notifier, cfg Config) *Monitor {
	return &Monitor{
		Universe: universe,
		Source:   source,
		History:  history,
		Notifier: notifier,
		Config:   cfg,
		latest:   map[string]DebugRecord{},
	}
}

// Run loops until ctx is cancelled, ticking at Config.MonitorInterval and
// performing the daily rebuild at Config.DailyRebuildAt wall-clock time.
func (m *Monitor) Run(ctx context.Context) error {
	interval := m.Config.MonitorInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("monitor loop: shutting down")
			return ctx.Err()
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	start := time.Now()
	defer func() { metricMonitorTickSeconds.Observe(time.Since(start).Seconds()) }()

	if m.dueForDailyRebuild() {
		if err := m.rebuild(ctx); err != nil {
			log.Warn().Err(err).Msg("daily rebuild failed; monitor continues with stale snapshot")
		}
	}

	universe, err := m.Universe.Universe(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("monitor tick: universe fetch failed")
		return
	}

	for _, entry := range universe {
		m.checkAsset(ctx, entry)
	}
}

// dueForDailyRebuild compares the current wall-clock time's HH:MM against
// Config.DailyRebuildAt, firing at most once per calendar day.
func (m *Monitor) dueForDailyRebuild() bool {
	now := time.Now().UTC()
	today := now.Format("2006-01-02")
	if today == m.lastRebuildDate {
		return false
	}
	if now.Format("15:04") < m.Config.DailyRebuildAt {
		return false
	}
	return true
}

// rebuild refetches recent history for every tracked asset and replays it,
// refreshing m.latest. Analysis-file absence at startup is not fatal: the
// monitor simply waits for the next scheduled rebuild (§7).
func (m *Monitor) rebuild(ctx context.Context) error {
	universe, err := m.Universe.Universe(ctx)
	if err != nil {
		return err
	}
	for _, entry := range universe {
		candles, err := m.Source.History(ctx, entry.Symbol, time.Now().AddDate(-2, 0, 0))
		if err != nil {
			log.Warn().Str("symbol", entry.Symbol).Err(err).Msg("rebuild: history fetch failed, skipping asset")
			continue
		}
		eng := NewEngine(entry.Symbol)
		records, err := eng.Replay(candles)
		if err != nil || len(records) == 0 {
			continue
		}
		m.latest[entry.Symbol] = records[len(records)-1]
	}
	m.lastRebuildDate = time.Now().UTC().Format("2006-01-02")
	return nil
}

// checkAsset projects the asset's latest snapshot, and if the live price
// has moved within alerting distance of the next buy target and no alert
// has already been sent for that (symbol, target) pair today, notifies.
func (m *Monitor) checkAsset(ctx context.Context, entry UniverseEntry) {
	last, ok := m.latest[entry.Symbol]
	if !ok {
		return
	}

	recent, err := m.Source.Recent(ctx, entry.Symbol, 1)
	if err != nil || len(recent) == 0 {
		log.Debug().Str("symbol", entry.Symbol).Err(err).Msg("monitor: current price fetch failed")
		return
	}
	currentPrice := recent[len(recent)-1].Close

	projector := AlertProjector{}
	snap := projector.Project(entry.Symbol, entry.Rank, entry.MarketCapUSD, last)
	if !snap.HasNextBuy || !snap.HasDistance {
		return
	}

	const alertDistancePct = 5.0
	livePrice := decimal.NewFromFloat(currentPrice)
	distancePct := livePrice.Sub(snap.NextBuyPrice).Div(snap.NextBuyPrice).Mul(decimal.NewFromInt(100))
	dist, _ := distancePct.Float64()
	if dist < 0 {
		dist = -dist
	}
	if dist > alertDistancePct {
		return
	}

	today := time.Now().UTC().Format("2006-01-02")
	lastSent, sentOK, err := m.History.LastSent(ctx, entry.Symbol, snap.NextBuyTarget)
	if err != nil {
		log.Warn().Str("symbol", entry.Symbol).Err(err).Msg("monitor: alert history read failed")
		return
	}
	if sentOK && lastSent == today {
		return
	}

	msg := AlertMessage{
		Symbol:       entry.Symbol,
		Rank:         entry.Rank,
		CurrentPrice: livePrice,
		TargetLevel:  snap.NextBuyTarget,
		TargetPrice:  snap.NextBuyPrice,
		DistancePct:  distancePct,
		ReferenceH:   snap.ReferenceH,
	}
	if err := m.Notifier.Notify(ctx, msg); err != nil {
		log.Warn().Str("symbol", entry.Symbol).Err(err).Msg("monitor: notify failed (retries exhausted)")
		return
	}
	if err := m.History.MarkSent(ctx, entry.Symbol, snap.NextBuyTarget, today); err != nil {
		log.Warn().Str("symbol", entry.Symbol).Err(err).Msg("monitor: alert history write failed")
	}
}
