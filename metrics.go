// FILE: metrics.go
// Package main – Prometheus metrics, carried forward from the teacher's
// metrics.go (package-level Vec declarations + init() registration),
// relabeled for the ladder domain (SPEC_FULL.md §9.3).
package main

import "github.com/prometheus/client_golang/prometheus"

var (
	metricEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ladder_events_total",
		Help: "Count of ladder events emitted by the replay engine.",
	}, []string{"event", "symbol"})

	metricRestarts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ladder_restarts_total",
		Help: "Count of RESTART transitions (wait->high) per symbol.",
	}, []string{"symbol"})

	metricFreezes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ladder_freezes_total",
		Help: "Count of freeze transitions (high->wait) per symbol.",
	}, []string{"symbol"})

	metricReplaySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ladder_replay_seconds",
		Help:    "Wall-clock duration of a single-asset replay.",
		Buckets: prometheus.DefBuckets,
	})

	metricAlertsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "alerts_sent_total",
		Help: "Count of alerts successfully delivered, by transport.",
	}, []string{"transport"})

	metricAlertFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "alert_delivery_failures_total",
		Help: "Count of alert delivery failures after retry exhaustion, by transport.",
	}, []string{"transport"})

	metricMonitorTickSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "monitor_tick_seconds",
		Help:    "Wall-clock duration of one realtime monitor tick.",
		Buckets: prometheus.DefBuckets,
	})

	metricBatchAssetsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "batch_assets_skipped_total",
		Help: "Count of assets skipped during a batch replay due to errors or empty streams.",
	})
)

func init() {
	prometheus.MustRegister(
		metricEvents,
		metricRestarts,
		metricFreezes,
		metricReplaySeconds,
		metricAlertsSent,
		metricAlertFailures,
		metricMonitorTickSeconds,
		metricBatchAssetsSkipped,
	)
}
