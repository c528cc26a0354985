// Package metrics exposes the sniper's Prometheus instrumentation:
//
//	sniper_scan_duration_seconds      – histogram of full scan cycles
//	sniper_tickers_scanned_total      – tickers examined, by outcome (ok|filtered|no_data)
//	sniper_entry_signals{signal}      – current count of entry signals by class
//	sniper_exit_signals_total{rule}   – exit rules fired (stop_loss, take_profit, ...)
//	sniper_ratchet_moves_total        – persisted peak-price updates
//	sniper_scan_errors_total          – scan cycles that ended in error
//
// All collectors are registered at import time and served by the UI
// process at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sniper_scan_duration_seconds",
		Help:    "Duration of a full scan cycle",
		Buckets: prometheus.DefBuckets,
	})

	TickersScanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sniper_tickers_scanned_total",
		Help: "Tickers examined, split by analysis outcome",
	}, []string{"outcome"})

	EntrySignals = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sniper_entry_signals",
		Help: "Entry signals in the latest scan, split by class",
	}, []string{"signal"})

	ExitSignals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sniper_exit_signals_total",
		Help: "Exit rules fired across all scans",
	}, []string{"rule"})

	RatchetMoves = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sniper_ratchet_moves_total",
		Help: "Peak-price ratchet updates persisted",
	})

	ScanErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sniper_scan_errors_total",
		Help: "Scan cycles that ended in error",
	})
)
