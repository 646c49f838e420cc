// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application. Metrics are
// registered on a private registry so tests and embedded uses never clash
// with the global default registry.
type Metrics struct {
	registry *prometheus.Registry

	// Backtest metrics
	RunsStarted   prometheus.Counter
	RunsCompleted prometheus.Counter
	RunsFailed    prometheus.Counter
	RunDuration   prometheus.Histogram

	// Sweep metrics
	SweepCells         *prometheus.CounterVec
	ActiveSweepWorkers prometheus.Gauge

	// Ingestion metrics
	BarsIngested prometheus.Counter
}

// NewMetrics creates a Metrics instance with all metrics registered on a
// fresh registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "pairs_trade_lab"
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		RunsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_started_total",
			Help:      "Total number of backtest runs started",
		}),
		RunsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_completed_total",
			Help:      "Total number of backtest runs completed successfully",
		}),
		RunsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_failed_total",
			Help:      "Total number of backtest runs that returned an error",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "run_duration_seconds",
			Help:      "Backtest run duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),

		SweepCells: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "cells_total",
			Help:      "Total number of sweep cells evaluated by status",
		}, []string{"status"}),
		ActiveSweepWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "active_workers",
			Help:      "Number of sweep worker goroutines currently evaluating cells",
		}),

		BarsIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "bars_ingested_total",
			Help:      "Total number of daily bars inserted",
		}),
	}
}

// Handler returns an HTTP handler serving this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRun records one finished backtest run.
func (m *Metrics) RecordRun(seconds float64, err error) {
	if err != nil {
		m.RunsFailed.Inc()
	} else {
		m.RunsCompleted.Inc()
	}
	m.RunDuration.Observe(seconds)
}

// RecordSweepCell counts one evaluated sweep cell.
func (m *Metrics) RecordSweepCell(failed bool) {
	status := "ok"
	if failed {
		status = "error"
	}
	m.SweepCells.WithLabelValues(status).Inc()
}
