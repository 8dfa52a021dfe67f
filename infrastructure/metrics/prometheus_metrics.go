// Package metrics provides the Prometheus implementation of the engine's
// metrics collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/scholarseal/veritas/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It tracks per-signal extraction latency and availability,
// verdict outcomes, and isolation breaches.
type PrometheusMetrics struct {
	extractionLatency *prometheus.HistogramVec
	extractionCounter *prometheus.CounterVec
	verdictCounter    *prometheus.CounterVec
	breachCounter     prometheus.Counter
}

// NewPrometheusMetrics creates a PrometheusMetrics instance registered
// against the given registerer. Pass prometheus.DefaultRegisterer for the
// global registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		extractionLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "veritas_extraction_duration_seconds",
				Help:    "Execution time of signal extraction, per signal.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"signal"},
		),
		extractionCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "veritas_extractions_total",
				Help: "Total signal extractions, labeled by availability outcome.",
			},
			[]string{"signal", "outcome"},
		),
		verdictCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "veritas_verdicts_total",
				Help: "Total verdicts produced, labeled by status.",
			},
			[]string{"status"},
		),
		breachCounter: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "veritas_isolation_breaches_total",
				Help: "Total network isolation breaches detected in the sandbox.",
			},
		),
	}
}

// RecordExtraction records one extraction run for a signal.
func (pm *PrometheusMetrics) RecordExtraction(signal string, duration time.Duration, unavailable bool) {
	pm.extractionLatency.WithLabelValues(signal).Observe(duration.Seconds())
	outcome := "available"
	if unavailable {
		outcome = "unavailable"
	}
	pm.extractionCounter.WithLabelValues(signal, outcome).Inc()
}

// RecordVerdict records a completed verdict by status.
func (pm *PrometheusMetrics) RecordVerdict(status string) {
	pm.verdictCounter.WithLabelValues(status).Inc()
}

// RecordBreach records a detected isolation breach.
func (pm *PrometheusMetrics) RecordBreach() {
	pm.breachCounter.Inc()
}
