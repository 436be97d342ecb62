package corrector

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricCorrectionRunsTotal       = "ranking_correction_runs_total"
	MetricCorrectionErrors          = "ranking_correction_errors_total"
	MetricCorrectionDuration        = "ranking_correction_duration_seconds"
	MetricLastCorrectionTimestamp   = "ranking_last_correction_timestamp"
	MetricLastCorrectionUpdateCount = "ranking_last_correction_update_count"
)

// Metrics contains Prometheus metrics for the batch ranking corrector.
// All operations are thread-safe.
type Metrics struct {
	runsTotal           prometheus.Counter
	runErrors           prometheus.Counter
	runDuration         prometheus.Histogram
	lastRunTimestamp    prometheus.Gauge
	lastRunUpdatedCount prometheus.Gauge
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		runsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCorrectionRunsTotal,
			Help: "Total number of batch ranking correction runs",
		}),
		runErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCorrectionErrors,
			Help: "Total number of batch ranking correction errors",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricCorrectionDuration,
			Help:    "Histogram of batch ranking correction run duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
		}),
		lastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricLastCorrectionTimestamp,
			Help: "Unix timestamp of the last completed correction run",
		}),
		lastRunUpdatedCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricLastCorrectionUpdateCount,
			Help: "Number of content records updated in the last correction run",
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.runsTotal,
		m.runErrors,
		m.runDuration,
		m.lastRunTimestamp,
		m.lastRunUpdatedCount,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncRunsTotal increments the correction runs counter.
func (m *Metrics) IncRunsTotal() {
	m.runsTotal.Inc()
}

// IncRunErrors increments the correction errors counter.
func (m *Metrics) IncRunErrors() {
	m.runErrors.Inc()
}

// ObserveRunDuration records a correction run duration sample.
func (m *Metrics) ObserveRunDuration(seconds float64) {
	m.runDuration.Observe(seconds)
}

// SetLastRunTimestamp sets the last run timestamp gauge.
func (m *Metrics) SetLastRunTimestamp(ts float64) {
	m.lastRunTimestamp.Set(ts)
}

// SetLastRunUpdatedCount sets the last run updated-count gauge.
func (m *Metrics) SetLastRunUpdatedCount(count float64) {
	m.lastRunUpdatedCount.Set(count)
}
