// Package interaction applies the immediate, real-time effect of user
// interactions: one ledger append plus the online counter update.
package interaction

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricInteractionsTotal          = "interactions_total"
	MetricCounterUpdateFailuresTotal = "interaction_counter_update_failures_total"
	MetricLedgerAppendFailuresTotal  = "interaction_ledger_append_failures_total"
)

// Status constants for interaction recording.
const (
	StatusRecorded = "recorded"
	StatusRejected = "rejected"
	StatusDegraded = "degraded" // ledger or counter write failed but the request was not surfaced an error
)

// Metrics contains Prometheus metrics for interaction recording.
// All operations are thread-safe.
type Metrics struct {
	interactionsTotal     *prometheus.CounterVec
	counterUpdateFailures prometheus.Counter
	ledgerAppendFailures  prometheus.Counter
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		interactionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricInteractionsTotal,
				Help: "Total number of recorded interactions by type and status",
			},
			[]string{"type", "status"},
		),
		counterUpdateFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCounterUpdateFailuresTotal,
			Help: "Total number of online counter updates that failed after retry",
		}),
		ledgerAppendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricLedgerAppendFailuresTotal,
			Help: "Total number of ledger appends that failed after retry",
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.interactionsTotal,
		m.counterUpdateFailures,
		m.ledgerAppendFailures,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncInteraction increments the interactions counter for a type and status.
func (m *Metrics) IncInteraction(eventType, status string) {
	m.interactionsTotal.WithLabelValues(eventType, status).Inc()
}

// IncCounterUpdateFailure increments the counter update failure counter.
func (m *Metrics) IncCounterUpdateFailure() {
	m.counterUpdateFailures.Inc()
}

// IncLedgerAppendFailure increments the ledger append failure counter.
func (m *Metrics) IncLedgerAppendFailure() {
	m.ledgerAppendFailures.Inc()
}
