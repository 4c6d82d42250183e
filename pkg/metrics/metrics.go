// Package metrics exposes Prometheus counters for gazette processing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records pipeline activity.
type Metrics struct {
	// Gazettes previewed or committed, by format, stage and outcome
	GazettesProcessed *prometheus.CounterVec

	// Transactions produced by previews, by type
	Transactions *prometheus.CounterVec

	// Non-fatal diagnostics, by kind
	Diagnostics *prometheus.CounterVec

	// Preview and commit latency by stage
	StageLatency *prometheus.HistogramVec
}

// New registers the gazette metrics with registerer. Pass
// prometheus.DefaultRegisterer to serve them from promhttp.Handler().
func New(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		GazettesProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gazette_processed_total",
			Help: "Gazettes previewed or committed by format, stage and outcome",
		}, []string{"format", "stage", "outcome"}), // stage: "preview", "commit"

		Transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gazette_transactions_total",
			Help: "Transactions produced by previews by type",
		}, []string{"type"}),

		Diagnostics: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gazette_diagnostics_total",
			Help: "Non-fatal diagnostics by kind",
		}, []string{"kind"}),

		StageLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gazette_stage_duration_seconds",
			Help:    "Duration of preview and commit operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"stage"}),
	}
}

// IncrementProcessed records one gazette passing through a stage.
func (m *Metrics) IncrementProcessed(format, stage, outcome string) {
	if m != nil {
		m.GazettesProcessed.WithLabelValues(format, stage, outcome).Inc()
	}
}

// AddTransactions records count transactions of one type.
func (m *Metrics) AddTransactions(transactionType string, count int) {
	if m != nil && count > 0 {
		m.Transactions.WithLabelValues(transactionType).Add(float64(count))
	}
}

// IncrementDiagnostic records one diagnostic.
func (m *Metrics) IncrementDiagnostic(kind string) {
	if m != nil {
		m.Diagnostics.WithLabelValues(kind).Inc()
	}
}

// ObserveStageLatency records how long a stage took.
func (m *Metrics) ObserveStageLatency(stage string, d time.Duration) {
	if m != nil {
		m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
	}
}
