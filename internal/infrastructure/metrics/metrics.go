package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine-level Prometheus metrics and implements
// usecase.MetricsRecorder.
type Metrics struct {
	ImportedTransactions *prometheus.CounterVec
	ImportDuplicates     *prometheus.CounterVec
	ImportSkipped        *prometheus.CounterVec

	TransfersMatched   prometheus.Counter
	TransfersAmbiguous prometheus.Counter

	SyncRuns     *prometheus.CounterVec
	SyncDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ImportedTransactions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgersync_transactions_imported_total",
			Help: "Ledger entries created by imports",
		}, []string{"provider"}),
		ImportDuplicates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgersync_import_duplicates_total",
			Help: "Records recognized as already imported",
		}, []string{"provider"}),
		ImportSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgersync_import_skipped_total",
			Help: "Records skipped during import",
		}, []string{"provider"}),

		TransfersMatched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledgersync_transfers_matched_total",
			Help: "Settlements paired with a bank entry",
		}),
		TransfersAmbiguous: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledgersync_transfers_ambiguous_total",
			Help: "Settlements skipped because multiple candidates matched",
		}),

		SyncRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgersync_sync_runs_total",
			Help: "Completed sync runs",
		}, []string{"provider"}),
		SyncDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledgersync_sync_duration_seconds",
			Help:    "Duration of sync runs",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"provider"}),
	}
}

// RecordImport records the outcome counts of one import batch.
func (m *Metrics) RecordImport(provider string, created, duplicate, skipped int) {
	m.ImportedTransactions.WithLabelValues(provider).Add(float64(created))
	m.ImportDuplicates.WithLabelValues(provider).Add(float64(duplicate))
	m.ImportSkipped.WithLabelValues(provider).Add(float64(skipped))
}

// RecordReconcile records the outcome of one reconciliation pass.
func (m *Metrics) RecordReconcile(matched, ambiguous int) {
	m.TransfersMatched.Add(float64(matched))
	m.TransfersAmbiguous.Add(float64(ambiguous))
}

// RecordSync records a completed sync run.
func (m *Metrics) RecordSync(provider string, seconds float64) {
	m.SyncRuns.WithLabelValues(provider).Inc()
	m.SyncDuration.WithLabelValues(provider).Observe(seconds)
}
