package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RecordSearch records one similarity search with its outcome and duration.
func (m *Metrics) RecordSearch(outcome string, start time.Time) {
	m.SearchesTotal.WithLabelValues(outcome).Inc()
	m.SearchDuration.Observe(time.Since(start).Seconds())
}

// RecordSyncAdded records the number of records a sync run inserted.
func (m *Metrics) RecordSyncAdded(count int) {
	m.SyncAddedTotal.Add(float64(count))
}

// RecordEmbeddingFailure records one skipped record.
func (m *Metrics) RecordEmbeddingFailure() {
	m.EmbeddingFailuresTotal.Inc()
}

// createCounterVec defines a new CounterVec with standard options.
func createCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: name,
			Help: help,
		},
		labels,
	)
}
