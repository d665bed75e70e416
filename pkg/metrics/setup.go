package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Server      *http.Server
	Registry    *prometheus.Registry
	serviceName string

	// SearchesTotal counts similarity searches by outcome ("ok", "empty",
	// "error").
	SearchesTotal *prometheus.CounterVec

	// SearchDuration tracks end-to-end similarity search latency,
	// embedding included.
	SearchDuration prometheus.Histogram

	// SyncAddedTotal counts catalog records inserted into the vector
	// index by synchronization runs.
	SyncAddedTotal prometheus.Counter

	// EmbeddingFailuresTotal counts per-record embedding failures that
	// were skipped during synchronization.
	EmbeddingFailuresTotal prometheus.Counter
}

func NewMetrics(cfg *Config) *Metrics {
	registry := prometheus.NewRegistry()

	wrappedRegistry := prometheus.WrapRegistererWith(prometheus.Labels{"service": cfg.ServiceName}, registry)

	if cfg.EnableDefaultCollectors {
		wrappedRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	m := &Metrics{
		Registry:    registry,
		serviceName: cfg.ServiceName,

		SearchesTotal: createCounterVec(
			prometheus.BuildFQName(cfg.Namespace, "", "searches_total"),
			"Similarity searches by outcome.",
			[]string{"outcome"},
		),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end similarity search latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		SyncAddedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "sync_added_total",
			Help:      "Catalog records inserted into the vector index by sync runs.",
		}),
		EmbeddingFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "embedding_failures_total",
			Help:      "Per-record embedding failures skipped during synchronization.",
		}),
	}

	wrappedRegistry.MustRegister(
		m.SearchesTotal,
		m.SearchDuration,
		m.SyncAddedTotal,
		m.EmbeddingFailuresTotal,
	)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	m.Server = &http.Server{
		Addr:    cfg.Address,
		Handler: handler,
	}

	return m
}
