package metrics

// Default address for the metrics server if none is specified.
const DefaultMetricsAddress = ":9090"

// Config controls how Prometheus metrics are exposed.
type Config struct {
	// Address is the network address the metrics HTTP server listens on,
	// e.g. ":9090" or "127.0.0.1:9100".
	Address string `yaml:"address" envconfig:"METRICS_ADDRESS"`

	// EnableDefaultCollectors registers the built-in Go runtime and
	// process collectors (goroutines, GC stats, CPU usage).
	EnableDefaultCollectors bool `yaml:"enable_default_collectors" envconfig:"METRICS_ENABLE_DEFAULT_COLLECTORS"`

	// Namespace prefixes all metrics registered by this service,
	// e.g. "visearch" → "visearch_searches_total".
	Namespace string `yaml:"namespace" envconfig:"METRICS_NAMESPACE"`

	// ServiceName is attached as a common label to all metrics to
	// distinguish services in shared Prometheus clusters.
	ServiceName string `yaml:"service_name" envconfig:"METRICS_SERVICE_NAME"`
}

func DefaultConfig() *Config {
	return &Config{
		Address:                 DefaultMetricsAddress,
		EnableDefaultCollectors: true,
		Namespace:               "visearch",
		ServiceName:             "visearch",
	}
}
