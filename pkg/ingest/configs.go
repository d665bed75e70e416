package ingest

const (
	// defaultExistingScanCap bounds the scan of already-indexed points
	// during a sync run. A known scalability limit, not a design target.
	defaultExistingScanCap = 1000

	defaultBatchSize        = 100
	defaultEmbedConcurrency = 4
)

// Config tunes synchronization behavior.
type Config struct {
	// ExistingScanCap caps how many existing index points a sync run
	// loads for the membership check.
	ExistingScanCap int `yaml:"existing_scan_cap" envconfig:"INGEST_EXISTING_SCAN_CAP"`

	// BatchSize is the chunk size for batch insertions.
	BatchSize int `yaml:"batch_size" envconfig:"INGEST_BATCH_SIZE"`

	// EmbedConcurrency bounds concurrent embedding requests during sync.
	EmbedConcurrency int `yaml:"embed_concurrency" envconfig:"INGEST_EMBED_CONCURRENCY"`
}

func DefaultConfig() *Config {
	return &Config{
		ExistingScanCap:  defaultExistingScanCap,
		BatchSize:        defaultBatchSize,
		EmbedConcurrency: defaultEmbedConcurrency,
	}
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.ExistingScanCap <= 0 {
		out.ExistingScanCap = defaultExistingScanCap
	}
	if out.BatchSize <= 0 {
		out.BatchSize = defaultBatchSize
	}
	if out.EmbedConcurrency <= 0 {
		out.EmbedConcurrency = defaultEmbedConcurrency
	}
	return out
}
