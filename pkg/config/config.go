// Package config centralizes configuration loading. Every component's
// Config is aggregated here and populated from environment variables, with
// required-field validation that is fatal at startup.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/shopvision/visearch/pkg/embedding"
	"github.com/shopvision/visearch/pkg/ingest"
	"github.com/shopvision/visearch/pkg/logger"
	"github.com/shopvision/visearch/pkg/metrics"
	"github.com/shopvision/visearch/pkg/qdrant"
	"github.com/shopvision/visearch/pkg/server"
	"github.com/shopvision/visearch/pkg/storage"
	"github.com/shopvision/visearch/pkg/tracer"
)

type Config struct {
	Logger    logger.Config    `yaml:"logger"`
	Qdrant    qdrant.Config    `yaml:"qdrant"`
	Embedding embedding.Config `yaml:"embedding"`
	Storage   storage.Config   `yaml:"storage"`
	Ingest    ingest.Config    `yaml:"ingest"`
	Metrics   metrics.Config   `yaml:"metrics"`
	Tracer    tracer.Config    `yaml:"tracer"`
	Server    server.Config    `yaml:"server"`
}

// Load builds the configuration from defaults overlaid with environment
// variables, then validates it.
func Load() (*Config, error) {
	cfg := defaults()

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("[Config] process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Logger: logger.Config{
			Level:       logger.Info,
			ServiceName: "visearch",
		},
		Qdrant:    *qdrant.DefaultConfig(),
		Embedding: *embedding.DefaultConfig(),
		Storage:   *storage.DefaultConfig(),
		Ingest:    *ingest.DefaultConfig(),
		Metrics:   *metrics.DefaultConfig(),
		Tracer:    *tracer.DefaultConfig(),
		Server:    *server.DefaultConfig(),
	}
}

// Validate enforces required settings. Missing required backend settings
// are configuration errors, never silently defaulted.
func (c *Config) Validate() error {
	if c.Storage.Backend == storage.BackendObject && c.Storage.Object.Bucket == "" {
		return fmt.Errorf("[Config] object storage enabled but no bucket configured")
	}
	if err := c.Embedding.Validate(); err != nil {
		return fmt.Errorf("[Config] embedding: %w", err)
	}
	if c.Qdrant.Collection == "" {
		return fmt.Errorf("[Config] qdrant collection name cannot be empty")
	}
	return nil
}
