package config

import (
	"go.uber.org/fx"

	"github.com/shopvision/visearch/pkg/embedding"
	"github.com/shopvision/visearch/pkg/ingest"
	"github.com/shopvision/visearch/pkg/logger"
	"github.com/shopvision/visearch/pkg/metrics"
	"github.com/shopvision/visearch/pkg/qdrant"
	"github.com/shopvision/visearch/pkg/server"
	"github.com/shopvision/visearch/pkg/storage"
	"github.com/shopvision/visearch/pkg/tracer"
)

// FXModule loads the configuration once and hands each component its own
// section.
var FXModule = fx.Options(
	fx.Provide(
		Load,
		func(c *Config) logger.Config { return c.Logger },
		func(c *Config) *qdrant.Config { return &c.Qdrant },
		func(c *Config) *embedding.Config { return &c.Embedding },
		func(c *Config) *storage.Config { return &c.Storage },
		func(c *Config) *ingest.Config { return &c.Ingest },
		func(c *Config) *metrics.Config { return &c.Metrics },
		func(c *Config) *tracer.Config { return &c.Tracer },
		func(c *Config) *server.Config { return &c.Server },
	),
)
