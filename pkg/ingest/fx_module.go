package ingest

import (
	"go.uber.org/fx"

	"github.com/shopvision/visearch/pkg/embedding"
	"github.com/shopvision/visearch/pkg/logger"
	"github.com/shopvision/visearch/pkg/metrics"
	"github.com/shopvision/visearch/pkg/qdrant"
	"github.com/shopvision/visearch/pkg/storage"
)

type Params struct {
	fx.In

	Config  *Config
	Store   storage.Store
	Index   *qdrant.Index
	Encoder *embedding.Client
	Logger  *logger.Logger
	Metrics *metrics.Metrics
}

func newSynchronizerFromParams(p Params) *Synchronizer {
	return NewSynchronizer(p.Store, p.Index, p.Encoder, p.Logger, p.Metrics, p.Config)
}

var FXModule = fx.Options(
	fx.Provide(newSynchronizerFromParams),
)
