package search

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

	Index   *qdrant.Index
	Encoder *embedding.Client
	Store   storage.Store
	Logger  *logger.Logger
	Metrics *metrics.Metrics
}

func newEngineFromParams(p Params) *Engine {
	return NewEngine(p.Index, p.Encoder, p.Store, p.Logger, p.Metrics)
}

var FXModule = fx.Options(
	fx.Provide(newEngineFromParams),
)
