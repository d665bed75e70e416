package storage

import (
	"context"

	"go.uber.org/fx"

	"github.com/shopvision/visearch/pkg/logger"
)

type Params struct {
	fx.In

	Config *Config
	Logger *logger.Logger
}

func newStoreFromParams(p Params) (Store, error) {
	return NewStore(context.Background(), StoreParams{
		Config: p.Config,
		Logger: p.Logger,
	})
}

var FXModule = fx.Options(
	fx.Provide(newStoreFromParams),
)
