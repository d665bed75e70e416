package tracer

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

func newClientFromParams(p Params) *Tracer {
	return NewClient(p.Config, p.Logger)
}

var FXModule = fx.Module("tracer",
	fx.Provide(newClientFromParams),
	fx.Invoke(RegisterTracerLifecycle),
)

func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			tracer.logger.Info("shutting down tracer...", nil, nil)
			if tracer.provider == nil {
				tracer.logger.Warn("tracer was nil during shutdown", nil, nil)
				return nil
			}
			return tracer.provider.Shutdown(ctx)
		},
	})
}
