package server

import (
	"context"
	"net/http"

	"go.uber.org/fx"

	"github.com/shopvision/visearch/pkg/ingest"
	"github.com/shopvision/visearch/pkg/logger"
	"github.com/shopvision/visearch/pkg/search"
	"github.com/shopvision/visearch/pkg/storage"
	"github.com/shopvision/visearch/pkg/tracer"
)

type Params struct {
	fx.In

	Config   *Config
	Engine   *search.Engine
	Ingestor *ingest.Synchronizer
	Store    storage.Store
	Logger   *logger.Logger
	Tracer   *tracer.Tracer
}

func newServerFromParams(p Params) *Server {
	return NewServer(p.Config, p.Engine, p.Ingestor, p.Store, p.Logger, p.Tracer)
}

var FXModule = fx.Module("server",
	fx.Provide(newServerFromParams),
	fx.Invoke(RegisterServerLifecycle),
)

// RegisterServerLifecycle starts the API server on application start and
// shuts it down gracefully on stop.
func RegisterServerLifecycle(lc fx.Lifecycle, s *Server, log *logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("starting API server", nil, map[string]interface{}{
					"address": s.httpServer.Addr,
				})

				if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("API server failed", err, nil)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down API server", nil, nil)
			shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
			defer cancel()
			return s.httpServer.Shutdown(shutdownCtx)
		},
	})
}
