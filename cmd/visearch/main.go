// Command visearch runs the visual similarity search service: an HTTP API
// over a Qdrant-backed vector index of product images.
package main

import (
	"context"

	"go.uber.org/fx"

	"github.com/shopvision/visearch/pkg/config"
	"github.com/shopvision/visearch/pkg/embedding"
	"github.com/shopvision/visearch/pkg/ingest"
	"github.com/shopvision/visearch/pkg/logger"
	"github.com/shopvision/visearch/pkg/metrics"
	"github.com/shopvision/visearch/pkg/qdrant"
	"github.com/shopvision/visearch/pkg/search"
	"github.com/shopvision/visearch/pkg/server"
	"github.com/shopvision/visearch/pkg/storage"
	"github.com/shopvision/visearch/pkg/tracer"
)

func main() {
	app := fx.New(
		config.FXModule,
		logger.FXModule,
		tracer.FXModule,
		metrics.FXModule,
		qdrant.FXModule,
		embedding.FXModule,
		storage.FXModule,
		ingest.FXModule,
		search.FXModule,
		server.FXModule,
		fx.Invoke(registerStartupSync),
	)

	app.Run()
}

// registerStartupSync brings the index up to date with the catalog once the
// application has started. Runs in the background so a large catalog does
// not delay serving.
func registerStartupSync(lc fx.Lifecycle, sync *ingest.Synchronizer, trc *tracer.Tracer, log *logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				spanCtx, span := trc.StartSpan(context.Background(), "startup-sync")
				defer span.End()

				added, err := sync.SyncManifestToIndex(spanCtx)
				if err != nil {
					trc.RecordErrorOnSpan(span, err)
					log.Error("startup catalog sync failed", err, nil)
					return
				}

				orphans, err := sync.DiscoverOrphanImages(spanCtx)
				if err != nil {
					trc.RecordErrorOnSpan(span, err)
					log.Error("startup orphan discovery failed", err, nil)
					return
				}

				trc.SetAttributes(span, map[string]interface{}{
					"sync.added":   added,
					"sync.orphans": orphans,
				})
				log.Info("startup sync complete", nil, map[string]interface{}{
					"added":   added,
					"orphans": orphans,
				})
			}()
			return nil
		},
	})
}
