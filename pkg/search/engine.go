// Package search ranks catalog products by visual similarity to a query
// image.
package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopvision/visearch/pkg/catalog"
	"github.com/shopvision/visearch/pkg/embedding"
	"github.com/shopvision/visearch/pkg/qdrant"
	"github.com/shopvision/visearch/pkg/storage"
)

// listScanCap bounds full-catalog scans for listing and health endpoints.
const listScanCap = 1000

// Index is the subset of vector index operations the engine needs.
type Index interface {
	Search(ctx context.Context, params qdrant.SearchParams) ([]qdrant.SearchHit, error)
	GetAll(ctx context.Context, limit int) ([]qdrant.StoredPoint, error)
	Stats(ctx context.Context) (*qdrant.CollectionStats, error)
}

// Logger is the logging contract this package depends on.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Recorder receives search metrics. *metrics.Metrics satisfies it.
type Recorder interface {
	RecordSearch(outcome string, start time.Time)
}

type Engine struct {
	index    Index
	encoder  embedding.Provider
	store    storage.Store
	logger   Logger
	recorder Recorder
}

func NewEngine(index Index, encoder embedding.Provider, store storage.Store, logger Logger, recorder Recorder) *Engine {
	return &Engine{
		index:    index,
		encoder:  encoder,
		store:    store,
		logger:   logger,
		recorder: recorder,
	}
}

// FindSimilar embeds the query image and returns the closest catalog
// products, ranked by cosine similarity. The caller either gets a ranked
// (possibly empty) list or an error indicating services are unavailable.
func (e *Engine) FindSimilar(ctx context.Context, query embedding.ImageSource, opts Options) ([]Result, error) {
	start := time.Now()

	if opts.Limit <= 0 {
		e.recorder.RecordSearch("empty", start)
		return []Result{}, nil
	}
	// No cosine score can exceed 1.0.
	if opts.ScoreThreshold > 1.0 {
		e.recorder.RecordSearch("empty", start)
		return []Result{}, nil
	}

	vector, err := e.encoder.Encode(ctx, query)
	if err != nil {
		e.recorder.RecordSearch("error", start)
		return nil, fmt.Errorf("[Search] embed query: %w", err)
	}

	hits, err := e.index.Search(ctx, qdrant.SearchParams{
		Vector:         vector,
		Limit:          opts.Limit,
		ScoreThreshold: float32(opts.ScoreThreshold),
		Category:       opts.Category,
	})
	if err != nil {
		e.recorder.RecordSearch("error", start)
		return nil, fmt.Errorf("[Search] query index: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		product := catalog.FromPayload(hit.Payload)
		if product.ID == "" {
			product.ID = hit.ID
		}
		results = append(results, Result{
			Product: product,
			Score:   roundScore(float64(hit.Score)),
			Image:   e.displayImage(product),
		})
	}

	outcome := "ok"
	if len(results) == 0 {
		outcome = "empty"
	}
	e.recorder.RecordSearch(outcome, start)

	e.logger.Debug("similarity search completed", nil, map[string]interface{}{
		"results":   len(results),
		"limit":     opts.Limit,
		"category":  opts.Category,
		"threshold": opts.ScoreThreshold,
	})
	return results, nil
}

// ListProducts returns all indexed products, optionally filtered to one
// category (exact, case-sensitive), sorted by id.
func (e *Engine) ListProducts(ctx context.Context, category string) ([]catalog.Product, error) {
	products, err := e.allProducts(ctx)
	if err != nil {
		return nil, err
	}

	if category != "" {
		filtered := products[:0]
		for _, p := range products {
			if p.Category == category {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}

	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

// Categories returns the distinct, sorted set of categories across all
// indexed products.
func (e *Engine) Categories(ctx context.Context) ([]string, error) {
	products, err := e.allProducts(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Categories(products), nil
}

// Snapshot reports service health: collection stats plus storage backend
// reachability.
func (e *Engine) Snapshot(ctx context.Context) Health {
	health := Health{Status: "ok", Storage: "ok"}

	stats, err := e.index.Stats(ctx)
	if err != nil {
		e.logger.Warn("collection stats unavailable", err, nil)
		health.Status = "degraded"
	} else {
		health.Collection = stats
	}

	manifest, err := e.store.LoadManifest(ctx)
	if err != nil {
		e.logger.Warn("catalog storage unreachable", err, nil)
		health.Status = "degraded"
		health.Storage = "unreachable"
	} else {
		health.Products = len(manifest)
	}

	return health
}

func (e *Engine) allProducts(ctx context.Context) ([]catalog.Product, error) {
	points, err := e.index.GetAll(ctx, listScanCap)
	if err != nil {
		return nil, fmt.Errorf("[Search] scan products: %w", err)
	}

	products := make([]catalog.Product, 0, len(points))
	for _, pt := range points {
		product := catalog.FromPayload(pt.Payload)
		if product.ID == "" {
			product.ID = pt.ID
		}
		products = append(products, product)
	}
	return products, nil
}

// displayImage resolves the image reference shown to callers: the stored
// public URL when present, else a local-serving path.
func (e *Engine) displayImage(p catalog.Product) string {
	if p.ImageURL != "" {
		return p.ImageURL
	}
	filename := p.ImagePath
	if filename == "" {
		filename = p.ID + ".png"
	}
	return "/images/" + filename
}

// roundScore rounds a similarity score to 3 decimal places.
func roundScore(s float64) float64 {
	return math.Round(s*1000) / 1000
}
