package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/shopvision/visearch/pkg/catalog"
	"github.com/shopvision/visearch/pkg/embedding"
	"github.com/shopvision/visearch/pkg/productid"
	"github.com/shopvision/visearch/pkg/qdrant"
	"github.com/shopvision/visearch/pkg/storage"
)

// Index is the subset of vector index operations the synchronizer needs.
type Index interface {
	GetAll(ctx context.Context, limit int) ([]qdrant.StoredPoint, error)
	Upsert(ctx context.Context, record qdrant.PointRecord) error
	UpsertBatch(ctx context.Context, records []qdrant.PointRecord, batchSize int) (int, error)
	UpdateMetadata(ctx context.Context, id string, metadata map[string]any) error
}

// Logger is the logging contract this package depends on.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Recorder receives sync counters. *metrics.Metrics satisfies it.
type Recorder interface {
	RecordSyncAdded(count int)
	RecordEmbeddingFailure()
}

type Synchronizer struct {
	store    storage.Store
	index    Index
	encoder  embedding.Provider
	logger   Logger
	recorder Recorder
	cfg      Config
}

func NewSynchronizer(store storage.Store, index Index, encoder embedding.Provider, logger Logger, recorder Recorder, cfg *Config) *Synchronizer {
	return &Synchronizer{
		store:    store,
		index:    index,
		encoder:  encoder,
		logger:   logger,
		recorder: recorder,
		cfg:      cfg.withDefaults(),
	}
}

// SyncManifestToIndex inserts every manifest record the index does not hold
// yet and returns the number added. Per-record failures (missing image,
// embedding error) are logged and skipped, never aborting the run. Running
// twice over an unchanged catalog adds nothing the second time.
func (s *Synchronizer) SyncManifestToIndex(ctx context.Context) (int, error) {
	products, err := s.store.LoadManifest(ctx)
	if err != nil {
		return 0, fmt.Errorf("[Ingest] load manifest: %w", err)
	}

	existing, err := s.existingIDs(ctx)
	if err != nil {
		return 0, err
	}

	var pending []catalog.Product
	for _, p := range products {
		if _, ok := existing[p.ID]; !ok {
			pending = append(pending, p)
		}
	}

	if len(pending) == 0 {
		s.logger.Info("catalog already in sync", nil, map[string]interface{}{
			"products": len(products),
		})
		return 0, nil
	}

	staged, _ := s.embedProducts(ctx, pending)
	if len(staged) == 0 {
		return 0, nil
	}

	added, err := s.index.UpsertBatch(ctx, staged, s.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("[Ingest] batch insert: %w", err)
	}

	s.recorder.RecordSyncAdded(added)
	s.logger.Info("catalog synchronized", nil, map[string]interface{}{
		"added":   added,
		"skipped": len(pending) - len(staged),
	})
	return added, nil
}

// DiscoverOrphanImages indexes stored images that have no catalog record,
// synthesizing a minimal placeholder for each. On backends that write back
// the manifest, discovered placeholders are appended so future loads see
// them as first-class catalog entries.
func (s *Synchronizer) DiscoverOrphanImages(ctx context.Context) (int, error) {
	names, err := s.store.ListImages(ctx)
	if err != nil {
		return 0, fmt.Errorf("[Ingest] list images: %w", err)
	}

	existing, err := s.existingIDs(ctx)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]struct{})
	var orphans []catalog.Product
	for _, name := range names {
		id := strings.TrimSuffix(name, filepath.Ext(name))
		if id == "" {
			continue
		}
		if _, ok := existing[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		orphans = append(orphans, catalog.Placeholder(id, name))
	}

	if len(orphans) == 0 {
		s.logger.Debug("no orphan images found", nil, nil)
		return 0, nil
	}

	staged, stagedProducts := s.embedProducts(ctx, orphans)
	if len(staged) == 0 {
		return 0, nil
	}

	added, err := s.index.UpsertBatch(ctx, staged, s.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("[Ingest] batch insert orphans: %w", err)
	}
	s.recorder.RecordSyncAdded(added)

	s.logger.Info("orphan images indexed", nil, map[string]interface{}{
		"added": added,
	})

	if s.store.WritesBackManifest() {
		if err := s.appendToManifest(ctx, stagedProducts); err != nil {
			return added, err
		}
	}

	return added, nil
}

// AddUploadedImage registers a single uploaded image as a new catalog
// product: it assigns the next sequential id, persists the image, embeds it,
// inserts the point, and appends the record to the manifest.
func (s *Synchronizer) AddUploadedImage(ctx context.Context, filename string, data []byte, info catalog.Product) (catalog.Product, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !storage.SupportedImageExt(ext) {
		return catalog.Product{}, fmt.Errorf("[Ingest] unsupported image type %q", ext)
	}

	manifest, err := s.store.LoadManifest(ctx)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("[Ingest] load manifest: %w", err)
	}

	ids := make([]string, len(manifest))
	for i, p := range manifest {
		ids[i] = p.ID
	}

	product := info
	product.ID = productid.Next(ids)
	if product.Name == "" {
		product.Name = "Product " + product.ID
	}

	imagePath, err := s.store.SaveImage(ctx, product.ID+ext, data)
	if err != nil {
		return catalog.Product{}, err
	}
	product.ImagePath = imagePath
	if url := s.store.ImageURL(imagePath); url != "" {
		product.ImageURL = url
	}

	vector, err := s.encoder.Encode(ctx, embedding.FromBytes(data))
	if err != nil {
		s.recorder.RecordEmbeddingFailure()
		return catalog.Product{}, fmt.Errorf("[Ingest] embed uploaded image: %w", err)
	}

	if err := s.index.Upsert(ctx, qdrant.PointRecord{
		ID:      product.ID,
		Vector:  vector,
		Payload: product.Payload(),
	}); err != nil {
		return catalog.Product{}, fmt.Errorf("[Ingest] index uploaded product: %w", err)
	}

	manifest = append(manifest, product)
	if err := s.store.SaveManifest(ctx, manifest); err != nil {
		return catalog.Product{}, err
	}

	s.logger.Info("product added from upload", nil, map[string]interface{}{
		"id":         product.ID,
		"image_path": product.ImagePath,
	})
	return product, nil
}

// existingIDs loads the ids already present in the index, bounded by the
// configured scan cap.
func (s *Synchronizer) existingIDs(ctx context.Context) (map[string]struct{}, error) {
	points, err := s.index.GetAll(ctx, s.cfg.ExistingScanCap)
	if err != nil {
		return nil, fmt.Errorf("[Ingest] scan existing points: %w", err)
	}

	ids := make(map[string]struct{}, len(points))
	for _, pt := range points {
		ids[pt.ID] = struct{}{}
	}
	return ids, nil
}

// embedProducts resolves and embeds product images with bounded concurrency.
// Failures are logged and the record skipped; the returned slices contain
// only successes and are index-aligned with each other. Successes keep the
// input order.
func (s *Synchronizer) embedProducts(ctx context.Context, products []catalog.Product) ([]qdrant.PointRecord, []catalog.Product) {
	type staged struct {
		record  qdrant.PointRecord
		product catalog.Product
	}
	// Each worker writes its own slot, so no locking is needed.
	results := make([]*staged, len(products))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.EmbedConcurrency)

	for i, p := range products {
		g.Go(func() error {
			src, ok := s.store.ResolveImage(gctx, p)
			if !ok {
				s.logger.Warn("no image found for product, skipping", nil, map[string]interface{}{
					"id": p.ID,
				})
				return nil
			}

			vector, err := s.encoder.Encode(gctx, src)
			if err != nil {
				s.recorder.RecordEmbeddingFailure()
				s.logger.Warn("embedding failed for product, skipping", err, map[string]interface{}{
					"id": p.ID,
				})
				return nil
			}

			if p.ImagePath == "" && src.Path != "" {
				p.ImagePath = filepath.Base(src.Path)
			}
			if p.ImageURL == "" && src.URL != "" {
				p.ImageURL = src.URL
			}

			results[i] = &staged{
				record:  qdrant.PointRecord{ID: p.ID, Vector: vector, Payload: p.Payload()},
				product: p,
			}
			return nil
		})
	}
	// Workers never return errors; Wait only synchronizes completion.
	_ = g.Wait()

	var records []qdrant.PointRecord
	var kept []catalog.Product
	for _, r := range results {
		if r != nil {
			records = append(records, r.record)
			kept = append(kept, r.product)
		}
	}
	return records, kept
}

// appendToManifest adds newly discovered products to the manifest, skipping
// any id the manifest already holds.
func (s *Synchronizer) appendToManifest(ctx context.Context, products []catalog.Product) error {
	manifest, err := s.store.LoadManifest(ctx)
	if err != nil {
		return fmt.Errorf("[Ingest] load manifest for write-back: %w", err)
	}

	known := make(map[string]struct{}, len(manifest))
	for _, p := range manifest {
		known[p.ID] = struct{}{}
	}

	appended := 0
	for _, p := range products {
		if _, ok := known[p.ID]; ok {
			continue
		}
		manifest = append(manifest, p)
		appended++
	}

	if appended == 0 {
		return nil
	}

	if err := s.store.SaveManifest(ctx, manifest); err != nil {
		return fmt.Errorf("[Ingest] write back manifest: %w", err)
	}

	s.logger.Info("discovered products written back to manifest", nil, map[string]interface{}{
		"appended": appended,
	})
	return nil
}
