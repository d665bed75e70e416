package qdrant

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"

	qdrant "github.com/qdrant/go-client/qdrant"

	"github.com/shopvision/visearch/pkg/productid"
)

// Index provides product-level operations on the configured collection.
// All write and point-lookup paths translate string product identifiers into
// numeric point IDs through the productid codec.
type Index struct {
	client *QdrantClient
}

// NewIndex initializes the index and ensures the configured collection exists.
func NewIndex(client *QdrantClient) (*Index, error) {
	idx := &Index{client: client}

	if err := idx.EnsureCollection(context.Background()); err != nil {
		return nil, fmt.Errorf("[Qdrant] failed to ensure collection: %w", err)
	}

	log.Printf("[Qdrant] Index ready (collection=%s, dim=%d)", client.cfg.Collection, client.cfg.VectorSize)
	return idx, nil
}

// Collection returns the collection name this index operates on.
func (x *Index) Collection() string {
	return x.client.cfg.Collection
}

// EnsureCollection verifies the configured collection exists and creates it
// if missing.
//
// Safe to call multiple times. A creation failure caused by a concurrent
// caller winning the race ("already exists") is treated as success, not an
// error. Schema (dimension, distance) is fixed here and never altered in
// place; RecreateCollection is the only destructive reset path.
func (x *Index) EnsureCollection(ctx context.Context) error {
	name := x.client.cfg.Collection
	if name == "" {
		return fmt.Errorf("collection name cannot be empty")
	}

	collections, err := x.client.api.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("[Qdrant] failed to list collections: %w", err)
	}

	if slices.Contains(collections, name) {
		log.Printf("[Qdrant] Collection '%s' already exists", name)
		return nil
	}

	log.Printf("[Qdrant] Collection '%s' not found, creating it...", name)

	if err := x.createCollection(ctx, name); err != nil {
		if isAlreadyExists(err) {
			log.Printf("[Qdrant] Collection '%s' created concurrently, continuing", name)
			return nil
		}
		return fmt.Errorf("[Qdrant] failed to create collection '%s': %w", name, err)
	}

	log.Printf("[Qdrant] Created collection '%s' successfully", name)
	return nil
}

// RecreateCollection deletes and recreates the collection, wiping all points.
// Explicit resets only.
func (x *Index) RecreateCollection(ctx context.Context) error {
	name := x.client.cfg.Collection

	if err := x.client.api.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("[Qdrant] failed to delete collection '%s': %w", name, err)
	}

	if err := x.createCollection(ctx, name); err != nil {
		return fmt.Errorf("[Qdrant] failed to recreate collection '%s': %w", name, err)
	}

	log.Printf("[Qdrant] Recreated collection '%s'", name)
	return nil
}

func (x *Index) createCollection(ctx context.Context, name string) error {
	size := x.client.cfg.VectorSize
	if size == 0 {
		size = DefaultVectorSize
	}

	return x.client.api.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     size,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func isAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "file exists")
}

// Upsert inserts or overwrites the point for a single product.
//
// The product's string identifier is injected into the payload as
// "original_id", overwriting any caller-supplied value of that key.
func (x *Index) Upsert(ctx context.Context, record PointRecord) error {
	_, err := x.UpsertBatch(ctx, []PointRecord{record}, 1)
	return err
}

// UpsertBatch inserts products in chunks of batchSize (defaultBatchSize when
// batchSize <= 0) and returns the number of points written.
//
// A failure in any chunk aborts the whole call and reports zero progress;
// there is no partial-success accounting across chunks.
func (x *Index) UpsertBatch(ctx context.Context, records []PointRecord, batchSize int) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	total := 0
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		if err := x.upsertChunk(ctx, batch); err != nil {
			return 0, fmt.Errorf("[Qdrant] batch upsert failed at [%d:%d]: %w", start, end, err)
		}

		total += len(batch)
		log.Printf("[Qdrant] Inserted batch [%d:%d] (collection=%s)", start, end, x.client.cfg.Collection)
	}

	log.Printf("[Qdrant] Upserted %d points into %s", total, x.client.cfg.Collection)
	return total, nil
}

// upsertChunk sends a single Upsert request for a slice of records, blocking
// until persisted (Wait=true).
func (x *Index) upsertChunk(ctx context.Context, batch []PointRecord) error {
	points := make([]*qdrant.PointStruct, 0, len(batch))
	for _, r := range batch {
		num, canonical := productid.Encode(r.ID)
		if !canonical {
			log.Printf("[Qdrant] Non-canonical id '%s' hashed to %d (collision-possible)", r.ID, num)
		}

		payload := make(map[string]any, len(r.Payload)+1)
		for k, v := range r.Payload {
			payload[k] = v
		}
		payload["original_id"] = r.ID

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(num),
			Vectors: qdrant.NewVectors(r.Vector...),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	wait := true
	req := &qdrant.UpsertPoints{
		CollectionName: x.client.cfg.Collection,
		Points:         points,
		Wait:           &wait,
	}

	if _, err := x.client.api.Upsert(ctx, req); err != nil {
		return fmt.Errorf("[Qdrant] upsert failed: %w", err)
	}
	return nil
}

// Search performs a similarity search in the configured collection.
//
// Results come back ordered by descending cosine similarity, restricted to
// params.Category when set and excluding any point scoring below
// params.ScoreThreshold.
func (x *Index) Search(ctx context.Context, params SearchParams) ([]SearchHit, error) {
	if err := validateSearchInput(x.client.cfg.Collection, params.Vector, params.Limit); err != nil {
		return nil, err
	}

	limit := uint64(params.Limit)
	threshold := params.ScoreThreshold
	req := &qdrant.QueryPoints{
		CollectionName: x.client.cfg.Collection,
		Query:          qdrant.NewQuery(params.Vector...),
		Limit:          &limit,
		ScoreThreshold: &threshold,
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         buildFilter(categoryFilter(params.Category)),
	}

	resp, err := x.client.api.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] search failed: %w", err)
	}

	hits := make([]SearchHit, 0, len(resp))
	for _, r := range resp {
		payload := convertPayload(r.Payload)
		id, err := recoverID(r.Id, payload)
		if err != nil {
			return nil, fmt.Errorf("[Qdrant] search result: %w", err)
		}
		hits = append(hits, SearchHit{ID: id, Score: r.Score, Payload: payload})
	}

	log.Printf("[Qdrant] Search returned %d results", len(hits))
	return hits, nil
}

// GetAll scans the collection page by page until limit points have been read
// or the index reports no more data. A page returning fewer items than
// requested is the end-of-data signal; the scan never silently truncates
// below limit while data remains.
func (x *Index) GetAll(ctx context.Context, limit int) ([]StoredPoint, error) {
	if limit <= 0 {
		return nil, nil
	}

	points := make([]StoredPoint, 0, min(limit, scrollPageSize))
	var offset *qdrant.PointId

	for len(points) < limit {
		pageSize := uint32(min(limit-len(points), scrollPageSize))
		resp, err := x.client.api.GetPointsClient().Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: x.client.cfg.Collection,
			Limit:          &pageSize,
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("[Qdrant] scroll failed: %w", err)
		}

		if len(resp.Result) == 0 {
			break
		}

		for _, p := range resp.Result {
			payload := convertPayload(p.Payload)
			id, err := recoverID(p.Id, payload)
			if err != nil {
				return nil, fmt.Errorf("[Qdrant] scroll result: %w", err)
			}
			points = append(points, StoredPoint{ID: id, Payload: payload})
		}

		if len(resp.Result) < int(pageSize) || resp.NextPageOffset == nil {
			break
		}
		offset = resp.NextPageOffset
	}

	log.Printf("[Qdrant] Retrieved %d points from %s", len(points), x.client.cfg.Collection)
	return points, nil
}

// GetByID retrieves a single product's point. Returns (nil, nil) when the
// product is not in the index.
func (x *Index) GetByID(ctx context.Context, id string) (*StoredPoint, error) {
	num, _ := productid.Encode(id)

	resp, err := x.client.api.Get(ctx, &qdrant.GetPoints{
		CollectionName: x.client.cfg.Collection,
		Ids:            []*qdrant.PointId{qdrant.NewIDNum(num)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] failed to retrieve point for '%s': %w", id, err)
	}

	if len(resp) == 0 {
		return nil, nil
	}

	payload := convertPayload(resp[0].Payload)
	recovered, err := recoverID(resp[0].Id, payload)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] retrieved point: %w", err)
	}

	return &StoredPoint{ID: recovered, Payload: payload}, nil
}

// Delete removes a product's point from the collection.
func (x *Index) Delete(ctx context.Context, id string) error {
	num, _ := productid.Encode(id)

	wait := true
	req := &qdrant.DeletePoints{
		CollectionName: x.client.cfg.Collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: []*qdrant.PointId{qdrant.NewIDNum(num)}},
			},
		},
		Wait: &wait,
	}

	resp, err := x.client.api.Delete(ctx, req)
	if err != nil {
		return fmt.Errorf("[Qdrant] delete failed for '%s': %w", id, err)
	}

	log.Printf("[Qdrant] Deleted '%s' (status=%s, collection=%s)", id, resp.Status.String(), x.client.cfg.Collection)
	return nil
}

// UpdateMetadata overwrites payload fields of an existing point without
// touching its vector. The original_id key is re-injected so round-trip
// identifier recovery survives metadata updates.
func (x *Index) UpdateMetadata(ctx context.Context, id string, metadata map[string]any) error {
	num, _ := productid.Encode(id)

	payload := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		payload[k] = v
	}
	payload["original_id"] = id

	wait := true
	req := &qdrant.SetPayloadPoints{
		CollectionName: x.client.cfg.Collection,
		Payload:        qdrant.NewValueMap(payload),
		PointsSelector: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: []*qdrant.PointId{qdrant.NewIDNum(num)}},
			},
		},
		Wait: &wait,
	}

	if _, err := x.client.api.SetPayload(ctx, req); err != nil {
		return fmt.Errorf("[Qdrant] failed to update metadata for '%s': %w", id, err)
	}

	log.Printf("[Qdrant] Updated metadata for '%s'", id)
	return nil
}

// Stats retrieves point count, configured dimension, distance metric and
// collection status. Used for liveness checks, not correctness-critical.
func (x *Index) Stats(ctx context.Context) (*CollectionStats, error) {
	name := x.client.cfg.Collection

	info, err := x.client.api.GetCollectionInfo(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] failed to get collection '%s': %w", name, err)
	}

	size, distance := extractVectorDetails(info)

	return &CollectionStats{
		Name:       name,
		Status:     info.Status.String(),
		Points:     derefUint64(info.PointsCount),
		VectorSize: size,
		Distance:   distance,
	}, nil
}
