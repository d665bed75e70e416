package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopvision/visearch/pkg/embedding"
	"github.com/shopvision/visearch/pkg/qdrant"
	"github.com/shopvision/visearch/pkg/storage"
)

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}

type fakeRecorder struct {
	outcomes []string
}

func (r *fakeRecorder) RecordSearch(outcome string, start time.Time) {
	r.outcomes = append(r.outcomes, outcome)
}

type fakeIndex struct {
	hits      []qdrant.SearchHit
	points    []qdrant.StoredPoint
	stats     *qdrant.CollectionStats
	err       error
	lastQuery qdrant.SearchParams
}

func (f *fakeIndex) Search(ctx context.Context, params qdrant.SearchParams) ([]qdrant.SearchHit, error) {
	f.lastQuery = params
	if f.err != nil {
		return nil, f.err
	}
	if params.Category == "" {
		return f.hits, nil
	}
	var out []qdrant.SearchHit
	for _, h := range f.hits {
		if cat, _ := h.Payload["category"].(string); cat == params.Category {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeIndex) GetAll(ctx context.Context, limit int) ([]qdrant.StoredPoint, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.points, nil
}

func (f *fakeIndex) Stats(ctx context.Context) (*qdrant.CollectionStats, error) {
	if f.stats == nil {
		return nil, errors.New("collection unavailable")
	}
	return f.stats, nil
}

type fakeEncoder struct {
	err   error
	calls int
}

func (f *fakeEncoder) Encode(ctx context.Context, image embedding.ImageSource) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.6, 0.8}, nil
}

func (f *fakeEncoder) EncodeBatch(ctx context.Context, images []embedding.ImageSource) ([][]float32, error) {
	return nil, errors.New("not used")
}

func newTestEngine(t *testing.T, index *fakeIndex, encoder *fakeEncoder) (*Engine, *fakeRecorder) {
	t.Helper()
	store := storage.NewLocalStore(storage.LocalConfig{
		ManifestPath: t.TempDir() + "/products.json",
		ImageDir:     t.TempDir(),
	}, nopLogger{})
	recorder := &fakeRecorder{}
	return NewEngine(index, encoder, store, nopLogger{}, recorder), recorder
}

func TestFindSimilarEdgeCases(t *testing.T) {
	index := &fakeIndex{hits: []qdrant.SearchHit{{ID: "product_001", Score: 0.9}}}
	encoder := &fakeEncoder{}
	engine, recorder := newTestEngine(t, index, encoder)
	ctx := context.Background()
	query := embedding.FromBytes([]byte("img"))

	// Non-positive limit yields empty without embedding.
	results, err := engine.FindSimilar(ctx, query, Options{Limit: 0})
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = engine.FindSimilar(ctx, query, Options{Limit: -3})
	require.NoError(t, err)
	assert.Empty(t, results)

	// Threshold above cosine's max yields empty without embedding.
	results, err = engine.FindSimilar(ctx, query, Options{Limit: 5, ScoreThreshold: 1.5})
	require.NoError(t, err)
	assert.Empty(t, results)

	assert.Zero(t, encoder.calls)
	assert.Equal(t, []string{"empty", "empty", "empty"}, recorder.outcomes)
}

func TestFindSimilarRanksAndRounds(t *testing.T) {
	index := &fakeIndex{hits: []qdrant.SearchHit{
		{
			ID:    "product_001",
			Score: 0.98765,
			Payload: map[string]any{
				"id": "product_001", "name": "Blue Shirt", "category": "Apparel",
				"image_url": "https://cdn.example.com/product_001.png",
			},
		},
		{
			ID:    "product_002",
			Score: 0.8444,
			Payload: map[string]any{
				"id": "product_002", "name": "Navy Shirt", "category": "Apparel",
				"image_path": "product_002.jpg",
			},
		},
		{
			ID:      "product_003",
			Score:   0.5,
			Payload: map[string]any{"id": "product_003", "name": "Bare"},
		},
	}}
	engine, recorder := newTestEngine(t, index, &fakeEncoder{})

	results, err := engine.FindSimilar(context.Background(), embedding.FromBytes([]byte("img")), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Order preserved, scores rounded to 3 decimals for presentation.
	assert.Equal(t, "product_001", results[0].Product.ID)
	assert.Equal(t, 0.988, results[0].Score)
	assert.Equal(t, 0.844, results[1].Score)
	assert.Equal(t, 0.5, results[2].Score)

	// Display rule: payload URL first, then stored filename, then id.
	assert.Equal(t, "https://cdn.example.com/product_001.png", results[0].Image)
	assert.Equal(t, "/images/product_002.jpg", results[1].Image)
	assert.Equal(t, "/images/product_003.png", results[2].Image)

	assert.Equal(t, []string{"ok"}, recorder.outcomes)
}

func TestFindSimilarUnknownCategory(t *testing.T) {
	index := &fakeIndex{hits: []qdrant.SearchHit{
		{ID: "product_001", Score: 0.9, Payload: map[string]any{"category": "Apparel"}},
	}}
	engine, recorder := newTestEngine(t, index, &fakeEncoder{})

	results, err := engine.FindSimilar(context.Background(), embedding.FromBytes([]byte("img")),
		Options{Limit: 5, Category: "Nonexistent"})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, "Nonexistent", index.lastQuery.Category)
	assert.Equal(t, []string{"empty"}, recorder.outcomes)
}

func TestFindSimilarErrors(t *testing.T) {
	t.Run("EmbeddingFailure", func(t *testing.T) {
		engine, recorder := newTestEngine(t, &fakeIndex{}, &fakeEncoder{err: errors.New("model down")})

		_, err := engine.FindSimilar(context.Background(), embedding.FromBytes([]byte("img")), DefaultOptions())
		assert.Error(t, err)
		assert.Equal(t, []string{"error"}, recorder.outcomes)
	})

	t.Run("IndexFailure", func(t *testing.T) {
		engine, recorder := newTestEngine(t, &fakeIndex{err: errors.New("connection refused")}, &fakeEncoder{})

		_, err := engine.FindSimilar(context.Background(), embedding.FromBytes([]byte("img")), DefaultOptions())
		assert.Error(t, err)
		assert.Equal(t, []string{"error"}, recorder.outcomes)
	})
}

func TestListProducts(t *testing.T) {
	index := &fakeIndex{points: []qdrant.StoredPoint{
		{ID: "product_002", Payload: map[string]any{"id": "product_002", "name": "Mug", "category": "Kitchen"}},
		{ID: "product_001", Payload: map[string]any{"id": "product_001", "name": "Shirt", "category": "Apparel"}},
		{ID: "product_003", Payload: map[string]any{"id": "product_003", "name": "Cap", "category": "Apparel"}},
	}}
	engine, _ := newTestEngine(t, index, &fakeEncoder{})
	ctx := context.Background()

	products, err := engine.ListProducts(ctx, "")
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "product_001", products[0].ID)
	assert.Equal(t, "product_003", products[2].ID)

	apparel, err := engine.ListProducts(ctx, "Apparel")
	require.NoError(t, err)
	require.Len(t, apparel, 2)

	// Category match is exact and case-sensitive.
	none, err := engine.ListProducts(ctx, "apparel")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCategories(t *testing.T) {
	index := &fakeIndex{points: []qdrant.StoredPoint{
		{ID: "1", Payload: map[string]any{"category": "Kitchen"}},
		{ID: "2", Payload: map[string]any{"category": "Apparel"}},
		{ID: "3", Payload: map[string]any{"category": "Kitchen"}},
		{ID: "4", Payload: map[string]any{}},
	}}
	engine, _ := newTestEngine(t, index, &fakeEncoder{})

	categories, err := engine.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Apparel", "Kitchen"}, categories)
}

func TestSnapshot(t *testing.T) {
	t.Run("Healthy", func(t *testing.T) {
		index := &fakeIndex{stats: &qdrant.CollectionStats{Name: "product_images", Status: "Green", Points: 42}}
		engine, _ := newTestEngine(t, index, &fakeEncoder{})

		health := engine.Snapshot(context.Background())
		assert.Equal(t, "ok", health.Status)
		require.NotNil(t, health.Collection)
		assert.Equal(t, uint64(42), health.Collection.Points)
	})

	t.Run("DegradedWhenIndexDown", func(t *testing.T) {
		engine, _ := newTestEngine(t, &fakeIndex{}, &fakeEncoder{})

		health := engine.Snapshot(context.Background())
		assert.Equal(t, "degraded", health.Status)
		assert.Nil(t, health.Collection)
	})
}
