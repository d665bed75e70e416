package qdrant

// PointRecord is one product staged for insertion: string identifier,
// embedding vector, and metadata payload.
type PointRecord struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// StoredPoint is a point read back from the index. ID carries the recovered
// string identifier (payload original_id, falling back to the raw numeric id
// when absent).
type StoredPoint struct {
	ID      string
	Payload map[string]any
}

// SearchHit is a single similarity search result.
type SearchHit struct {
	// ID is the recovered string identifier of the matched product.
	ID string

	// Score is the cosine similarity score (range [-1, 1], higher = more similar).
	Score float32

	// Payload contains the metadata stored with the vector.
	Payload map[string]any
}

// SearchParams describes one similarity query against the index.
type SearchParams struct {
	// Vector is the query embedding.
	Vector []float32

	// Limit is the maximum number of results to return.
	Limit int

	// ScoreThreshold excludes results scoring below it.
	ScoreThreshold float32

	// Category, when non-empty, restricts results to points whose payload
	// category equals it exactly (case-sensitive).
	Category string
}

// CollectionStats describes the configured collection, used for liveness
// checks and the health endpoint.
type CollectionStats struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Points     uint64 `json:"points_count"`
	VectorSize int    `json:"vector_size"`
	Distance   string `json:"distance_metric"`
}
