package search

import (
	"github.com/shopvision/visearch/pkg/catalog"
	"github.com/shopvision/visearch/pkg/qdrant"
)

// DefaultLimit is the number of results returned when the caller does not
// ask for a specific count.
const DefaultLimit = 5

// Options control one similarity search.
type Options struct {
	// Limit caps the number of results. Zero or negative yields an empty
	// result set, not an error.
	Limit int

	// ScoreThreshold drops hits scoring below it. Values above 1.0 yield
	// an empty result set since cosine similarity cannot exceed 1.0.
	ScoreThreshold float64

	// Category restricts results to an exact, case-sensitive category
	// match. Empty means no restriction.
	Category string
}

func DefaultOptions() Options {
	return Options{Limit: DefaultLimit}
}

// Result is one ranked similarity hit.
type Result struct {
	Product catalog.Product `json:"product"`

	// Score is the cosine similarity rounded to 3 decimals for
	// presentation. Rounding never alters the ranking order.
	Score float64 `json:"score"`

	// Image is the display reference: the stored public URL when one
	// exists, else a local-serving path.
	Image string `json:"image"`
}

// Health is the service status snapshot exposed to the routing layer.
type Health struct {
	Status     string                  `json:"status"`
	Collection *qdrant.CollectionStats `json:"collection,omitempty"`
	Storage    string                  `json:"storage"`
	Products   int                     `json:"products"`
}
