// Package catalog defines the canonical product record and the manifest
// format shared by both storage backends.
package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Product is the canonical catalog entity. The manifest (local file or remote
// object) is a JSON array of these records; the same fields, plus the
// original identifier, travel into the vector index payload.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`

	// ImagePath is the image filename co-located with the manifest.
	ImagePath string `json:"image_path"`

	// ImageURL is the resolved public URL when the image lives in object
	// storage. Empty for purely local catalogs.
	ImageURL string `json:"image_url,omitempty"`

	Brand  string  `json:"brand"`
	Rating float64 `json:"rating"`
}

// Placeholder builds the minimal record synthesized for an orphan image:
// an image file present in storage with no catalog entry.
func Placeholder(id, filename string) Product {
	return Product{
		ID:          id,
		Name:        "Product " + id,
		Category:    "Unknown",
		Price:       0,
		Description: fmt.Sprintf("Product imported from image %s", filename),
		ImagePath:   filename,
		Brand:       "Unknown",
		Rating:      0,
	}
}

// DecodeManifest parses a JSON array manifest.
func DecodeManifest(data []byte) ([]Product, error) {
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("[Catalog] failed to decode manifest: %w", err)
	}
	return products, nil
}

// EncodeManifest renders records as an indented JSON array, the format both
// backends persist.
func EncodeManifest(products []Product) ([]byte, error) {
	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("[Catalog] failed to encode manifest: %w", err)
	}
	return data, nil
}

// Payload converts a record into the metadata map stored alongside its vector.
func (p Product) Payload() map[string]any {
	payload := map[string]any{
		"name":        p.Name,
		"category":    p.Category,
		"price":       p.Price,
		"description": p.Description,
		"image_path":  p.ImagePath,
		"brand":       p.Brand,
		"rating":      p.Rating,
	}
	if p.ImageURL != "" {
		payload["image_url"] = p.ImageURL
	}
	return payload
}

// FromPayload reconstructs a record from an index payload. Missing or
// mistyped fields fall back to zero values; the identifier comes from the
// payload's original_id when present.
func FromPayload(payload map[string]any) Product {
	p := Product{
		ID:          asString(payload["original_id"]),
		Name:        asString(payload["name"]),
		Category:    asString(payload["category"]),
		Price:       asFloat(payload["price"]),
		Description: asString(payload["description"]),
		ImagePath:   asString(payload["image_path"]),
		ImageURL:    asString(payload["image_url"]),
		Brand:       asString(payload["brand"]),
		Rating:      asFloat(payload["rating"]),
	}
	return p
}

// Categories returns the distinct set of categories across products, sorted.
func Categories(products []Product) []string {
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		seen[p.Category] = struct{}{}
	}

	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}
