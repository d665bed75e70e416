package embedding

import (
	"context"
	"fmt"
)

// ImageSource identifies one query or catalog image. Exactly one of the
// fields is set; all three forms map into the same vector space.
type ImageSource struct {
	// Path is a local filesystem path to an image file.
	Path string

	// URL is a remote image location fetched by the provider.
	URL string

	// Bytes is raw image data, e.g. from an upload.
	Bytes []byte
}

// FromPath builds an ImageSource for a local file.
func FromPath(path string) ImageSource { return ImageSource{Path: path} }

// FromURL builds an ImageSource for a remote image.
func FromURL(url string) ImageSource { return ImageSource{URL: url} }

// FromBytes builds an ImageSource for in-memory image data.
func FromBytes(data []byte) ImageSource { return ImageSource{Bytes: data} }

// describe returns a short log-friendly label for the source.
func (s ImageSource) describe() string {
	switch {
	case s.Path != "":
		return s.Path
	case s.URL != "":
		return s.URL
	default:
		return fmt.Sprintf("bytes(%d)", len(s.Bytes))
	}
}

// Provider contract.
//
// Implementations return fixed-length, L2-normalized vectors; consumers do
// not re-normalize.
type Provider interface {
	// Encode computes the embedding for a single image.
	Encode(ctx context.Context, image ImageSource) ([]float32, error)

	// EncodeBatch computes embeddings for several images in one call.
	// The result is index-aligned with the input.
	EncodeBatch(ctx context.Context, images []ImageSource) ([][]float32, error)
}
