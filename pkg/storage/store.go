package storage

import (
	"context"
	"fmt"

	"github.com/shopvision/visearch/pkg/catalog"
	"github.com/shopvision/visearch/pkg/embedding"
)

// Logger is the logging contract this package depends on.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Store is the catalog persistence contract shared by both backends.
type Store interface {
	// LoadManifest reads all product records. A missing manifest yields an
	// empty catalog, not an error.
	LoadManifest(ctx context.Context) ([]catalog.Product, error)

	// SaveManifest rewrites the manifest in full. Appends are read-modify-write
	// of the whole list; concurrent writers are last-writer-wins.
	SaveManifest(ctx context.Context, products []catalog.Product) error

	// ResolveImage locates the image for a product, as a source the embedding
	// provider can consume. The second return reports whether an image could
	// be resolved; for the object backend URL construction always succeeds
	// and existence is not checked.
	ResolveImage(ctx context.Context, product catalog.Product) (embedding.ImageSource, bool)

	// SaveImage persists raw image data under the given filename and returns
	// the image_path value to record on the product.
	SaveImage(ctx context.Context, filename string, data []byte) (string, error)

	// ListImages enumerates stored image filenames, extensions included.
	ListImages(ctx context.Context) ([]string, error)

	// ReadImage returns the raw bytes of a stored image.
	ReadImage(ctx context.Context, filename string) ([]byte, error)

	// ImageURL returns the public display URL for a stored image filename,
	// or "" when the backend has no URL scheme (local serving).
	ImageURL(filename string) string

	// WritesBackManifest reports whether orphan discovery may append
	// synthesized records to the manifest on this backend.
	WritesBackManifest() bool
}

type StoreParams struct {
	Config *Config
	Logger Logger
}

// NewStore builds the backend the configuration selects. Required settings
// are validated here; an object backend without a bucket name is a fatal
// configuration error.
func NewStore(ctx context.Context, p StoreParams) (Store, error) {
	switch p.Config.Backend {
	case BackendLocal, "":
		return NewLocalStore(p.Config.Local, p.Logger), nil
	case BackendObject:
		if p.Config.Object.Bucket == "" {
			return nil, fmt.Errorf("[Storage] object backend selected but no bucket configured")
		}
		return NewObjectStore(ctx, p.Config.Object, p.Logger)
	default:
		return nil, fmt.Errorf("[Storage] unknown backend %q", p.Config.Backend)
	}
}
