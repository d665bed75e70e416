package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/shopvision/visearch/pkg/catalog"
	"github.com/shopvision/visearch/pkg/embedding"
)

// LocalStore keeps the manifest as a JSON file and images in a sibling
// directory, named <id>.<ext>.
type LocalStore struct {
	manifestPath string
	imageDir     string
	logger       Logger
}

func NewLocalStore(cfg LocalConfig, logger Logger) *LocalStore {
	return &LocalStore{
		manifestPath: cfg.ManifestPath,
		imageDir:     cfg.ImageDir,
		logger:       logger,
	}
}

func (s *LocalStore) LoadManifest(ctx context.Context) ([]catalog.Product, error) {
	data, err := os.ReadFile(s.manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("manifest file not found, starting with empty catalog", nil, map[string]interface{}{
				"path": s.manifestPath,
			})
			return []catalog.Product{}, nil
		}
		return nil, fmt.Errorf("[Storage] read manifest: %w", err)
	}

	products, err := catalog.DecodeManifest(data)
	if err != nil {
		return nil, fmt.Errorf("[Storage] parse manifest %s: %w", s.manifestPath, err)
	}
	return products, nil
}

func (s *LocalStore) SaveManifest(ctx context.Context, products []catalog.Product) error {
	data, err := catalog.EncodeManifest(products)
	if err != nil {
		return fmt.Errorf("[Storage] encode manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.manifestPath), 0o755); err != nil {
		return fmt.Errorf("[Storage] create manifest dir: %w", err)
	}

	if err := os.WriteFile(s.manifestPath, data, 0o644); err != nil {
		return fmt.Errorf("[Storage] write manifest: %w", err)
	}

	s.logger.Debug("manifest saved", nil, map[string]interface{}{
		"path":     s.manifestPath,
		"products": len(products),
	})
	return nil
}

// ResolveImage prefers the recorded image_path, then probes the supported
// extensions against the product id in a fixed priority order.
func (s *LocalStore) ResolveImage(ctx context.Context, product catalog.Product) (embedding.ImageSource, bool) {
	if product.ImagePath != "" {
		path := filepath.Join(s.imageDir, filepath.Base(product.ImagePath))
		if fileExists(path) {
			return embedding.FromPath(path), true
		}
	}

	for _, ext := range imageExtensions {
		path := filepath.Join(s.imageDir, product.ID+ext)
		if fileExists(path) {
			return embedding.FromPath(path), true
		}
	}

	return embedding.ImageSource{}, false
}

func (s *LocalStore) SaveImage(ctx context.Context, filename string, data []byte) (string, error) {
	if err := os.MkdirAll(s.imageDir, 0o755); err != nil {
		return "", fmt.Errorf("[Storage] create image dir: %w", err)
	}

	filename = filepath.Base(filename)
	path := filepath.Join(s.imageDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("[Storage] write image %s: %w", filename, err)
	}

	return filename, nil
}

func (s *LocalStore) ReadImage(ctx context.Context, filename string) ([]byte, error) {
	path := filepath.Join(s.imageDir, filepath.Base(filename))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[Storage] read image %s: %w", filename, err)
	}
	return data, nil
}

func (s *LocalStore) ListImages(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.imageDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("[Storage] list images: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if slices.Contains(imageExtensions, ext) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// ImageURL returns "" for the local backend; display paths are synthesized
// by the serving layer.
func (s *LocalStore) ImageURL(filename string) string { return "" }

func (s *LocalStore) WritesBackManifest() bool { return true }

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
