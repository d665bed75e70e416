package ingest

import (
	"context"
	"fmt"

	"github.com/shopvision/visearch/pkg/storage"
)

// MigrateTo copies every image and the manifest from the synchronizer's
// store to dst, rewriting each product's image_url for the destination.
// Per-image upload failures are logged and counted, not fatal. Returns
// (uploaded, failed).
func (s *Synchronizer) MigrateTo(ctx context.Context, dst storage.Store) (int, int, error) {
	names, err := s.store.ListImages(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("[Ingest] list source images: %w", err)
	}

	uploaded, failed := 0, 0
	for _, name := range names {
		data, err := s.store.ReadImage(ctx, name)
		if err != nil {
			s.logger.Warn("failed to read image for migration", err, map[string]interface{}{
				"image": name,
			})
			failed++
			continue
		}

		if _, err := dst.SaveImage(ctx, name, data); err != nil {
			s.logger.Warn("failed to upload image", err, map[string]interface{}{
				"image": name,
			})
			failed++
			continue
		}
		uploaded++
	}

	manifest, err := s.store.LoadManifest(ctx)
	if err != nil {
		return uploaded, failed, fmt.Errorf("[Ingest] load source manifest: %w", err)
	}

	for i := range manifest {
		if manifest[i].ImagePath == "" {
			continue
		}
		if url := dst.ImageURL(manifest[i].ImagePath); url != "" {
			manifest[i].ImageURL = url
		}
	}

	if err := dst.SaveManifest(ctx, manifest); err != nil {
		return uploaded, failed, fmt.Errorf("[Ingest] upload manifest: %w", err)
	}

	s.logger.Info("catalog migrated", nil, map[string]interface{}{
		"uploaded": uploaded,
		"failed":   failed,
		"products": len(manifest),
	})
	return uploaded, failed, nil
}

// UpdateImageURLs attaches the store's public URL to every indexed point
// whose payload lacks one. Used after a migration so search results serve
// remote images. Returns the number of points updated.
func (s *Synchronizer) UpdateImageURLs(ctx context.Context) (int, error) {
	points, err := s.index.GetAll(ctx, s.cfg.ExistingScanCap)
	if err != nil {
		return 0, fmt.Errorf("[Ingest] scan points: %w", err)
	}

	updated := 0
	for _, pt := range points {
		if existing, _ := pt.Payload["image_url"].(string); existing != "" {
			continue
		}
		imagePath, _ := pt.Payload["image_path"].(string)
		if imagePath == "" {
			continue
		}
		url := s.store.ImageURL(imagePath)
		if url == "" {
			continue
		}

		payload := make(map[string]any, len(pt.Payload)+1)
		for k, v := range pt.Payload {
			payload[k] = v
		}
		payload["image_url"] = url

		if err := s.index.UpdateMetadata(ctx, pt.ID, payload); err != nil {
			s.logger.Warn("failed to update image url", err, map[string]interface{}{
				"id": pt.ID,
			})
			continue
		}
		updated++
	}

	s.logger.Info("image urls updated", nil, map[string]interface{}{
		"updated": updated,
		"scanned": len(points),
	})
	return updated, nil
}
