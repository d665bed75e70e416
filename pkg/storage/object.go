package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/shopvision/visearch/pkg/catalog"
	"github.com/shopvision/visearch/pkg/embedding"
)

// ObjectStore keeps the catalog in an S3-compatible bucket: the manifest at
// a fixed key and image objects under a key prefix. Image access goes through
// public URLs governed by a public-read policy scoped to the image prefix.
type ObjectStore struct {
	client *minio.Client
	cfg    ObjectConfig
	logger Logger
}

func NewObjectStore(ctx context.Context, cfg ObjectConfig, logger Logger) (*ObjectStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("[Storage] object store endpoint cannot be empty")
	}

	logger.Info("connecting to object store", nil, map[string]interface{}{
		"endpoint": cfg.Endpoint,
		"region":   cfg.Region,
		"secure":   cfg.UseSSL,
		"bucket":   cfg.Bucket,
	})

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("[Storage] connect object store: %w", err)
	}

	s := &ObjectStore{client: client, cfg: cfg, logger: logger}

	setupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := s.ensureBucket(setupCtx); err != nil {
		return nil, err
	}

	return s, nil
}

// ensureBucket creates the bucket if absent and applies the public-read
// policy restricted to the image prefix.
func (s *ObjectStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("[Storage] check bucket %s: %w", s.cfg.Bucket, err)
	}

	if !exists {
		s.logger.Info("bucket does not exist, creating it", nil, map[string]interface{}{
			"bucket": s.cfg.Bucket,
			"region": s.cfg.Region,
		})
		if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("[Storage] create bucket %s: %w", s.cfg.Bucket, err)
		}
	}

	policy := publicReadPolicy(s.cfg.Bucket, s.cfg.ImagePrefix)
	if err := s.client.SetBucketPolicy(ctx, s.cfg.Bucket, policy); err != nil {
		// Policy application can be forbidden on managed buckets; images may
		// still be reachable if the policy was applied out-of-band.
		s.logger.Warn("failed to apply public-read bucket policy", err, map[string]interface{}{
			"bucket": s.cfg.Bucket,
			"prefix": s.cfg.ImagePrefix,
		})
	}

	return nil
}

// publicReadPolicy grants anonymous GetObject on the image prefix only.
func publicReadPolicy(bucket, imagePrefix string) string {
	return fmt.Sprintf(`{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Effect": "Allow",
      "Principal": {"AWS": ["*"]},
      "Action": ["s3:GetObject"],
      "Resource": ["arn:aws:s3:::%s/%s*"]
    }
  ]
}`, bucket, imagePrefix)
}

func (s *ObjectStore) LoadManifest(ctx context.Context) ([]catalog.Product, error) {
	data, err := s.getObject(ctx, s.cfg.ManifestKey)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			s.logger.Warn("remote manifest not found, starting with empty catalog", nil, map[string]interface{}{
				"bucket": s.cfg.Bucket,
				"key":    s.cfg.ManifestKey,
			})
			return []catalog.Product{}, nil
		}
		return nil, fmt.Errorf("[Storage] fetch manifest %s: %w", s.cfg.ManifestKey, err)
	}

	products, err := catalog.DecodeManifest(data)
	if err != nil {
		return nil, fmt.Errorf("[Storage] parse remote manifest: %w", err)
	}
	return products, nil
}

func (s *ObjectStore) SaveManifest(ctx context.Context, products []catalog.Product) error {
	data, err := catalog.EncodeManifest(products)
	if err != nil {
		return fmt.Errorf("[Storage] encode manifest: %w", err)
	}

	_, err = s.client.PutObject(ctx, s.cfg.Bucket, s.cfg.ManifestKey,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("[Storage] upload manifest: %w", err)
	}

	s.logger.Debug("remote manifest saved", nil, map[string]interface{}{
		"key":      s.cfg.ManifestKey,
		"products": len(products),
	})
	return nil
}

// ResolveImage builds the public URL for the product image. URL construction
// always succeeds syntactically; object existence is not checked.
func (s *ObjectStore) ResolveImage(ctx context.Context, product catalog.Product) (embedding.ImageSource, bool) {
	if product.ImageURL != "" {
		return embedding.FromURL(product.ImageURL), true
	}

	filename := product.ImagePath
	if filename == "" {
		filename = product.ID + imageExtensions[0]
	}
	return embedding.FromURL(s.ImageURL(filename)), true
}

func (s *ObjectStore) SaveImage(ctx context.Context, filename string, data []byte) (string, error) {
	filename = path.Base(filename)
	key := s.cfg.ImagePrefix + filename

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, s.cfg.Bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("[Storage] upload image %s: %w", filename, err)
	}

	return filename, nil
}

func (s *ObjectStore) ReadImage(ctx context.Context, filename string) ([]byte, error) {
	key := s.cfg.ImagePrefix + path.Base(filename)
	data, err := s.getObject(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("[Storage] read image %s: %w", filename, err)
	}
	return data, nil
}

func (s *ObjectStore) ListImages(ctx context.Context) ([]string, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.cfg.Bucket, minio.ListObjectsOptions{
		Prefix:    s.cfg.ImagePrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("[Storage] list images: %w", obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, s.cfg.ImagePrefix)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// ImageURL derives the public URL for a stored image filename. The default
// follows the bucket.s3.region.amazonaws.com/key pattern; PublicURLBase
// overrides it for non-AWS endpoints.
func (s *ObjectStore) ImageURL(filename string) string {
	key := s.cfg.ImagePrefix + path.Base(filename)
	if s.cfg.PublicURLBase != "" {
		return strings.TrimRight(s.cfg.PublicURLBase, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}

func (s *ObjectStore) WritesBackManifest() bool { return false }

// DeleteImage removes an image object. Used by the migration rollback path.
func (s *ObjectStore) DeleteImage(ctx context.Context, filename string) error {
	key := s.cfg.ImagePrefix + path.Base(filename)
	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("[Storage] delete image %s: %w", filename, err)
	}
	return nil
}

func (s *ObjectStore) getObject(ctx context.Context, key string) ([]byte, error) {
	reader, err := s.client.GetObject(ctx, s.cfg.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := reader.Close(); cerr != nil {
			s.logger.Error("failed to close object reader", cerr, map[string]interface{}{"key": key})
		}
	}()

	// GetObject is lazy; errors like NoSuchKey surface on read.
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	return data, nil
}
