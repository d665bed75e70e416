package storage

import (
	"slices"
	"strings"
)

const (
	BackendLocal  = "local"
	BackendObject = "s3"

	defaultManifestKey = "metadata/products.json"
	defaultImagePrefix = "images/"
)

// imageExtensions is the probe order for locating a product image by id.
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".webp", ".gif"}

// SupportedImageExt reports whether ext (with leading dot, any case) is a
// recognized image extension.
func SupportedImageExt(ext string) bool {
	return slices.Contains(imageExtensions, strings.ToLower(ext))
}

// Config selects and parameterizes the catalog storage backend.
type Config struct {
	// Backend is either "local" or "s3".
	Backend string `yaml:"backend" envconfig:"STORAGE_BACKEND" default:"local"`

	Local  LocalConfig  `yaml:"local"`
	Object ObjectConfig `yaml:"object"`
}

// LocalConfig points at the manifest file and the sibling image directory.
type LocalConfig struct {
	ManifestPath string `yaml:"manifest_path" envconfig:"STORAGE_MANIFEST_PATH" default:"data/products.json"`
	ImageDir     string `yaml:"image_dir" envconfig:"STORAGE_IMAGE_DIR" default:"data/images"`
}

// ObjectConfig contains the S3-compatible connection details.
type ObjectConfig struct {
	Endpoint        string `yaml:"endpoint" envconfig:"STORAGE_S3_ENDPOINT" default:"s3.amazonaws.com"`
	AccessKeyID     string `yaml:"access_key_id" envconfig:"STORAGE_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" envconfig:"STORAGE_S3_SECRET_ACCESS_KEY"`
	UseSSL          bool   `yaml:"use_ssl" envconfig:"STORAGE_S3_USE_SSL" default:"true"`
	Bucket          string `yaml:"bucket" envconfig:"STORAGE_S3_BUCKET"`
	Region          string `yaml:"region" envconfig:"STORAGE_S3_REGION" default:"us-east-1"`

	// ManifestKey is the object key of the catalog manifest.
	ManifestKey string `yaml:"manifest_key" envconfig:"STORAGE_S3_MANIFEST_KEY" default:"metadata/products.json"`

	// ImagePrefix is the key prefix under which image objects live.
	ImagePrefix string `yaml:"image_prefix" envconfig:"STORAGE_S3_IMAGE_PREFIX" default:"images/"`

	// PublicURLBase overrides the default bucket.s3.region.amazonaws.com
	// URL construction, for non-AWS endpoints and CDNs.
	PublicURLBase string `yaml:"public_url_base" envconfig:"STORAGE_S3_PUBLIC_URL_BASE"`
}

func DefaultConfig() *Config {
	return &Config{
		Backend: BackendLocal,
		Local: LocalConfig{
			ManifestPath: "data/products.json",
			ImageDir:     "data/images",
		},
		Object: ObjectConfig{
			Endpoint:    "s3.amazonaws.com",
			UseSSL:      true,
			Region:      "us-east-1",
			ManifestKey: defaultManifestKey,
			ImagePrefix: defaultImagePrefix,
		},
	}
}
