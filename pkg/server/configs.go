package server

import "time"

// Config controls the HTTP API server.
type Config struct {
	// Address is the listen address, e.g. ":8080".
	Address string `yaml:"address" envconfig:"SERVER_ADDRESS"`

	// MaxUploadBytes caps the size of uploaded images.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" envconfig:"SERVER_MAX_UPLOAD_BYTES"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SERVER_SHUTDOWN_TIMEOUT"`
}

func DefaultConfig() *Config {
	return &Config{
		Address:         ":8080",
		MaxUploadBytes:  10 << 20,
		ShutdownTimeout: 10 * time.Second,
	}
}
