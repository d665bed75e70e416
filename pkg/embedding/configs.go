package embedding

import "fmt"

type Config struct {
	// Base URL of the image embedding service, e.g. "http://localhost:8100".
	Endpoint string `yaml:"endpoint" envconfig:"EMBEDDING_ENDPOINT"`

	// Optional bearer token for secured deployments.
	APIKey string `yaml:"api_key" envconfig:"EMBEDDING_API_KEY"`

	// Model identifier sent with every request, e.g. "clip-vit-base-patch32".
	Model string `yaml:"model" envconfig:"EMBEDDING_MODEL"`

	// HTTP timeout in seconds (default 30). Embedding is the dominant
	// latency cost per call; there is no internal timeout below this.
	HTTPTimeoutS int `yaml:"http_timeout_seconds" envconfig:"EMBEDDING_HTTP_TIMEOUT_SECONDS"`
}

func DefaultConfig() *Config {
	return &Config{
		Endpoint:     "http://localhost:8100",
		Model:        "clip-vit-base-patch32",
		HTTPTimeoutS: 30,
	}
}

func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("embedding: missing EMBEDDING_ENDPOINT")
	}
	if c.Model == "" {
		return fmt.Errorf("embedding: missing EMBEDDING_MODEL")
	}
	return nil
}
