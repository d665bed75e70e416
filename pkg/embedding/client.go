package embedding

import (
	"context"
)

// Client is the embedding entry point the rest of the application uses.
// It wraps whatever Provider was configured and adds logging.
type Client struct {
	provider Provider
	logger   Logger
}

type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
}

func NewClient(provider Provider, logger Logger) *Client {
	return &Client{provider: provider, logger: logger}
}

func (c *Client) Encode(ctx context.Context, image ImageSource) ([]float32, error) {
	vec, err := c.provider.Encode(ctx, image)
	if err != nil {
		c.logger.Warn("embedding request failed", err, map[string]interface{}{
			"source": image.describe(),
		})
		return nil, err
	}
	c.logger.Debug("image embedded", nil, map[string]interface{}{
		"source":     image.describe(),
		"dimensions": len(vec),
	})
	return vec, nil
}

func (c *Client) EncodeBatch(ctx context.Context, images []ImageSource) ([][]float32, error) {
	vectors, err := c.provider.EncodeBatch(ctx, images)
	if err != nil {
		c.logger.Warn("batch embedding request failed", err, map[string]interface{}{
			"count": len(images),
		})
		return nil, err
	}
	return vectors, nil
}
