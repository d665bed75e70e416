package embedding

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// InferenceProvider talks to an HTTP image embedding service exposing a
// /v1/embeddings/image endpoint. The service runs the actual encoder model
// and returns unit-length vectors.
type InferenceProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewInferenceProvider(cfg *Config) (*InferenceProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.HTTPTimeoutS
	if timeout <= 0 {
		timeout = 30
	}

	// Remove trailing slash if user added it.
	base := strings.TrimRight(cfg.Endpoint, "/")

	return &InferenceProvider{
		baseURL:    base,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}, nil
}

// imageInput is one entry of the request payload: either base64 image data
// or a URL the service fetches itself.
type imageInput struct {
	Data string `json:"data,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Encode computes the embedding for a single image.
func (p *InferenceProvider) Encode(ctx context.Context, image ImageSource) ([]float32, error) {
	vectors, err := p.EncodeBatch(ctx, []ImageSource{image})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EncodeBatch computes embeddings for several images in one request.
func (p *InferenceProvider) EncodeBatch(ctx context.Context, images []ImageSource) ([][]float32, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("embedding: no images provided")
	}

	inputs := make([]imageInput, len(images))
	for i, img := range images {
		input, err := toInput(img)
		if err != nil {
			return nil, fmt.Errorf("embedding: image [%d]: %w", i, err)
		}
		inputs[i] = input
	}

	reqBody := map[string]any{
		"model": p.model,
		"input": inputs,
	}

	url := fmt.Sprintf("%s/v1/embeddings/image", p.baseURL)

	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}

	if err := p.postJSON(ctx, url, reqBody, &parsed); err != nil {
		return nil, err
	}

	if len(parsed.Data) != len(images) {
		return nil, fmt.Errorf("embedding: expected %d vectors, got %d", len(images), len(parsed.Data))
	}

	out := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("embedding: empty vector at [%d]", i)
		}
		out[i] = d.Embedding
	}

	return out, nil
}

// toInput converts an ImageSource into the wire form. Local files are read
// and inlined as base64; URLs are passed through for the service to fetch.
func toInput(img ImageSource) (imageInput, error) {
	switch {
	case img.Path != "":
		data, err := os.ReadFile(img.Path)
		if err != nil {
			return imageInput{}, fmt.Errorf("read image file: %w", err)
		}
		return imageInput{Data: base64.StdEncoding.EncodeToString(data)}, nil
	case len(img.Bytes) > 0:
		return imageInput{Data: base64.StdEncoding.EncodeToString(img.Bytes)}, nil
	case img.URL != "":
		return imageInput{URL: img.URL}, nil
	default:
		return imageInput{}, fmt.Errorf("empty image source")
	}
}

// postJSON sends an HTTP POST request to the embedding service. It marshals
// the given body as JSON, attaches headers, handles HTTP error codes, and
// decodes the response JSON into out.
func (p *InferenceProvider) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		// Include a snippet of the body so embedding service errors are
		// diagnosable from logs.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("http %d for %s: %s", resp.StatusCode, url, strings.TrimSpace(string(snippet)))
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}

	return nil
}
