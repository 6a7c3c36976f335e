package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ProviderConfig configures the HTTP embedding client.
type ProviderConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// ProviderClient calls an Ollama-compatible /api/embed endpoint.
type ProviderClient struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger

	// dimensions is fixed by the first successful call. Guarded by mu:
	// batches run concurrently from verify and retrieve handlers.
	mu         sync.Mutex
	dimensions int
}

// NewProviderClient creates an embedding client. The vector dimension is
// learned from the first response and enforced afterwards.
func NewProviderClient(cfg ProviderConfig, logger *zap.Logger) (*ProviderClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("embedding provider base URL is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("embedding model is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ProviderClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed generates an embedding for a single text.
func (c *ProviderClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for texts in a single request. The
// response must contain exactly one vector per input, in input order.
func (c *ProviderClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(embedRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, &ProviderError{Op: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, &ProviderError{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Op: "send request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &ProviderError{
			Op:  "embed",
			Err: fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body))),
		}
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &ProviderError{Op: "decode response", Err: err}
	}

	if len(out.Embeddings) != len(texts) {
		return nil, &ProviderError{
			Op:  "embed",
			Err: fmt.Errorf("expected %d embeddings, got %d", len(texts), len(out.Embeddings)),
		}
	}
	c.mu.Lock()
	for i, vec := range out.Embeddings {
		if len(vec) == 0 {
			c.mu.Unlock()
			return nil, &ProviderError{Op: "embed", Err: fmt.Errorf("empty embedding at index %d", i)}
		}
		if c.dimensions == 0 {
			c.dimensions = len(vec)
		}
		if len(vec) != c.dimensions {
			expected := c.dimensions
			c.mu.Unlock()
			return nil, &ProviderError{
				Op:  "embed",
				Err: fmt.Errorf("embedding at index %d has dimension %d, expected %d", i, len(vec), expected),
			}
		}
	}
	dims := c.dimensions
	c.mu.Unlock()

	c.logger.Debug("embedded batch",
		zap.Int("texts", len(texts)),
		zap.Int("dimensions", dims))

	return out.Embeddings, nil
}

// Dimensions returns the vector dimension, or 0 before the first call.
func (c *ProviderClient) Dimensions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dimensions
}

// Close releases idle connections.
func (c *ProviderClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
