// embedder.go defines the embedding model abstraction and the HTTP-backed
// implementation. The index itself never knows how vectors are produced;
// anything that can turn text into a fixed-width vector can back it.

package semantic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Embedder turns text into a fixed-width dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// HTTPEmbedder calls an external embedding service. The service accepts
// POST {"text": "..."} and responds {"embedding": [..]}, the shape exposed
// by the common sentence-transformer sidecars.
type HTTPEmbedder struct {
	endpoint string
	dims     int
	client   *http.Client
}

// NewHTTPEmbedder creates an embedder for the given endpoint and expected
// vector width.
func NewHTTPEmbedder(endpoint string, dims int) *HTTPEmbedder {
	return &HTTPEmbedder{
		endpoint: endpoint,
		dims:     dims,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Dimensions returns the expected vector width.
func (e *HTTPEmbedder) Dimensions() int {
	return e.dims
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed requests a vector for text from the embedding service.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("encoding embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling embedding service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embedding service returned %d: %s", resp.StatusCode, msg)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding embed response: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("embedding service returned an empty vector")
	}
	if e.dims > 0 && len(out.Embedding) != e.dims {
		return nil, fmt.Errorf("embedding service returned %d dimensions, expected %d", len(out.Embedding), e.dims)
	}
	return out.Embedding, nil
}

// Probe checks the embedding service is reachable by embedding a short
// sentinel string. Used once at startup to decide whether the semantic
// index is enabled.
func (e *HTTPEmbedder) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := e.Embed(ctx, "probe")
	return err
}
