// Package infer is the HTTP client for a remote model server. The
// server's contract is treated as a black box: token-id sequence in,
// next-token logits out; batch of images in, per-class probabilities
// out. The client implements decode.Model so decoding policies can run
// against a remote model directly.
package infer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lantern-ml/evalbench/internal/httputil"
)

// Client talks to a model inference server.
type Client struct {
	baseURL string
	http    httputil.Doer
}

// NewClient creates a client for a model server at baseURL. Pass nil to
// use a default HTTP client with a 30 second timeout; inference servers
// can be slow on first call while weights page in.
func NewClient(baseURL string, doer httputil.Doer) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, http: doer}
}

type logitsRequest struct {
	Prefix []int `json:"prefix"`
}

type logitsResponse struct {
	Logits []float64 `json:"logits"`
}

// Logits returns the model's next-token logits for a prefix. It
// satisfies decode.Model.
func (c *Client) Logits(ctx context.Context, prefix []int) ([]float64, error) {
	var out logitsResponse
	if err := c.post(ctx, "/v1/logits", logitsRequest{Prefix: prefix}, &out); err != nil {
		return nil, err
	}
	if len(out.Logits) == 0 {
		return nil, fmt.Errorf("model returned empty logits")
	}
	return out.Logits, nil
}

type classifyRequest struct {
	// Images are base64-encoded by encoding/json ([]byte marshals to a
	// base64 string).
	Images [][]byte `json:"images"`
}

type classifyResponse struct {
	Probabilities [][]float64 `json:"probabilities"`
}

// Classify sends a batch of encoded images and returns one per-class
// probability vector per image.
func (c *Client) Classify(ctx context.Context, images [][]byte) ([][]float64, error) {
	var out classifyResponse
	if err := c.post(ctx, "/v1/classify", classifyRequest{Images: images}, &out); err != nil {
		return nil, err
	}
	if len(out.Probabilities) != len(images) {
		return nil, fmt.Errorf("model returned %d results for %d images", len(out.Probabilities), len(images))
	}
	return out.Probabilities, nil
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model server returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode model response: %w", err)
	}
	return nil
}
