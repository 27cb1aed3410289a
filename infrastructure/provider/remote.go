package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"time"
)

// RemoteEncoder posts images to an HTTP inference endpoint that returns
// a JSON body of the form {"embedding": [...]}.
type RemoteEncoder struct {
	url    string
	client *http.Client
	dim    int
}

// NewRemoteEncoder creates a RemoteEncoder for the given endpoint. The
// timeout bounds each inference call end to end.
func NewRemoteEncoder(url string, timeout time.Duration) *RemoteEncoder {
	return &RemoteEncoder{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type remoteResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Encode sends the image as PNG and returns the endpoint's embedding.
func (e *RemoteEncoder) Encode(ctx context.Context, img image.Image) ([]float64, error) {
	var body bytes.Buffer
	if err := png.Encode(&body, img); err != nil {
		return nil, fmt.Errorf("encode request image: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, &body)
	if err != nil {
		return nil, fmt.Errorf("build inference request: %w", err)
	}
	req.Header.Set("Content-Type", "image/png")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call inference endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("inference endpoint returned %s: %s", resp.Status, snippet)
	}

	var parsed remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parse inference response: %w", err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, fmt.Errorf("inference response has no embedding")
	}

	e.dim = len(parsed.Embedding)
	return parsed.Embedding, nil
}

// Dimension returns the embedding width observed on the first encode.
func (e *RemoteEncoder) Dimension() int { return e.dim }

// Close is a no-op; the HTTP client holds no per-encoder resources.
func (e *RemoteEncoder) Close() error { return nil }

var _ Encoder = (*RemoteEncoder)(nil)
