// Package imaging downloads and decodes artwork images.
package imaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxImageBytes caps a single download. Museum scans occasionally reach
// tens of megabytes; anything past this is rejected rather than buffered.
const maxImageBytes = 32 << 20

// ErrImageTooLarge indicates the response body exceeded maxImageBytes.
var ErrImageTooLarge = errors.New("image exceeds size limit")

// Fetcher downloads image bytes over HTTP with a per-request timeout.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher. The timeout bounds the whole request,
// including the body read, so one slow CDN cannot stall a batch.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the image at url and returns its raw bytes.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	req.Header.Set("User-Agent", "artvec/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch image: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, ErrImageTooLarge
	}
	return data, nil
}
