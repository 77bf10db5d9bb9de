package inject

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/hashicorp/go-retryablehttp"
)

// FetcherConfig configures the script fetcher.
type FetcherConfig struct {
	Retries int
	Timeout time.Duration
	MaxSize int64
}

// DefaultFetcherConfig returns production defaults.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Retries: 3,
		Timeout: 5 * time.Second,
		MaxSize: 1 << 20,
	}
}

// Fetcher retrieves script bodies for async loads. Transient upstream
// failures are retried; fetched content must sniff as script text
// before it is handed to a sandbox.
type Fetcher struct {
	client *retryablehttp.Client
	config FetcherConfig
}

// NewFetcher creates a script fetcher.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.Retries
	client.HTTPClient.Timeout = cfg.Timeout
	client.Logger = nil
	return &Fetcher{client: client, config: cfg}
}

// Fetch retrieves a script body.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build script request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("script fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("script fetch returned status %d", resp.StatusCode)
	}

	limit := f.config.MaxSize
	if limit <= 0 {
		limit = DefaultFetcherConfig().MaxSize
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read script body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("script exceeds maximum size %d bytes", limit)
	}

	if !isScriptContent(body) {
		return nil, fmt.Errorf("fetched content is not script text (%s)", mimetype.Detect(body))
	}

	return body, nil
}

// isScriptContent sniffs the body: anything text-shaped passes, since
// vendor CDNs serve scripts under a variety of content types.
func isScriptContent(body []byte) bool {
	mt := mimetype.Detect(body)
	for cur := mt; cur != nil; cur = cur.Parent() {
		if strings.HasPrefix(cur.String(), "text/") ||
			strings.Contains(cur.String(), "javascript") {
			return true
		}
	}
	return false
}
