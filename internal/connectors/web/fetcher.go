// Package web fetches sitemaps and pages over HTTP for the scraper.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
)

// Ensure Fetcher implements the interface.
var _ driven.PageFetcher = (*Fetcher)(nil)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies the scraper to site operators.
	DefaultUserAgent = "MyStudentProject/1.0 (Educational RAG Experiment)"

	// MaxBodySize bounds the bytes read from one response.
	MaxBodySize = 10 << 20
)

// Config configures the fetcher.
type Config struct {
	UserAgent string
	Timeout   time.Duration

	// Pacer, when set, is paused for the Retry-After delay of 429 and 503
	// responses.
	Pacer *Pacer
}

// Fetcher performs GET requests with a fixed User-Agent.
type Fetcher struct {
	client    *http.Client
	userAgent string
	pacer     *Pacer
}

// NewFetcher creates a fetcher.
func NewFetcher(cfg Config) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		pacer:     cfg.Pacer,
	}
}

// Fetch returns the body of url. Non-200 responses return a *StatusError;
// 429, 5xx and transport failures also wrap domain.ErrServiceUnavailable.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("web: build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: web: get %s: %v", domain.ErrServiceUnavailable, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		se := &StatusError{
			StatusCode: resp.StatusCode,
			URL:        url,
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
		}
		if f.pacer != nil {
			f.pacer.Pause(se.RetryAfter)
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, se)
		}
		return nil, se
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: web: read %s: %v", domain.ErrServiceUnavailable, url, err)
	}
	return body, nil
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP date.
func retryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(v); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return time.Until(t)
	}
	return 0
}
