// Package tileport defines the tile-fetch boundary the renderer depends on,
// plus an HTTP reference implementation of it: rate-limited, retried GETs
// against a slippy-map tile server.
package tileport

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/asciimaps/asciimap/pkg/apperr"
)

// Fetcher fetches the raw, still-encoded bytes of one tile. A tile that
// doesn't exist at the source (HTTP 404, equivalent) is reported via ok=false
// with a nil error: that's a normal "nothing here" outcome, not a failure.
type Fetcher interface {
	Fetch(ctx context.Context, z, x, y int) (data []byte, ok bool, err error)
}

// DefaultTileURLTemplate matches the tile source the original project used.
const DefaultTileURLTemplate = "https://tiles.openfreemap.org/planet/latest/%d/%d/%d.pbf"

// RetryOptions controls the backoff schedule for transient HTTP failures.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryOptions gives a tile fetch a small, fast-failing retry budget
// rather than holding up a render call.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     2 * time.Second,
	}
}

// HTTPFetcher is the reference Fetcher: a rate-limited HTTP client hitting a
// templated tile URL.
type HTTPFetcher struct {
	client      *http.Client
	urlTemplate string
	userAgent   string
	limiter     *rate.Limiter
	retry       RetryOptions
}

// HTTPFetcherOption configures an HTTPFetcher at construction.
type HTTPFetcherOption func(*HTTPFetcher)

// WithRateLimit overrides the default per-source request rate.
func WithRateLimit(rps float64, burst int) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetryOptions overrides the default retry/backoff schedule.
func WithRetryOptions(opts RetryOptions) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.retry = opts
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// NewHTTPFetcher builds an HTTPFetcher against the given URL template, which
// must contain three "%d" verbs in z, x, y order.
func NewHTTPFetcher(urlTemplate string, opts ...HTTPFetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:      &http.Client{Timeout: 5 * time.Second},
		urlTemplate: urlTemplate,
		userAgent:   "asciimap/1.0",
		limiter:     rate.NewLimiter(rate.Limit(10), 4),
		retry:       DefaultRetryOptions(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves one tile's raw bytes, honoring the configured rate limit
// and retry schedule. A 404 response is reported as ok=false, err=nil.
func (f *HTTPFetcher) Fetch(ctx context.Context, z, x, y int) ([]byte, bool, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, false, apperr.New(apperr.ServiceTimeout, "rate limiter wait canceled").WithGuidance(err.Error())
	}

	url := fmt.Sprintf(f.urlTemplate, z, x, y)

	var body []byte
	var notFound bool

	err := withRetry(ctx, f.retry, func() (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false, err
		}
		req.Header.Set("User-Agent", f.userAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			return true, err // retryable: network error
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			notFound = true
			return false, nil
		case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
			return true, apperr.ServiceErr("tile source", resp.StatusCode, resp.Status)
		case resp.StatusCode != http.StatusOK:
			return false, apperr.ServiceErr("tile source", resp.StatusCode, resp.Status)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return true, err
		}
		body = data
		return false, nil
	})

	if err != nil {
		return nil, false, err
	}
	if notFound {
		return nil, false, nil
	}
	return body, true, nil
}

// withRetry runs attempt until it succeeds, returns a non-retryable error,
// or exhausts opts.MaxAttempts, applying exponential backoff with jitter
// between attempts.
func withRetry(ctx context.Context, opts RetryOptions, attempt func() (retryable bool, err error)) error {
	delay := opts.InitialDelay
	var lastErr error

	for i := 0; i < opts.MaxAttempts; i++ {
		retryable, err := attempt()
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable || i == opts.MaxAttempts-1 {
			return err
		}

		jitter := time.Duration(rand.Int63n(int64(delay) / 2))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay + jitter):
		}

		delay *= 2
		if delay > opts.MaxDelay {
			delay = opts.MaxDelay
		}
	}
	return lastErr
}
