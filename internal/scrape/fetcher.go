// Package scrape crawls the news listing and extracts article text.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/ppiankov/newstag/internal/cache"
	"github.com/ppiankov/newstag/internal/model"
	"github.com/ppiankov/newstag/internal/util"
	"github.com/ppiankov/newstag/internal/worker"
)

// ErrDisallowed is returned when robots.txt forbids a URL
var ErrDisallowed = errors.New("disallowed by robots.txt")

// StatusError is a non-2xx response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// Fetcher retrieves pages, honoring the rate limiter, robots.txt and the
// page cache when they are configured.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	cache      cache.Cache
	cacheTTL   time.Duration
	limiter    *worker.Limiter
	robots     *util.RobotsChecker
	retries    int
}

// FetchResult contains the fetched HTML and metadata
type FetchResult struct {
	HTML      []byte
	FinalURL  string
	FromCache bool
}

// FetcherOption customizes a Fetcher
type FetcherOption func(*Fetcher)

// WithCache serves and stores pages through c
func WithCache(c cache.Cache, ttl time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.cache = c
		f.cacheTTL = ttl
	}
}

// WithLimiter paces requests per host
func WithLimiter(l *worker.Limiter) FetcherOption {
	return func(f *Fetcher) { f.limiter = l }
}

// WithRobots checks robots.txt before every request
func WithRobots(r *util.RobotsChecker) FetcherOption {
	return func(f *Fetcher) { f.robots = r }
}

// WithRetries sets how many attempts FetchWithRetry makes
func WithRetries(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.retries = n
		}
	}
}

// NewFetcher creates a new Fetcher with the given HTTP settings
func NewFetcher(cfg model.HTTPConfig, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		httpClient: util.NewHTTPClient(cfg),
		userAgent:  cfg.UserAgent,
		maxBytes:   cfg.MaxBodyBytes,
		cache:      cache.Nop{},
		retries:    3,
	}
	if f.maxBytes <= 0 {
		f.maxBytes = 5 << 20
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Client exposes the underlying HTTP client
func (f *Fetcher) Client() *http.Client {
	return f.httpClient
}

// Fetch retrieves rawURL once
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	key := cache.PageKey(rawURL)
	if body, ok := f.cache.Get(key); ok {
		return &FetchResult{HTML: body, FinalURL: rawURL, FromCache: true}, nil
	}

	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
		}
		if f.limiter != nil {
			if u, err := url.Parse(rawURL); err == nil {
				f.limiter.SetCrawlDelay(u.Host, delay)
			}
		}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "vi-VN,vi;q=0.9,en;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	_ = f.cache.Set(key, body, f.cacheTTL)

	return &FetchResult{
		HTML:     body,
		FinalURL: resp.Request.URL.String(),
	}, nil
}

// fetchSleepFunc is replaced in tests
var fetchSleepFunc = func(d time.Duration) { time.Sleep(d) }

// FetchWithRetry retries transient failures with linear backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var lastErr error
	for attempt := 1; attempt <= f.retries; attempt++ {
		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRetryableFetchError(err) || ctx.Err() != nil || attempt == f.retries {
			break
		}
		fetchSleepFunc(time.Duration(attempt) * time.Second)
	}
	return nil, lastErr
}

// isRetryableFetchError reports whether err is worth another attempt:
// 429, 5xx and network failures are, everything else is not.
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
