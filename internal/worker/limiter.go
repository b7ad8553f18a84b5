package worker

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ppiankov/newstag/internal/model"
)

// Limiter paces requests per host with a token bucket each
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter. A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// NewLimiterFromConfig creates a limiter from the rate limiting section
func NewLimiterFromConfig(cfg model.RateLimitConfig) *Limiter {
	return NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize)
}

// Wait blocks until a request to rawURL's host is permitted
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host, err := hostOf(rawURL)
	if err != nil {
		return err
	}
	return l.limiter(host).Wait(ctx)
}

// Allow reports whether a request may go out now, consuming a token if so
func (l *Limiter) Allow(rawURL string) bool {
	host, err := hostOf(rawURL)
	if err != nil {
		return false
	}
	return l.limiter(host).Allow()
}

func (l *Limiter) limiter(host string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[host]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists := l.limiters[host]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[host] = limiter

	return limiter
}

// SetDomainRate overrides the rate for one host
func (l *Limiter) SetDomainRate(host string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.limiters[host] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// SetCrawlDelay slows a host down to at most one request per delay.
// It never speeds a host up past the default rate.
func (l *Limiter) SetCrawlDelay(host string, delay time.Duration) {
	if delay <= 0 {
		return
	}
	perSecond := rate.Every(delay)
	if l.defaultRate != rate.Inf && perSecond >= l.defaultRate {
		return
	}
	l.SetDomainRate(host, float64(perSecond), 1)
}

func hostOf(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return parsed.Host, nil
}
