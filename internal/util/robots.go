package util

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsChecker answers robots.txt questions for crawled hosts. Each
// host's robots.txt is fetched once per checker.
type RobotsChecker struct {
	mu        sync.RWMutex
	hosts     map[string]*robotstxt.RobotsData
	client    *http.Client
	userAgent string
	agent     string
}

// NewRobotsChecker creates a checker using client for robots.txt requests
func NewRobotsChecker(client *http.Client, userAgent string) *RobotsChecker {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RobotsChecker{
		hosts:     make(map[string]*robotstxt.RobotsData),
		client:    client,
		userAgent: userAgent,
		agent:     NormalizeUserAgent(userAgent),
	}
}

// CanFetch reports whether rawURL may be crawled and the crawl delay
// requested for our agent. An unreachable robots.txt allows everything.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}

	data, err := r.robots(ctx, parsed)
	if err != nil {
		return true, 0, nil
	}

	path := parsed.EscapedPath()
	if parsed.RawQuery != "" {
		path += "?" + parsed.RawQuery
	}
	if path == "" {
		path = "/"
	}

	group := data.FindGroup(r.agent)
	if group == nil {
		return true, 0, nil
	}
	return group.Test(path), group.CrawlDelay, nil
}

// IsAllowed is CanFetch without the delay
func (r *RobotsChecker) IsAllowed(ctx context.Context, rawURL string) bool {
	allowed, _, _ := r.CanFetch(ctx, rawURL)
	return allowed
}

func (r *RobotsChecker) robots(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	origin := u.Scheme + "://" + u.Host

	r.mu.RLock()
	data, ok := r.hosts[origin]
	r.mu.RUnlock()
	if ok {
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.mu.Lock()
	r.hosts[origin] = data
	r.mu.Unlock()

	return data, nil
}

// NormalizeUserAgent reduces a browser-style user agent to its product
// token, e.g. "Mozilla/5.0 (X11)" becomes "Mozilla".
func NormalizeUserAgent(ua string) string {
	parts := strings.Fields(ua)
	if len(parts) == 0 {
		return ua
	}
	return strings.Split(parts[0], "/")[0]
}
