package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/ppiankov/newstag/internal/model"
)

// Crawler collects the latest articles from the configured listing
type Crawler struct {
	fetcher *Fetcher
	cfg     model.ScrapeConfig
	logf    func(format string, args ...any)
}

// CrawlStats summarizes a crawl
type CrawlStats struct {
	PagesFetched int
	PagesFailed  int
	LinksFound   int
	EmptyContent int
	CacheHits    int
}

// CrawlResult holds the collected articles, numbered from 1
type CrawlResult struct {
	Articles []model.Article
	Stats    CrawlStats
}

// NewCrawler creates a crawler. logf receives progress lines and may be nil.
func NewCrawler(fetcher *Fetcher, cfg model.ScrapeConfig, logf func(format string, args ...any)) *Crawler {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Crawler{fetcher: fetcher, cfg: cfg, logf: logf}
}

// ListingURL returns the URL of listing page n (1-based)
func (c *Crawler) ListingURL(n int) (string, error) {
	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	ref, err := url.Parse(c.cfg.ListingPath)
	if err != nil {
		return "", fmt.Errorf("parse listing path: %w", err)
	}

	u := base.ResolveReference(ref)
	q := u.Query()
	q.Set(c.cfg.PageParam, strconv.Itoa(n))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Crawl fetches the listing pages, picks the newest unique articles and
// fetches their content. Failed listing pages are skipped; it is an error
// only when every page fails. An article whose content cannot be fetched
// or found is kept with empty content.
func (c *Crawler) Crawl(ctx context.Context) (*CrawlResult, error) {
	result := &CrawlResult{Articles: []model.Article{}}
	stats := &result.Stats

	// 1. Listing pages
	var items []ListingItem
	var lastErr error
	for page := 1; page <= c.cfg.Pages; page++ {
		pageURL, err := c.ListingURL(page)
		if err != nil {
			return nil, err
		}

		c.logf("Getting article links from page %d\n", page)
		fetched, err := c.fetcher.FetchWithRetry(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			stats.PagesFailed++
			lastErr = err
			c.logf("✗ Page %d: %v\n", page, err)
			continue
		}
		stats.PagesFetched++
		if fetched.FromCache {
			stats.CacheHits++
		}

		base, _ := url.Parse(fetched.FinalURL)
		pageItems, err := ParseListing(fetched.HTML, base)
		if err != nil {
			stats.PagesFailed++
			lastErr = err
			c.logf("✗ Page %d: %v\n", page, err)
			continue
		}
		items = append(items, pageItems...)
	}

	if stats.PagesFetched == 0 && lastErr != nil {
		return nil, fmt.Errorf("no listing page could be fetched: %w", lastErr)
	}

	stats.LinksFound = len(items)
	selected := SelectLatest(items, c.cfg.MaxArticles)
	c.logf("Found %d article links, fetching content for %d\n", len(items), len(selected))

	// 2. Article content
	for i, item := range selected {
		article := model.Article{
			ID:    i + 1,
			Date:  item.Date,
			Title: item.Title,
			Link:  item.Link,
		}

		content, cached, err := c.fetchContent(ctx, item.Link)
		if cached {
			stats.CacheHits++
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			c.logf("⚠️  %s: %v\n", item.Link, err)
		}
		if content == "" {
			stats.EmptyContent++
		}
		article.Content = content

		result.Articles = append(result.Articles, article)
	}

	return result, nil
}

func (c *Crawler) fetchContent(ctx context.Context, link string) (content string, cached bool, err error) {
	c.logf("Getting content for: %s\n", link)

	fetched, err := c.fetcher.FetchWithRetry(ctx, link)
	if err != nil {
		return "", false, err
	}

	pageURL, _ := url.Parse(fetched.FinalURL)
	content, source, err := ExtractContent(fetched.HTML, pageURL)
	if err != nil {
		return "", fetched.FromCache, err
	}
	switch source {
	case SourceNone:
		return "", fetched.FromCache, errors.New("content not found")
	case SourceReadability:
		c.logf("  content container missing, used readability\n")
	}
	return content, fetched.FromCache, nil
}
