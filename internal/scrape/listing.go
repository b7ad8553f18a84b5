package scrape

import (
	"bytes"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Selectors for the vneconomy.vn listing and article pages
const (
	ListingItemSelector  = "article.story.story--featured.story--timeline"
	ListingTitleSelector = "h3"
	ListingLinkSelector  = "figure a[href]"
	ListingDateSelector  = "header time"
	ContentSelector      = "div.detail__content"

	// ListingDateLayout is the dd/mm/yyyy form shown on listing pages
	ListingDateLayout = "02/01/2006"
)

// ListingItem is one article teaser on a listing page
type ListingItem struct {
	Title string
	Link  string
	Date  time.Time
}

// ParseListing extracts teasers from a listing page. Relative links are
// resolved against base. Items without a title or link are skipped; an
// unparseable date is left zero.
func ParseListing(html []byte, base *url.URL) ([]ListingItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	var items []ListingItem
	doc.Find(ListingItemSelector).Each(func(_ int, s *goquery.Selection) {
		title := collapse(s.Find(ListingTitleSelector).First().Text())
		href, ok := s.Find(ListingLinkSelector).First().Attr("href")
		if title == "" || !ok || strings.TrimSpace(href) == "" {
			return
		}

		link := resolveURL(base, strings.TrimSpace(href))
		if link == "" {
			return
		}

		item := ListingItem{Title: title, Link: link}
		raw := strings.TrimSpace(s.Find(ListingDateSelector).First().Text())
		if d, err := time.Parse(ListingDateLayout, raw); err == nil {
			item.Date = d
		}

		items = append(items, item)
	})

	return items, nil
}

// SelectLatest orders items newest first, drops repeated links keeping
// the newest, and keeps at most limit items. A non-positive limit keeps all.
func SelectLatest(items []ListingItem, limit int) []ListingItem {
	sorted := append([]ListingItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	seen := make(map[string]bool, len(sorted))
	out := make([]ListingItem, 0, len(sorted))
	for _, item := range sorted {
		if seen[item.Link] {
			continue
		}
		seen[item.Link] = true
		out = append(out, item)
		if limit > 0 && len(out) == limit {
			break
		}
	}

	return out
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		if !ref.IsAbs() {
			return ""
		}
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
