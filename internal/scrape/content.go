package scrape

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// ContentSource says where article text came from
type ContentSource string

const (
	SourceSelector    ContentSource = "selector"
	SourceReadability ContentSource = "readability"
	SourceNone        ContentSource = "none"
)

// ExtractContent returns the article body as paragraphs joined by "\n".
// Paragraphs under the content container are preferred; without it the
// readability extraction is used.
func ExtractContent(page []byte, pageURL *url.URL) (string, ContentSource, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", SourceNone, fmt.Errorf("parse HTML: %w", err)
	}

	container := doc.Find(ContentSelector).First()
	if container.Length() > 0 {
		var paragraphs []string
		container.Find("p").Each(func(_ int, p *goquery.Selection) {
			if text := paragraphText(p); text != "" {
				paragraphs = append(paragraphs, text)
			}
		})
		return strings.Join(paragraphs, "\n"), SourceSelector, nil
	}

	text := readabilityText(page, pageURL)
	if text == "" {
		return "", SourceNone, nil
	}
	return text, SourceReadability, nil
}

// paragraphText joins a paragraph's text nodes with single spaces, so
// inline markup never glues words together.
func paragraphText(p *goquery.Selection) string {
	var parts []string
	for _, n := range p.Nodes {
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.TextNode {
				if t := collapse(n.Data); t != "" {
					parts = append(parts, t)
				}
				return
			}
			if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
				return
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(n)
	}
	return strings.Join(parts, " ")
}

func readabilityText(page []byte, pageURL *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(page), pageURL)
	if err != nil {
		return ""
	}

	var lines []string
	for _, line := range strings.Split(article.TextContent, "\n") {
		if line = collapse(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
