// Package classify decides which companies or sectors an article mentions.
//
// Classification runs in two phases. Every company is tested against the
// article by name and then by keyword aliases; all matching companies are
// returned in dictionary order. Only when no company matched are sectors
// tested, each contributing at most one row. Company rows and sector rows
// never appear in the same result.
package classify

import (
	"context"

	"github.com/ppiankov/newstag/internal/dictionary"
	"github.com/ppiankov/newstag/internal/fuzzy"
	"github.com/ppiankov/newstag/internal/model"
)

// Classifier maps one article to match rows numbered 1..N
type Classifier interface {
	Name() string
	Classify(ctx context.Context, article model.Article) ([]model.MatchResult, error)
}

// Classify runs the fuzzy two-phase classification over articleText.
// It never fails; an empty article yields an empty result.
func Classify(articleText string, companies []model.CompanyRecord, sectors *model.SectorKeywordMap, threshold int) []model.MatchResult {
	article := fuzzy.NewText(articleText)
	results := []model.MatchResult{}
	if article.IsEmpty() {
		return results
	}

	for _, c := range companies {
		if !companyMatches(article, c, threshold) {
			continue
		}
		results = append(results, model.MatchResult{
			Seq:         len(results) + 1,
			CompanyName: c.OfficialName,
			StockTicker: c.Ticker,
			Sector:      c.Sector,
		})
	}

	if len(results) > 0 {
		return results
	}

	for _, sector := range sectors.Sectors() {
		if !anySimilar(article, sectors.Keywords(sector), threshold) {
			continue
		}
		results = append(results, model.MatchResult{
			Seq:    len(results) + 1,
			Sector: sector,
		})
	}

	return results
}

func companyMatches(article fuzzy.Text, c model.CompanyRecord, threshold int) bool {
	if name := fuzzy.NewText(c.LowerName()); !name.IsEmpty() && article.Similar(name, threshold) {
		return true
	}
	return anySimilar(article, c.Keywords, threshold)
}

// anySimilar stops at the first keyword that matches
func anySimilar(article fuzzy.Text, keywords []string, threshold int) bool {
	for _, kw := range keywords {
		candidate := fuzzy.NewText(kw)
		if candidate.IsEmpty() {
			continue
		}
		if article.Similar(candidate, threshold) {
			return true
		}
	}
	return false
}

// FuzzyClassifier classifies articles against a loaded dictionary
type FuzzyClassifier struct {
	dict      *dictionary.Dictionary
	threshold int
}

// NewFuzzyClassifier creates a fuzzy classifier
func NewFuzzyClassifier(dict *dictionary.Dictionary, threshold int) *FuzzyClassifier {
	return &FuzzyClassifier{
		dict:      dict,
		threshold: threshold,
	}
}

// Name returns the engine name
func (c *FuzzyClassifier) Name() string {
	return "fuzzy"
}

// Threshold returns the similarity threshold in use
func (c *FuzzyClassifier) Threshold() int {
	return c.threshold
}

// Classify classifies the article content. The title is not matched.
func (c *FuzzyClassifier) Classify(ctx context.Context, article model.Article) ([]model.MatchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Classify(article.Content, c.dict.Companies, c.dict.Sectors, c.threshold), nil
}
