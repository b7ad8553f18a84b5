package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/ppiankov/newstag/internal/cache"
	"github.com/ppiankov/newstag/internal/dictionary"
	"github.com/ppiankov/newstag/internal/model"
)

// Classifier adapts a Provider to the article classifier contract used by
// the fuzzy engine. Responses may be cached by article content.
type Classifier struct {
	provider     Provider
	dict         *dictionary.Dictionary
	companiesCSV string
	sectorsCSV   string
	cache        cache.Cache

	checkOnce sync.Once
	checkErr  error
}

// NewClassifier builds a classifier over dict. c may be nil.
func NewClassifier(provider Provider, dict *dictionary.Dictionary, c cache.Cache) *Classifier {
	if c == nil {
		c = cache.Nop{}
	}
	return &Classifier{
		provider:     provider,
		dict:         dict,
		companiesCSV: dict.CompaniesTable(),
		sectorsCSV:   dict.SectorsTable(),
		cache:        c,
	}
}

// Name returns "llm/<provider>"
func (c *Classifier) Name() string {
	return "llm/" + c.provider.Name()
}

// Classify asks the provider about one article and flattens the answer
// into numbered rows.
func (c *Classifier) Classify(ctx context.Context, article model.Article) ([]model.MatchResult, error) {
	if strings.TrimSpace(article.Content) == "" {
		return []model.MatchResult{}, nil
	}

	key := cache.Key("llm", c.provider.Name(), c.companiesCSV, c.sectorsCSV, article.Title, article.Content)
	if data, ok := c.cache.Get(key); ok {
		var rows []model.MatchResult
		if err := json.Unmarshal(data, &rows); err == nil {
			return rows, nil
		}
	}

	if err := c.ensureAvailable(ctx); err != nil {
		return nil, err
	}

	resp, err := c.provider.Classify(ctx, ClassifyRequest{
		Article:      article,
		CompaniesCSV: c.companiesCSV,
		SectorsCSV:   c.sectorsCSV,
	})
	if err != nil {
		return nil, fmt.Errorf("classify article %d: %w", article.ID, err)
	}

	rows := Flatten(c.canonicalize(resp.Associations))
	if data, err := json.Marshal(rows); err == nil {
		_ = c.cache.Set(key, data, 0)
	}

	return rows, nil
}

func (c *Classifier) ensureAvailable(ctx context.Context) error {
	c.checkOnce.Do(func() {
		if !c.provider.IsAvailable(ctx) {
			c.checkErr = fmt.Errorf("LLM provider %s is not available", c.provider.Name())
		}
	})
	return c.checkErr
}

// canonicalize replaces company names and tickers the model returned with
// the dictionary's spelling when the ticker is known.
func (c *Classifier) canonicalize(associations []model.Association) []model.Association {
	for i := range associations {
		for j, company := range associations[i].Companies {
			k, ok := c.dict.CompanyByTicker(strings.TrimSpace(company.CompanyStockID))
			if !ok {
				continue
			}
			associations[i].Companies[j] = model.CompanyRef{
				CompanyName:    c.dict.Companies[k].OfficialName,
				CompanyStockID: c.dict.Companies[k].Ticker,
			}
		}
	}
	return associations
}

// Flatten turns associations into rows numbered from 1. An association
// without companies yields one sector-only row; otherwise one row per
// company. Repeated rows are dropped.
func Flatten(associations []model.Association) []model.MatchResult {
	rows := []model.MatchResult{}
	seen := make(map[model.MatchResult]bool)

	add := func(row model.MatchResult) {
		if seen[row] {
			return
		}
		seen[row] = true
		row.Seq = len(rows) + 1
		rows = append(rows, row)
	}

	for _, a := range associations {
		sector := strings.TrimSpace(a.Sector)
		if len(a.Companies) == 0 {
			if sector != "" {
				add(model.MatchResult{Sector: sector})
			}
			continue
		}
		for _, company := range a.Companies {
			add(model.MatchResult{
				CompanyName: strings.TrimSpace(company.CompanyName),
				StockTicker: strings.TrimSpace(company.CompanyStockID),
				Sector:      sector,
			})
		}
	}

	return rows
}
