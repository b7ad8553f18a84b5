package model

// MatchResult is one output row of a classification run.
// CompanyName and StockTicker are empty for sector-only matches.
type MatchResult struct {
	Seq         int    `json:"stt"`
	CompanyName string `json:"company_name"`
	StockTicker string `json:"stock_ticker"`
	Sector      string `json:"sector"`
}

// IsSectorOnly reports whether the row carries only a sector
func (r MatchResult) IsSectorOnly() bool {
	return r.CompanyName == "" && r.StockTicker == ""
}

// CompanyRef is a company reference inside an Association
type CompanyRef struct {
	CompanyName    string `json:"company_name"`
	CompanyStockID string `json:"company_stock_id"`
}

// Association links one article to a sector and the companies of that sector
// mentioned in it. This is the shape produced by the LLM classifier and by
// batch JSON output.
type Association struct {
	ID        int          `json:"id"`
	Article   string       `json:"article"`
	Sector    string       `json:"sector"`
	Companies []CompanyRef `json:"companies"`
}

// GroupBySector folds match rows into associations, one per sector in
// first-seen order. Sector-only rows produce an association with no companies.
func GroupBySector(articleID int, title string, rows []MatchResult) []Association {
	var out []Association
	index := make(map[string]int)

	for _, row := range rows {
		i, ok := index[row.Sector]
		if !ok {
			i = len(out)
			index[row.Sector] = i
			out = append(out, Association{
				ID:        articleID,
				Article:   title,
				Sector:    row.Sector,
				Companies: []CompanyRef{},
			})
		}
		if row.IsSectorOnly() {
			continue
		}
		out[i].Companies = append(out[i].Companies, CompanyRef{
			CompanyName:    row.CompanyName,
			CompanyStockID: row.StockTicker,
		})
	}

	return out
}
