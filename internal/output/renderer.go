package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ppiankov/newstag/internal/model"
)

// ResultHeader is the CSV header of a single-article result file
var ResultHeader = []string{"STT", "Tên công ty", "Mã cổ phiếu", "Tên ngành"}

// BatchHeader is the CSV header of a batch result file
var BatchHeader = []string{"ID bài báo", "Tiêu đề", "STT", "Tên công ty", "Mã cổ phiếu", "Tên ngành"}

// ArticleResults pairs an article with its classification rows
type ArticleResults struct {
	Article model.Article
	Results []model.MatchResult
}

// Renderer writes classification results to files
type Renderer struct {
	out io.Writer
}

// NewRenderer creates a renderer that prints summaries to out
func NewRenderer(out io.Writer) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	return &Renderer{out: out}
}

// RenderCSV writes result rows to path. Nothing is written for an empty
// result; the return value reports whether a file was created.
func (r *Renderer) RenderCSV(results []model.MatchResult, path string) (bool, error) {
	if len(results) == 0 {
		return false, nil
	}

	rows := make([][]string, 0, len(results)+1)
	rows = append(rows, ResultHeader)
	for _, res := range results {
		rows = append(rows, resultRow(res))
	}

	if err := writeCSV(path, rows); err != nil {
		return false, err
	}
	return true, nil
}

// RenderBatchCSV writes every article's rows into one CSV. Articles without
// matches contribute no rows. Nothing is written when no article matched.
func (r *Renderer) RenderBatchCSV(batch []ArticleResults, path string) (bool, error) {
	rows := [][]string{BatchHeader}
	for _, ar := range batch {
		for _, res := range ar.Results {
			rows = append(rows, append([]string{strconv.Itoa(ar.Article.ID), ar.Article.Title}, resultRow(res)...))
		}
	}

	if len(rows) == 1 {
		return false, nil
	}
	if err := writeCSV(path, rows); err != nil {
		return false, err
	}
	return true, nil
}

// RenderAssociations writes the batch as a JSON association list
func (r *Renderer) RenderAssociations(batch []ArticleResults, path string) error {
	associations := []model.Association{}
	for _, ar := range batch {
		associations = append(associations, model.GroupBySector(ar.Article.ID, ar.Article.Title, ar.Results)...)
	}
	return r.RenderJSON(associations, path)
}

// RenderJSON writes v as indented JSON
func (r *Renderer) RenderJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write JSON file: %w", err)
	}

	return nil
}

// RenderSummary prints result rows as an aligned table
func (r *Renderer) RenderSummary(results []model.MatchResult) {
	if len(results) == 0 {
		return
	}

	_, _ = fmt.Fprintf(r.out, "%-4s %-45s %-8s %s\n", "STT", "Tên công ty", "Mã CP", "Tên ngành")
	for _, res := range results {
		name := res.CompanyName
		if name == "" {
			name = "-"
		}
		ticker := res.StockTicker
		if ticker == "" {
			ticker = "-"
		}
		_, _ = fmt.Fprintf(r.out, "%-4d %-45s %-8s %s\n", res.Seq, name, ticker, res.Sector)
	}
}

func resultRow(res model.MatchResult) []string {
	return []string{strconv.Itoa(res.Seq), res.CompanyName, res.StockTicker, res.Sector}
}

func writeCSV(path string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
