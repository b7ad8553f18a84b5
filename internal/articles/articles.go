// Package articles reads and writes article files.
package articles

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/newstag/internal/model"
)

// Header is the column order of an articles CSV
var Header = []string{"id", "date", "title", "link", "content"}

var dateLayouts = []string{
	model.ArticleDateLayout,
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// ReadText reads a plain-text article. A missing file is not an error:
// found is false and the content is empty.
func ReadText(path string) (content string, found bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read article: %w", err)
	}
	return string(data), true, nil
}

// Load reads an articles CSV file
func Load(path string) ([]model.Article, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return Read(f)
}

// Read parses an articles CSV. Columns are located by header name; rows
// without an id are numbered by position.
func Read(r io.Reader) ([]model.Article, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))] = i
	}
	if _, ok := cols["content"]; !ok {
		return nil, fmt.Errorf("missing required column content")
	}

	get := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var out []model.Article
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := reader.FieldPos(0)

		a := model.Article{
			ID:      len(out) + 1,
			Title:   strings.TrimSpace(get(row, "title")),
			Link:    strings.TrimSpace(get(row, "link")),
			Content: get(row, "content"),
		}

		if raw := strings.TrimSpace(get(row, "id")); raw != "" {
			id, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid id %q", line, raw)
			}
			a.ID = id
		}

		if raw := strings.TrimSpace(get(row, "date")); raw != "" {
			d, err := ParseDate(raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			a.Date = d
		}

		out = append(out, a)
	}

	return out, nil
}

// Save writes articles to a CSV file
func Save(path string, list []model.Article) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	return Write(f, list)
}

// Write serializes articles as CSV
func Write(w io.Writer, list []model.Article) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}

	for _, a := range list {
		date := ""
		if !a.Date.IsZero() {
			date = a.Date.Format(model.ArticleDateLayout)
		}
		if err := cw.Write([]string{strconv.Itoa(a.ID), date, a.Title, a.Link, a.Content}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ParseDate accepts ISO dates and the dd/mm/yyyy form used by listing pages
func ParseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, raw); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
