// Package dictionary loads the company and sector reference tables.
//
// Both tables are CSV files with a header row. Header names are trimmed,
// NFC-normalized and have inner spaces replaced by underscores, so
// "Tên chính thức" and "Tên_chính_thức" address the same column.
package dictionary

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ppiankov/newstag/internal/model"
	"golang.org/x/text/unicode/norm"
)

// Column names after normalization
const (
	ColIndex    = "STT"
	ColTicker   = "Mã_cp"
	ColName     = "Tên_chính_thức"
	ColSector   = "Ngành"
	ColKeywords = "Từ_khóa"
)

// ErrMissingColumn is returned when a required header is absent
var ErrMissingColumn = errors.New("missing required column")

// RowError describes a malformed dictionary row
type RowError struct {
	File   string
	Line   int
	Column string
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s:%d: column %s: %s", e.File, e.Line, e.Column, e.Reason)
}

// Dictionary holds both reference tables, read-only after loading
type Dictionary struct {
	Companies []model.CompanyRecord
	Sectors   *model.SectorKeywordMap
}

// Load reads both dictionaries. Any problem is fatal.
func Load(companiesPath, sectorsPath string) (*Dictionary, error) {
	companies, err := LoadCompanies(companiesPath)
	if err != nil {
		return nil, fmt.Errorf("load company dictionary: %w", err)
	}

	sectors, err := LoadSectors(sectorsPath)
	if err != nil {
		return nil, fmt.Errorf("load sector dictionary: %w", err)
	}

	return &Dictionary{
		Companies: companies,
		Sectors:   sectors,
	}, nil
}

// LoadCompanies reads the company dictionary from a file
func LoadCompanies(path string) ([]model.CompanyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return ReadCompanies(f, path)
}

// ReadCompanies parses a company dictionary. name labels errors.
func ReadCompanies(r io.Reader, name string) ([]model.CompanyRecord, error) {
	t, err := readTable(r, name)
	if err != nil {
		return nil, err
	}
	if err := t.require(ColTicker, ColName, ColSector); err != nil {
		return nil, err
	}

	companies := make([]model.CompanyRecord, 0, len(t.rows))
	for _, row := range t.rows {
		line := row.line

		c := model.CompanyRecord{
			Ticker:       t.get(row, ColTicker),
			OfficialName: t.get(row, ColName),
			Sector:       t.get(row, ColSector),
			Keywords:     SplitKeywords(t.get(row, ColKeywords)),
		}

		for _, req := range []struct{ col, val string }{
			{ColTicker, c.Ticker},
			{ColName, c.OfficialName},
			{ColSector, c.Sector},
		} {
			if req.val == "" {
				return nil, &RowError{File: name, Line: line, Column: req.col, Reason: "value is empty"}
			}
		}

		if raw := t.get(row, ColIndex); raw != "" {
			idx, err := strconv.Atoi(raw)
			if err != nil {
				return nil, &RowError{File: name, Line: line, Column: ColIndex, Reason: fmt.Sprintf("not a number: %q", raw)}
			}
			c.Index = idx
		}

		companies = append(companies, c)
	}

	return companies, nil
}

// LoadSectors reads the sector dictionary from a file
func LoadSectors(path string) (*model.SectorKeywordMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return ReadSectors(f, path)
}

// ReadSectors parses a sector dictionary. name labels errors.
func ReadSectors(r io.Reader, name string) (*model.SectorKeywordMap, error) {
	t, err := readTable(r, name)
	if err != nil {
		return nil, err
	}
	if err := t.require(ColSector, ColKeywords); err != nil {
		return nil, err
	}

	sectors := model.NewSectorKeywordMap()
	for _, row := range t.rows {
		line := row.line
		sector := t.get(row, ColSector)
		if sector == "" {
			return nil, &RowError{File: name, Line: line, Column: ColSector, Reason: "value is empty"}
		}
		if err := sectors.Add(sector, SplitKeywords(t.get(row, ColKeywords))); err != nil {
			return nil, &RowError{File: name, Line: line, Column: ColSector, Reason: err.Error()}
		}
	}

	return sectors, nil
}

// SplitKeywords splits a comma-separated alias list into trimmed lowercase
// keywords, dropping empties and repeats while keeping order.
func SplitKeywords(raw string) []string {
	var out []string
	seen := make(map[string]bool)

	for _, part := range strings.Split(raw, ",") {
		kw := strings.ToLower(strings.TrimSpace(part))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}

	return out
}

// NormalizeColumn applies the header normalization rule
func NormalizeColumn(name string) string {
	name = strings.TrimPrefix(name, "\uFEFF")
	name = norm.NFC.String(strings.TrimSpace(name))
	return strings.ReplaceAll(name, " ", "_")
}

type record struct {
	line   int
	fields []string
}

type table struct {
	name    string
	columns map[string]int
	rows    []record
}

func readTable(r io.Reader, name string) (*table, error) {
	reader := csv.NewReader(skipBOM(r))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: empty file, header row required", name)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[NormalizeColumn(h)] = i
	}

	var rows []record
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: read rows: %w", name, err)
		}
		// Blank rows are trailing lines from spreadsheet exports
		if isBlank(fields) {
			continue
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, record{line: line, fields: fields})
	}

	return &table{name: name, columns: columns, rows: rows}, nil
}

func (t *table) require(cols ...string) error {
	for _, c := range cols {
		if _, ok := t.columns[c]; !ok {
			return fmt.Errorf("%s: %w %s", t.name, ErrMissingColumn, c)
		}
	}
	return nil
}

func (t *table) get(row record, col string) string {
	i, ok := t.columns[col]
	if !ok || i >= len(row.fields) {
		return ""
	}
	return strings.TrimSpace(row.fields[i])
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM drops a leading UTF-8 byte order mark written by spreadsheet tools
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}
