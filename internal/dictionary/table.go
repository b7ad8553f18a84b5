package dictionary

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
)

// CompaniesTable renders the company dictionary back to CSV text
// (STT,Mã cp,Tên chính thức,Ngành,Từ khóa) for prompts.
func (d *Dictionary) CompaniesTable() string {
	rows := [][]string{{"STT", "Mã cp", "Tên chính thức", "Ngành", "Từ khóa"}}
	for i, c := range d.Companies {
		idx := c.Index
		if idx == 0 {
			idx = i + 1
		}
		rows = append(rows, []string{
			strconv.Itoa(idx),
			c.Ticker,
			c.OfficialName,
			c.Sector,
			strings.Join(c.Keywords, ", "),
		})
	}
	return renderCSV(rows)
}

// SectorsTable renders the sector dictionary back to CSV text
// (STT,Ngành,Từ khóa) for prompts.
func (d *Dictionary) SectorsTable() string {
	rows := [][]string{{"STT", "Ngành", "Từ khóa"}}
	for i, s := range d.Sectors.Sectors() {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			s,
			strings.Join(d.Sectors.Keywords(s), ", "),
		})
	}
	return renderCSV(rows)
}

// CompanyByTicker looks up a company by ticker, case-insensitively
func (d *Dictionary) CompanyByTicker(ticker string) (int, bool) {
	for i, c := range d.Companies {
		if strings.EqualFold(c.Ticker, ticker) {
			return i, true
		}
	}
	return -1, false
}

func renderCSV(rows [][]string) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.WriteAll(rows) // writes to memory cannot fail
	return buf.String()
}
