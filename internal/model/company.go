package model

import (
	"fmt"
	"strings"
)

// CompanyRecord is one row of the company dictionary
type CompanyRecord struct {
	Index        int      `json:"stt,omitempty"`      // STT column, informational only
	Ticker       string   `json:"ticker"`             // Mã cp
	OfficialName string   `json:"official_name"`      // Tên chính thức, printed in output
	Sector       string   `json:"sector"`             // Ngành
	Keywords     []string `json:"keywords,omitempty"` // Lowercase aliases in dictionary order
}

// LowerName returns the lowercase official name used for matching.
// It is never used for display.
func (c CompanyRecord) LowerName() string {
	return strings.ToLower(c.OfficialName)
}

// SectorKeywordMap maps sector names to their keyword aliases.
// Iteration follows insertion order so classification output is stable.
type SectorKeywordMap struct {
	order    []string
	keywords map[string][]string
}

// NewSectorKeywordMap creates an empty map
func NewSectorKeywordMap() *SectorKeywordMap {
	return &SectorKeywordMap{
		keywords: make(map[string][]string),
	}
}

// Add registers a sector. Sector names are unique keys.
func (m *SectorKeywordMap) Add(sector string, keywords []string) error {
	if sector == "" {
		return fmt.Errorf("sector name is empty")
	}
	if _, exists := m.keywords[sector]; exists {
		return fmt.Errorf("duplicate sector %q", sector)
	}
	m.order = append(m.order, sector)
	m.keywords[sector] = append([]string(nil), keywords...)
	return nil
}

// Sectors returns sector names in insertion order
func (m *SectorKeywordMap) Sectors() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.order...)
}

// Keywords returns the keywords of a sector
func (m *SectorKeywordMap) Keywords(sector string) []string {
	if m == nil {
		return nil
	}
	return m.keywords[sector]
}

// Has reports whether the sector is known
func (m *SectorKeywordMap) Has(sector string) bool {
	if m == nil {
		return false
	}
	_, ok := m.keywords[sector]
	return ok
}

// Len returns the number of sectors
func (m *SectorKeywordMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}
