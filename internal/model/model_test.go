package model

import "testing"

func TestSectorKeywordMap_InsertionOrder(t *testing.T) {
	m := NewSectorKeywordMap()
	for _, s := range []string{"Ngân hàng", "Bất động sản", "Chứng khoán"} {
		if err := m.Add(s, []string{s}); err != nil {
			t.Fatalf("Add(%q): %v", s, err)
		}
	}

	got := m.Sectors()
	want := []string{"Ngân hàng", "Bất động sản", "Chứng khoán"}
	if len(got) != len(want) {
		t.Fatalf("expected %d sectors, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sector %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSectorKeywordMap_Duplicate(t *testing.T) {
	m := NewSectorKeywordMap()
	if err := m.Add("Thép", nil); err != nil {
		t.Fatal(err)
	}
	if err := m.Add("Thép", []string{"thép"}); err == nil {
		t.Error("expected error for duplicate sector")
	}
	if err := m.Add("", nil); err == nil {
		t.Error("expected error for empty sector name")
	}
}

func TestSectorKeywordMap_NilSafe(t *testing.T) {
	var m *SectorKeywordMap
	if m.Len() != 0 || m.Sectors() != nil || m.Has("x") || m.Keywords("x") != nil {
		t.Error("nil map should behave as empty")
	}
}

func TestGroupBySector(t *testing.T) {
	rows := []MatchResult{
		{Seq: 1, CompanyName: "Ngân hàng TMCP Ngoại thương Việt Nam", StockTicker: "VCB", Sector: "Ngân hàng"},
		{Seq: 2, CompanyName: "Tập đoàn Vingroup", StockTicker: "VIC", Sector: "Bất động sản"},
		{Seq: 3, CompanyName: "Ngân hàng TMCP Kỹ thương", StockTicker: "TCB", Sector: "Ngân hàng"},
	}

	got := GroupBySector(7, "Tiêu đề", rows)
	if len(got) != 2 {
		t.Fatalf("expected 2 associations, got %d", len(got))
	}
	if got[0].Sector != "Ngân hàng" || len(got[0].Companies) != 2 {
		t.Errorf("unexpected first association: %+v", got[0])
	}
	if got[1].Companies[0].CompanyStockID != "VIC" {
		t.Errorf("unexpected second association: %+v", got[1])
	}
	if got[0].ID != 7 || got[0].Article != "Tiêu đề" {
		t.Errorf("article identity not carried: %+v", got[0])
	}
}

func TestGroupBySector_SectorOnly(t *testing.T) {
	got := GroupBySector(1, "t", []MatchResult{{Seq: 1, Sector: "Bất động sản"}})
	if len(got) != 1 {
		t.Fatalf("expected 1 association, got %d", len(got))
	}
	if got[0].Companies == nil || len(got[0].Companies) != 0 {
		t.Errorf("expected empty non-nil company list, got %#v", got[0].Companies)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	cfg.Match.Threshold = 101
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for threshold above 100")
	}

	cfg = DefaultConfig()
	cfg.Match.Engine = "regex"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown engine")
	}
}
