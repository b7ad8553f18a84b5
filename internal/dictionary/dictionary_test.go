package dictionary

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const companiesCSV = `STT,Mã cp,Tên chính thức,Ngành,Từ khóa
1,VCB,Ngân hàng TMCP Ngoại thương Việt Nam,Ngân hàng,"Vietcombank, VCB ,vietcombank"
2,VIC,Tập đoàn Vingroup,Bất động sản,
3,HPG,Công ty Cổ phần Tập đoàn Hòa Phát,Thép,"Hòa Phát, HPG"
`

const sectorsCSV = `STT,Ngành,Từ khóa
1,Ngân hàng,"ngân hàng, tín dụng"
2,Bất động sản,"bất động sản, nhà đất"
3,Thép,thép
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestReadCompanies(t *testing.T) {
	companies, err := ReadCompanies(strings.NewReader(companiesCSV), "companies.csv")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(companies) != 3 {
		t.Fatalf("Expected 3 companies, got %d", len(companies))
	}

	vcb := companies[0]
	if vcb.Ticker != "VCB" || vcb.OfficialName != "Ngân hàng TMCP Ngoại thương Việt Nam" || vcb.Sector != "Ngân hàng" {
		t.Errorf("Unexpected record: %+v", vcb)
	}
	if vcb.Index != 1 {
		t.Errorf("Expected STT 1, got %d", vcb.Index)
	}
	want := []string{"vietcombank", "vcb"}
	if strings.Join(vcb.Keywords, "|") != strings.Join(want, "|") {
		t.Errorf("Expected keywords %v, got %v", want, vcb.Keywords)
	}
	if vcb.LowerName() != "ngân hàng tmcp ngoại thương việt nam" {
		t.Errorf("Unexpected lowercase name %q", vcb.LowerName())
	}

	if len(companies[1].Keywords) != 0 {
		t.Errorf("Expected empty keywords for nullable column, got %v", companies[1].Keywords)
	}
}

func TestReadCompanies_HeaderNormalization(t *testing.T) {
	input := "\xEF\xBB\xBF STT , Mã_cp ,Tên chính thức ,Ngành\n1,FPT,Công ty Cổ phần FPT,Công nghệ\n"
	companies, err := ReadCompanies(strings.NewReader(input), "bom.csv")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(companies) != 1 || companies[0].Ticker != "FPT" {
		t.Errorf("Unexpected companies: %+v", companies)
	}
	if companies[0].Keywords != nil {
		t.Errorf("Expected no keywords when column absent, got %v", companies[0].Keywords)
	}
}

func TestReadCompanies_MissingColumn(t *testing.T) {
	input := "STT,Mã cp,Ngành\n1,VCB,Ngân hàng\n"
	_, err := ReadCompanies(strings.NewReader(input), "bad.csv")
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("Expected ErrMissingColumn, got %v", err)
	}
	if !strings.Contains(err.Error(), ColName) {
		t.Errorf("Expected error to name %s, got %v", ColName, err)
	}
}

func TestReadCompanies_EmptyRequiredValue(t *testing.T) {
	input := "STT,Mã cp,Tên chính thức,Ngành\n1,VCB,Vietcombank,Ngân hàng\n\n2,,Tập đoàn Vingroup,Bất động sản\n"
	_, err := ReadCompanies(strings.NewReader(input), "bad.csv")

	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("Expected RowError, got %v", err)
	}
	if rowErr.Line != 4 || rowErr.Column != ColTicker {
		t.Errorf("Expected line 4 column %s, got line %d column %s", ColTicker, rowErr.Line, rowErr.Column)
	}
}

func TestReadCompanies_BadIndex(t *testing.T) {
	input := "STT,Mã cp,Tên chính thức,Ngành\nx,VCB,Vietcombank,Ngân hàng\n"
	_, err := ReadCompanies(strings.NewReader(input), "bad.csv")
	var rowErr *RowError
	if !errors.As(err, &rowErr) || rowErr.Column != ColIndex {
		t.Fatalf("Expected RowError on STT, got %v", err)
	}
}

func TestReadCompanies_EmptyFile(t *testing.T) {
	if _, err := ReadCompanies(strings.NewReader(""), "empty.csv"); err == nil {
		t.Error("Expected error for empty file")
	}
}

func TestReadSectors(t *testing.T) {
	sectors, err := ReadSectors(strings.NewReader(sectorsCSV), "sectors.csv")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if sectors.Len() != 3 {
		t.Fatalf("Expected 3 sectors, got %d", sectors.Len())
	}
	order := sectors.Sectors()
	if order[0] != "Ngân hàng" || order[2] != "Thép" {
		t.Errorf("Unexpected order: %v", order)
	}
	if kws := sectors.Keywords("Bất động sản"); len(kws) != 2 || kws[1] != "nhà đất" {
		t.Errorf("Unexpected keywords: %v", kws)
	}
}

func TestReadSectors_Duplicate(t *testing.T) {
	input := "STT,Ngành,Từ khóa\n1,Thép,thép\n2,Thép,tôn\n"
	_, err := ReadSectors(strings.NewReader(input), "dup.csv")
	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("Expected RowError for duplicate sector, got %v", err)
	}
	if rowErr.Line != 3 {
		t.Errorf("Expected line 3, got %d", rowErr.Line)
	}
}

func TestReadSectors_MissingKeywordsColumn(t *testing.T) {
	_, err := ReadSectors(strings.NewReader("STT,Ngành\n1,Thép\n"), "s.csv")
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("Expected ErrMissingColumn, got %v", err)
	}
}

func TestSplitKeywords(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{" , ,", nil},
		{"VCB", []string{"vcb"}},
		{"Ngân Hàng, tín dụng ,NGÂN HÀNG", []string{"ngân hàng", "tín dụng"}},
	}
	for _, tt := range tests {
		got := SplitKeywords(tt.raw)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Errorf("SplitKeywords(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	cp := writeFile(t, dir, "companies.csv", companiesCSV)
	sp := writeFile(t, dir, "sectors.csv", sectorsCSV)

	dict, err := Load(cp, sp)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(dict.Companies) != 3 || dict.Sectors.Len() != 3 {
		t.Errorf("Unexpected sizes: %d companies, %d sectors", len(dict.Companies), dict.Sectors.Len())
	}

	if _, err := Load(filepath.Join(dir, "missing.csv"), sp); err == nil {
		t.Error("Expected error for missing company dictionary")
	}
}

func TestDictionaryTables(t *testing.T) {
	companies, _ := ReadCompanies(strings.NewReader(companiesCSV), "c")
	sectors, _ := ReadSectors(strings.NewReader(sectorsCSV), "s")
	dict := &Dictionary{Companies: companies, Sectors: sectors}

	ct := dict.CompaniesTable()
	if !strings.HasPrefix(ct, "STT,Mã cp,Tên chính thức,Ngành,Từ khóa\n") {
		t.Errorf("Unexpected header: %q", ct)
	}
	if !strings.Contains(ct, `1,VCB,Ngân hàng TMCP Ngoại thương Việt Nam,Ngân hàng,"vietcombank, vcb"`) {
		t.Errorf("Missing VCB row in:\n%s", ct)
	}

	st := dict.SectorsTable()
	if !strings.Contains(st, "3,Thép,thép") {
		t.Errorf("Missing steel row in:\n%s", st)
	}

	if i, ok := dict.CompanyByTicker("hpg"); !ok || i != 2 {
		t.Errorf("CompanyByTicker(hpg) = %d, %v", i, ok)
	}
}

func TestDropColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sectors.csv", "STT,Ngành, Keywords ,Từ khóa\n1,Thép,steel,thép\n2,Ngân hàng,bank\n")

	matched, err := DropColumn(path, path, "keywords")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if matched != " Keywords " {
		t.Errorf("Expected matched header ' Keywords ', got %q", matched)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "STT,Ngành,Từ khóa\n1,Thép,thép\n2,Ngân hàng\n"
	if string(data) != want {
		t.Errorf("Unexpected output:\n%s\nwant:\n%s", data, want)
	}
}

func TestDropColumn_NotFound(t *testing.T) {
	dir := t.TempDir()
	content := "STT,Ngành\n1,Thép\n"
	path := writeFile(t, dir, "s.csv", content)

	matched, err := DropColumn(path, path, "Notes")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if matched != "" {
		t.Errorf("Expected no match, got %q", matched)
	}
	data, _ := os.ReadFile(path)
	if string(data) != content {
		t.Error("File should be untouched when column is missing")
	}
}
