package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/newstag/internal/articles"
	"github.com/ppiankov/newstag/internal/model"
)

const companiesCSV = `STT,Mã cp,Tên chính thức,Ngành,Từ khóa
1,VCB,Ngân hàng TMCP Ngoại thương Việt Nam,Ngân hàng,"Vietcombank, VCB"
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

// testConfig returns defaults pointed at fixture dictionaries in dir
func testConfig(t *testing.T, dir string) *model.Config {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Dictionary.CompaniesPath = writeFile(t, dir, "companies.csv", companiesCSV)
	cfg.Dictionary.SectorsPath = writeFile(t, dir, "sectors.csv", sectorsCSV)
	cfg.Cache.Enabled = false
	cfg.Concurrency.Workers = 2
	return cfg
}

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetEnvPrefix("NEWSTAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := registerDefaults(v, model.DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(newTestViper(t))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := model.DefaultConfig()
	if cfg.Match != want.Match {
		t.Errorf("Match = %+v, want %+v", cfg.Match, want.Match)
	}
	if cfg.Scrape != want.Scrape {
		t.Errorf("Scrape = %+v, want %+v", cfg.Scrape, want.Scrape)
	}
	if cfg.HTTP.Timeout != 10*time.Second {
		t.Errorf("HTTP.Timeout = %v, want 10s", cfg.HTTP.Timeout)
	}
	if cfg.Cache.DiskTTL != 24*time.Hour {
		t.Errorf("Cache.DiskTTL = %v, want 24h", cfg.Cache.DiskTTL)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("NEWSTAG_MATCH_THRESHOLD", "90")
	t.Setenv("NEWSTAG_SCRAPE_PAGES", "5")
	t.Setenv("NEWSTAG_LLM_PROVIDER", "gemini")

	cfg, err := loadConfig(newTestViper(t))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Match.Threshold != 90 {
		t.Errorf("Threshold = %d, want 90", cfg.Match.Threshold)
	}
	if cfg.Scrape.Pages != 5 {
		t.Errorf("Pages = %d, want 5", cfg.Scrape.Pages)
	}
	if cfg.LLM.Provider != "gemini" {
		t.Errorf("Provider = %q, want gemini", cfg.LLM.Provider)
	}
}

func TestLoadConfig_InvalidThreshold(t *testing.T) {
	t.Setenv("NEWSTAG_MATCH_THRESHOLD", "150")

	if _, err := loadConfig(newTestViper(t)); err == nil {
		t.Error("Expected error for threshold out of range")
	}
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "match:\n  threshold: 70\nhttp:\n  timeout: 3s\n")

	v := newTestViper(t)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(v)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Match.Threshold != 70 {
		t.Errorf("Threshold = %d, want 70", cfg.Match.Threshold)
	}
	if cfg.Match.Engine != "fuzzy" {
		t.Errorf("Engine = %q, want default fuzzy", cfg.Match.Engine)
	}
	if cfg.HTTP.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", cfg.HTTP.Timeout)
	}
	if cfg.Scrape.Pages != 3 {
		t.Errorf("Pages = %d, want default 3", cfg.Scrape.Pages)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".newstag")

	path, err := writeDefaultConfig(dir)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config does not parse: %v", err)
	}
	if cfg.Match.Threshold != model.DefaultThreshold {
		t.Errorf("Threshold = %d, want %d", cfg.Match.Threshold, model.DefaultThreshold)
	}
	if !strings.Contains(string(data), "GEMINI_API_KEY") {
		t.Error("Expected API key hints in config file")
	}

	if _, err := writeDefaultConfig(dir); err == nil {
		t.Error("Expected error when config already exists")
	}
}

func TestEngineFlags_Apply(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		check   func(t *testing.T, cfg *model.Config)
		wantErr bool
	}{
		{
			name: "unset flags keep config",
			args: nil,
			check: func(t *testing.T, cfg *model.Config) {
				if cfg.Dictionary.CompaniesPath != "custom.csv" {
					t.Errorf("CompaniesPath = %q", cfg.Dictionary.CompaniesPath)
				}
				if cfg.Match.Threshold != 80 {
					t.Errorf("Threshold = %d", cfg.Match.Threshold)
				}
			},
		},
		{
			name: "threshold and dictionaries",
			args: []string{"--threshold", "90", "--companies", "a.csv", "--sectors", "b.csv"},
			check: func(t *testing.T, cfg *model.Config) {
				if cfg.Match.Threshold != 90 || cfg.Dictionary.CompaniesPath != "a.csv" || cfg.Dictionary.SectorsPath != "b.csv" {
					t.Errorf("unexpected config: %+v %+v", cfg.Match, cfg.Dictionary)
				}
			},
		},
		{
			name: "provider switch clears default model",
			args: []string{"--engine", "llm", "--llm-provider", "gemini"},
			check: func(t *testing.T, cfg *model.Config) {
				if cfg.Match.Engine != "llm" || cfg.LLM.Provider != "gemini" || cfg.LLM.Model != "" {
					t.Errorf("unexpected config: %+v %+v", cfg.Match, cfg.LLM)
				}
			},
		},
		{
			name: "explicit model kept",
			args: []string{"--llm-provider", "ollama", "--llm-model", "llama3"},
			check: func(t *testing.T, cfg *model.Config) {
				if cfg.LLM.Model != "llama3" {
					t.Errorf("Model = %q, want llama3", cfg.LLM.Model)
				}
			},
		},
		{
			name: "no cache",
			args: []string{"--no-cache"},
			check: func(t *testing.T, cfg *model.Config) {
				if cfg.Cache.Enabled {
					t.Error("Expected cache disabled")
				}
			},
		},
		{name: "threshold out of range", args: []string{"--threshold", "101"}, wantErr: true},
		{name: "unknown engine", args: []string{"--engine", "regex"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f engineFlags
			cmd := &cobra.Command{Use: "test"}
			addEngineFlags(cmd, &f)
			if err := cmd.Flags().Parse(tt.args); err != nil {
				t.Fatal(err)
			}

			cfg := model.DefaultConfig()
			cfg.Dictionary.CompaniesPath = "custom.csv"
			cfg.Match.Threshold = 80

			err := f.apply(cmd, cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestBuildClassifier(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	dict, err := loadDictionary(cfg)
	if err != nil {
		t.Fatal(err)
	}

	c, err := buildClassifier(cfg, dict)
	if err != nil {
		t.Fatalf("fuzzy: %v", err)
	}
	if c.Name() != "fuzzy" {
		t.Errorf("Name = %q, want fuzzy", c.Name())
	}

	cfg.Match.Engine = "llm"
	cfg.LLM.Provider = "ollama"
	cfg.LLM.Model = "llama3"
	c, err = buildClassifier(cfg, dict)
	if err != nil {
		t.Fatalf("llm: %v", err)
	}
	if c.Name() != "llm/ollama" {
		t.Errorf("Name = %q, want llm/ollama", c.Name())
	}

	cfg.LLM.Provider = "mistral"
	if _, err := buildClassifier(cfg, dict); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestClassifyFile(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	article := writeFile(t, dir, "article.txt", "Vietcombank báo lãi kỷ lục, cổ phiếu ngân hàng tăng mạnh")
	csvPath := filepath.Join(dir, "out.csv")
	jsonPath := filepath.Join(dir, "out.json")

	var out bytes.Buffer
	if err := classifyFile(context.Background(), cfg, article, csvPath, jsonPath, &out); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("CSV not written: %v", err)
	}
	want := "STT,Tên công ty,Mã cổ phiếu,Tên ngành\n1,Ngân hàng TMCP Ngoại thương Việt Nam,VCB,Ngân hàng\n"
	if string(data) != want {
		t.Errorf("CSV =\n%s\nwant\n%s", data, want)
	}

	var rows []model.MatchResult
	data, err = os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("JSON not written: %v", err)
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].StockTicker != "VCB" {
		t.Errorf("JSON rows = %+v", rows)
	}

	if !strings.Contains(out.String(), "✓ Results saved to: "+csvPath) {
		t.Errorf("output = %q", out.String())
	}
}

func TestClassifyFile_NoMatch(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)

	tests := []struct {
		name    string
		article string
	}{
		{name: "unrelated article", article: writeFile(t, dir, "weather.txt", "Trời nắng đẹp")},
		{name: "missing article", article: filepath.Join(dir, "missing.txt")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			csvPath := filepath.Join(dir, "out.csv")
			var out bytes.Buffer
			if err := classifyFile(context.Background(), cfg, tt.article, csvPath, "", &out); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if strings.TrimSpace(out.String()) != NoMatchMessage {
				t.Errorf("output = %q, want %q", out.String(), NoMatchMessage)
			}
			if _, err := os.Stat(csvPath); !os.IsNotExist(err) {
				t.Errorf("Expected no output file, stat err = %v", err)
			}
		})
	}
}

func TestClassifyFile_BadDictionary(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	cfg.Dictionary.SectorsPath = writeFile(t, dir, "dup.csv", "STT,Ngành,Từ khóa\n1,Thép,thép\n2,Thép,tôn\n")
	article := writeFile(t, dir, "article.txt", "Giá thép tăng")

	err := classifyFile(context.Background(), cfg, article, filepath.Join(dir, "out.csv"), "", &bytes.Buffer{})
	if err == nil {
		t.Fatal("Expected error for duplicate sector")
	}
}

func TestClassifyBatch(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)

	input := filepath.Join(dir, "articles.csv")
	list := []model.Article{
		{ID: 2, Title: "Giá thép", Content: "Giá thép tăng mạnh"},
		{ID: 1, Title: "Vietcombank", Content: "Vietcombank báo lãi kỷ lục, cổ phiếu ngân hàng tăng mạnh"},
		{ID: 3, Title: "Thời tiết", Content: "Trời nắng đẹp"},
	}
	if err := articles.Save(input, list); err != nil {
		t.Fatal(err)
	}

	csvPath := filepath.Join(dir, "batch.csv")
	jsonPath := filepath.Join(dir, "batch.json")
	var log bytes.Buffer
	summary, err := classifyBatch(context.Background(), cfg, input, csvPath, jsonPath, &log)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if summary.Articles != 3 || summary.Matched != 2 || summary.Rows != 2 || summary.Failed != 0 {
		t.Errorf("summary = %+v", summary)
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	want := "ID bài báo,Tiêu đề,STT,Tên công ty,Mã cổ phiếu,Tên ngành\n" +
		"1,Vietcombank,1,Ngân hàng TMCP Ngoại thương Việt Nam,VCB,Ngân hàng\n" +
		"2,Giá thép,1,,,Thép\n"
	if string(data) != want {
		t.Errorf("CSV =\n%s\nwant\n%s", data, want)
	}

	var associations []model.Association
	data, err = os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &associations); err != nil {
		t.Fatal(err)
	}
	if len(associations) != 2 {
		t.Fatalf("associations = %+v", associations)
	}
	if associations[1].Sector != "Thép" || len(associations[1].Companies) != 0 {
		t.Errorf("sector-only association = %+v", associations[1])
	}

	if !strings.Contains(log.String(), "Batch Complete") {
		t.Errorf("log = %q", log.String())
	}
}

func TestClassifyBatch_MissingInput(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)

	_, err := classifyBatch(context.Background(), cfg, filepath.Join(dir, "missing.csv"), filepath.Join(dir, "b.csv"), "", &bytes.Buffer{})
	if err == nil {
		t.Error("Expected error for missing articles file")
	}
}

func TestScrapeArticles(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chung-khoan.htm", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<html><body>
<article class="story story--featured story--timeline">
  <header><time>10/06/2025</time></header>
  <figure><a href="/tin-1.htm"></a></figure>
  <h3>Tin 1</h3>
</article>
<article class="story story--featured story--timeline">
  <header><time>12/06/2025</time></header>
  <figure><a href="/tin-2.htm"></a></figure>
  <h3>Tin 2</h3>
</article>
</body></html>`)
	})
	mux.HandleFunc("/tin-1.htm", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<div class="detail__content"><p>Vietcombank   báo lãi.</p><p>Thêm.</p></div>`)
	})
	mux.HandleFunc("/tin-2.htm", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<div class="detail__content"><p>Giá thép tăng.</p></div>`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := model.DefaultConfig()
	cfg.Scrape.BaseURL = server.URL
	cfg.Scrape.Pages = 1
	cfg.Scrape.RespectRobots = false
	cfg.Cache.Enabled = false
	cfg.RateLimiting.RequestsPerSecond = 0

	outPath := filepath.Join(t.TempDir(), "economy_articles.csv")
	var log bytes.Buffer
	result, err := scrapeArticles(context.Background(), cfg, outPath, &log)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Stats.PagesFetched != 1 {
		t.Errorf("PagesFetched = %d, want 1", result.Stats.PagesFetched)
	}

	got, err := articles.Load(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d articles, want 2", len(got))
	}
	if got[0].ID != 1 || got[0].Title != "Tin 2" || got[0].Content != "Giá thép tăng." {
		t.Errorf("first article = %+v", got[0])
	}
	if got[1].Content != "Vietcombank báo lãi.\nThêm." {
		t.Errorf("second content = %q", got[1].Content)
	}
	if got[1].Date.Format(model.ArticleDateLayout) != "2025-06-10" {
		t.Errorf("second date = %v", got[1].Date)
	}
}

func TestCheckDictionary(t *testing.T) {
	cfg := testConfig(t, t.TempDir())

	var out bytes.Buffer
	if err := checkDictionary(cfg, &out); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(out.String(), "3 companies (2 with keywords)") || !strings.Contains(out.String(), "3 sectors") {
		t.Errorf("output = %q", out.String())
	}

	cfg.Dictionary.CompaniesPath = filepath.Join(t.TempDir(), "missing.csv")
	if err := checkDictionary(cfg, &out); err == nil {
		t.Error("Expected error for missing dictionary")
	}
}

func TestDropColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "companies.csv", "STT,Sàn,Mã cp\n1,HOSE,VCB\n")

	var out bytes.Buffer
	if err := dropColumn(path, " sàn ", "", &out); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "STT,Mã cp\n1,VCB\n" {
		t.Errorf("file = %q", data)
	}

	if err := dropColumn(path, "missing", "", &out); err != nil {
		t.Errorf("missing column should not fail: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "STT,Mã cp\n1,VCB\n" {
		t.Errorf("file changed: %q", data)
	}
}
