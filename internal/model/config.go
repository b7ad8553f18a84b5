package model

import (
	"fmt"
	"time"
)

// DefaultThreshold is the default partial-ratio threshold
const DefaultThreshold = 85

// Config is the complete newstag configuration
type Config struct {
	Dictionary   DictionaryConfig  `yaml:"dictionary" mapstructure:"dictionary"`
	Match        MatchConfig       `yaml:"match" mapstructure:"match"`
	Scrape       ScrapeConfig      `yaml:"scrape" mapstructure:"scrape"`
	HTTP         HTTPConfig        `yaml:"http" mapstructure:"http"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	LLM          LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output       OutputConfig      `yaml:"output" mapstructure:"output"`
}

// DictionaryConfig locates the two reference tables
type DictionaryConfig struct {
	CompaniesPath string `yaml:"companies_path" mapstructure:"companies_path"`
	SectorsPath   string `yaml:"sectors_path" mapstructure:"sectors_path"`
}

// MatchConfig controls classification
type MatchConfig struct {
	Threshold int    `yaml:"threshold" mapstructure:"threshold"` // 0-100
	Engine    string `yaml:"engine" mapstructure:"engine"`       // fuzzy, llm
}

// ScrapeConfig describes the listing pages to crawl
type ScrapeConfig struct {
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	ListingPath   string `yaml:"listing_path" mapstructure:"listing_path"`
	PageParam     string `yaml:"page_param" mapstructure:"page_param"`
	Pages         int    `yaml:"pages" mapstructure:"pages"`
	MaxArticles   int    `yaml:"max_articles" mapstructure:"max_articles"`
	RespectRobots bool   `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// HTTPConfig configures outbound HTTP
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS  bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// RateLimitConfig is the per-host token bucket used while crawling
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// CacheConfig configures the page cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// LLMConfig configures the optional LLM classifier
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, gemini
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ConcurrencyConfig sizes the batch worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig controls console output
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Dictionary: DictionaryConfig{
			CompaniesPath: "dictionary_companies.csv",
			SectorsPath:   "dictionary_sectors.csv",
		},
		Match: MatchConfig{
			Threshold: DefaultThreshold,
			Engine:    "fuzzy",
		},
		Scrape: ScrapeConfig{
			BaseURL:       "https://vneconomy.vn",
			ListingPath:   "/chung-khoan.htm",
			PageParam:     "trang",
			Pages:         3,
			MaxArticles:   18,
			RespectRobots: true,
		},
		HTTP: HTTPConfig{
			Timeout:      10 * time.Second,
			UserAgent:    "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/67.0.3396.87 Safari/537.36",
			MaxBodyBytes: 5_000_000,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 0.7,
			BurstSize:         1,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".newstag-cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "gpt-4o",
			Timeout:   120,
			MaxTokens: 4000,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
	}
}

// Validate checks values that would otherwise corrupt a run
func (c *Config) Validate() error {
	if c.Match.Threshold < 0 || c.Match.Threshold > 100 {
		return fmt.Errorf("match.threshold must be within [0,100], got %d", c.Match.Threshold)
	}
	switch c.Match.Engine {
	case "fuzzy", "llm":
	default:
		return fmt.Errorf("match.engine must be fuzzy or llm, got %q", c.Match.Engine)
	}
	if c.Scrape.Pages < 0 {
		return fmt.Errorf("scrape.pages must not be negative")
	}
	if c.Scrape.MaxArticles < 0 {
		return fmt.Errorf("scrape.max_articles must not be negative")
	}
	return nil
}
