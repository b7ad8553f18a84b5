package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/newstag/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "gemini", "google":
		return NewGeminiProvider(config)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (supported: openai, anthropic, ollama, gemini)", config.Provider)
	}
}

// ConfigFromModel converts the application config into provider config.
// An empty API key is filled from the provider's conventional environment
// variable.
func ConfigFromModel(llmCfg model.LLMConfig, httpCfg model.HTTPConfig) Config {
	cfg := Config{
		Provider:   llmCfg.Provider,
		Model:      llmCfg.Model,
		APIKey:     llmCfg.APIKey,
		BaseURL:    llmCfg.BaseURL,
		Timeout:    llmCfg.Timeout,
		MaxTokens:  llmCfg.MaxTokens,
		HTTPProxy:  httpCfg.HTTPProxy,
		HTTPSProxy: httpCfg.HTTPSProxy,
		NoProxy:    httpCfg.NoProxy,
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(APIKeyEnv(cfg.Provider))
	}
	if cfg.BaseURL == "" && strings.EqualFold(cfg.Provider, "ollama") {
		cfg.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}

	return cfg
}

// APIKeyEnv names the environment variable holding a provider's key
func APIKeyEnv(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic", "claude":
		return "ANTHROPIC_API_KEY"
	case "gemini", "google":
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}
