package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/newstag/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Classify asks the model which sectors and companies an article
	// mentions, restricted to the dictionaries in the request
	Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ClassifyRequest contains the input for one article
type ClassifyRequest struct {
	Article model.Article

	// CompaniesCSV and SectorsCSV are the dictionaries rendered as CSV.
	// The model may only answer with entries from these tables.
	CompaniesCSV string
	SectorsCSV   string

	// Prompt overrides the user message built by BuildPrompt
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// ClassifyResponse contains the parsed model output
type ClassifyResponse struct {
	Associations []model.Association
	Model        string
	TokensUsed   int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", "gemini"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic/Gemini
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Model:     "gpt-4o",
		Timeout:   120,
		MaxTokens: 4000,
	}
}

// SystemPrompt instructs the model to extract associations
const SystemPrompt = `Bạn là một chuyên gia trích xuất dữ liệu có cấu trúc.

# Nhiệm vụ
Phân tích bài báo dựa trên 2 dictionary đã cho (ở dạng CSV). Đầu ra là một danh sách các object theo schema đã cung cấp.

# Mô tả
- Chỉ ra ngành được nhắc đến chủ yếu trong bài báo, chọn trong danh sách các ngành ở Dictionary 2.
- Tìm các công ty thuộc ngành đó được nhắc đến trong bài báo, đồng thời có trong Dictionary 1.
- Một ngành có thể chứa nhiều công ty. Không bịa thêm công ty hoặc ngành ngoài hai dictionary.
- Nếu bài báo không nhắc đến ngành nào, trả về danh sách rỗng.

# Output Format
Một JSON object {"results": [...]}, mỗi phần tử có dạng
{
  "id": số thứ tự bài báo,
  "article": tiêu đề bài báo,
  "sector": tên ngành,
  "companies": [
    {"company_name": tên công ty, "company_stock_id": mã cổ phiếu}
  ]
}`

// BuildPrompt renders the user message for one article
func BuildPrompt(req ClassifyRequest) string {
	var b strings.Builder

	b.WriteString("# Dictionary 1 (STT,Mã cp,Tên chính thức,Ngành,Từ khóa)\n")
	b.WriteString(strings.TrimSpace(req.CompaniesCSV))
	b.WriteString("\n\n# Dictionary 2 (STT,Ngành,Từ khóa)\n")
	b.WriteString(strings.TrimSpace(req.SectorsCSV))
	b.WriteString("\n\n# Bài báo\n")
	fmt.Fprintf(&b, "id: %d\n", req.Article.ID)
	if req.Article.Title != "" {
		fmt.Fprintf(&b, "title: %s\n", req.Article.Title)
	}
	b.WriteString("content:\n")
	b.WriteString(req.Article.Content)
	b.WriteString("\n")

	return b.String()
}

// classification is the structured output envelope. Providers with schema
// support require a top-level object, so the list is wrapped.
type classification struct {
	Results []model.Association `json:"results"`
}

// parseAssociations decodes model output. It accepts the wrapped object or
// a bare array, optionally inside a Markdown code fence. Associations
// without an id or title inherit them from the article.
func parseAssociations(text string, article model.Article) ([]model.Association, error) {
	cleaned := cleanJSONResponse(text)
	if cleaned == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var out []model.Association
	if strings.HasPrefix(cleaned, "[") {
		if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
			return nil, fmt.Errorf("unmarshal associations: %w", err)
		}
	} else {
		var wrapped classification
		if err := json.Unmarshal([]byte(cleaned), &wrapped); err != nil {
			return nil, fmt.Errorf("unmarshal associations: %w", err)
		}
		out = wrapped.Results
	}

	for i := range out {
		if out[i].ID == 0 {
			out[i].ID = article.ID
		}
		if out[i].Article == "" {
			out[i].Article = article.Title
		}
		if out[i].Companies == nil {
			out[i].Companies = []model.CompanyRef{}
		}
	}
	if out == nil {
		out = []model.Association{}
	}

	return out, nil
}

// cleanJSONResponse strips a surrounding Markdown code fence
func cleanJSONResponse(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	return strings.TrimSpace(text)
}

func resolveModel(req ClassifyRequest, cfg Config, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if cfg.Model != "" {
		return cfg.Model
	}
	return fallback
}

func resolveMaxTokens(req ClassifyRequest, cfg Config) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if cfg.MaxTokens > 0 {
		return cfg.MaxTokens
	}
	return 4000
}
