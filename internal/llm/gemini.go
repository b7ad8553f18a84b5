package llm

import (
	"context"
	"fmt"
	"os"
	"time"

	"google.golang.org/genai"
)

const geminiDefaultModel = "gemini-2.5-flash"

// GeminiProvider implements the Provider interface for Google Gemini
type GeminiProvider struct {
	client *genai.Client
	config Config
}

// NewGeminiProvider creates a Gemini API provider
func NewGeminiProvider(config Config) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: newHTTPClient(config, 0),
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiProvider{client: client, config: config}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// IsAvailable looks up the configured model
func (p *GeminiProvider) IsAvailable(ctx context.Context) bool {
	model := resolveModel(ClassifyRequest{}, p.config, geminiDefaultModel)
	if _, err := p.client.Models.Get(ctx, model, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Gemini API check failed: %v\n", err)
		return false
	}
	return true
}

// Classify calls GenerateContent with a response schema
func (p *GeminiProvider) Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResponse, error) {
	prompt := req.Prompt
	if prompt == "" {
		prompt = BuildPrompt(req)
	}

	model := resolveModel(req, p.config, geminiDefaultModel)

	ctx, cancel := context.WithTimeout(ctx, requestTimeout(p.config, 120*time.Second))
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    geminiResponseSchema(),
		Temperature:       genai.Ptr[float32](0),
		MaxOutputTokens:   int32(resolveMaxTokens(req, p.config)),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}

	associations, err := parseAssociations(resp.Text(), req.Article)
	if err != nil {
		return nil, err
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	if resp.ModelVersion != "" {
		model = resp.ModelVersion
	}

	return &ClassifyResponse{
		Associations: associations,
		Model:        model,
		TokensUsed:   tokens,
	}, nil
}

func geminiResponseSchema() *genai.Schema {
	company := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"company_name":     {Type: genai.TypeString, Description: "Tên chính thức trong Dictionary 1."},
			"company_stock_id": {Type: genai.TypeString, Description: "Mã cổ phiếu trong Dictionary 1."},
		},
		Required: []string{"company_name", "company_stock_id"},
	}

	association := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"id":        {Type: genai.TypeInteger},
			"article":   {Type: genai.TypeString},
			"sector":    {Type: genai.TypeString, Description: "Tên ngành trong Dictionary 2."},
			"companies": {Type: genai.TypeArray, Items: company},
		},
		Required: []string{"id", "article", "sector", "companies"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"results": {Type: genai.TypeArray, Items: association},
		},
		Required: []string{"results"},
	}
}
