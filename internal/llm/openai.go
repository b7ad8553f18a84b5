package llm

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// OpenAIProvider implements the Provider interface for OpenAI models
type OpenAIProvider struct {
	client *openai.Client
	config Config
	schema *jsonschema.Definition
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	schema, err := jsonschema.GenerateSchemaForType(classification{})
	if err != nil {
		return nil, fmt.Errorf("generate response schema: %w", err)
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = newHTTPClient(config, 0)

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		schema: schema,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable lists models as a lightweight credentials check
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "OpenAI API check failed: %v\n", err)
		return false
	}
	return true
}

// Classify uses Chat Completions with a strict JSON schema response format
func (p *OpenAIProvider) Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResponse, error) {
	prompt := req.Prompt
	if prompt == "" {
		prompt = BuildPrompt(req)
	}

	model := resolveModel(req, p.config, openai.GPT4o)

	ctx, cancel := context.WithTimeout(ctx, requestTimeout(p.config, 120*time.Second))
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   resolveMaxTokens(req, p.config),
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "article_classification",
				Schema: p.schema,
				Strict: true,
			},
		},
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}
	if refusal := resp.Choices[0].Message.Refusal; refusal != "" {
		return nil, fmt.Errorf("OpenAI refused: %s", refusal)
	}

	associations, err := parseAssociations(resp.Choices[0].Message.Content, req.Article)
	if err != nil {
		return nil, err
	}

	return &ClassifyResponse{
		Associations: associations,
		Model:        resp.Model,
		TokensUsed:   resp.Usage.TotalTokens,
	}, nil
}
