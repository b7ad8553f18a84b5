package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"
)

const ollamaDefaultBaseURL = "http://localhost:11434"

// OllamaProvider talks to a local Ollama server through /api/chat
type OllamaProvider struct {
	baseURL    string
	httpClient *http.Client
	config     Config
	format     json.RawMessage
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ollamaChatRequest carries a JSON schema in Format; Ollama constrains the
// reply to it.
type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   json.RawMessage `json:"format,omitempty"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`

	PromptEvalCount int `json:"prompt_eval_count,omitempty"`
	EvalCount       int `json:"eval_count,omitempty"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	schema, err := jsonschema.GenerateSchemaForType(classification{})
	if err != nil {
		return nil, fmt.Errorf("generate response schema: %w", err)
	}
	format, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal response schema: %w", err)
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = ollamaDefaultBaseURL
	}

	return &OllamaProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: newHTTPClient(config, 300*time.Second),
		config:     config,
		format:     format,
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable reports whether the server lists its local models
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Ollama not reachable at %s: %v\n", p.baseURL, err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "⚠️  Ollama at %s answered HTTP %d\n", p.baseURL, resp.StatusCode)
		return false
	}
	return true
}

// Classify sends the article as one chat turn and parses the reply
func (p *OllamaProvider) Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResponse, error) {
	model := resolveModel(req, p.config, "")
	if model == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., qwen2.5:7b, llama3.1:8b)")
	}

	prompt := req.Prompt
	if prompt == "" {
		prompt = BuildPrompt(req)
	}

	resp, err := p.chat(ctx, ollamaChatRequest{
		Model: model,
		Messages: []ollamaMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: prompt},
		},
		Format:  p.format,
		Options: ollamaOptions{NumPredict: resolveMaxTokens(req, p.config)},
	})
	if err != nil {
		return nil, fmt.Errorf("ollama API error: %w", err)
	}

	associations, err := parseAssociations(resp.Message.Content, req.Article)
	if err != nil {
		return nil, err
	}

	tokens := resp.PromptEvalCount + resp.EvalCount
	if tokens == 0 {
		// rough estimate, 4 bytes per token
		tokens = (len(prompt) + len(resp.Message.Content)) / 4
	}

	return &ClassifyResponse{
		Associations: associations,
		Model:        resp.Model,
		TokensUsed:   tokens,
	}, nil
}

func (p *OllamaProvider) chat(ctx context.Context, chatReq ollamaChatRequest) (*ollamaChatResponse, error) {
	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr ollamaError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("%s (HTTP %d)", apiErr.Error, httpResp.StatusCode)
		}
		return nil, fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var resp ollamaChatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &resp, nil
}
