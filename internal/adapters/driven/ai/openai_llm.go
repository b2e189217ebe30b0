package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
)

// Ensure OpenAILLM implements LLMService
var _ driven.LLMService = (*OpenAILLM)(nil)

const (
	DefaultOpenAILLMModel = "gpt-4o-mini"
	DefaultOllamaLLMModel = "llama3.2"
	DefaultLLMTimeout     = 120 * time.Second
)

// LLMConfig configures an OpenAI-compatible chat completion endpoint.
type LLMConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	Limiter    *RateLimiter
	HTTPClient *http.Client
}

// OpenAILLM implements LLMService against the /chat/completions API.
type OpenAILLM struct {
	apiKey  string
	model   string
	baseURL string
	limiter *RateLimiter
	client  *http.Client
}

// NewOpenAILLM creates a new OpenAI chat completion service
func NewOpenAILLM(cfg LLMConfig) (*OpenAILLM, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAILLMModel
	}
	return newLLM(cfg), nil
}

// NewOllamaLLM creates a chat completion service for a local Ollama server
func NewOllamaLLM(cfg LLMConfig) (*OpenAILLM, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaLLMModel
	}
	return newLLM(cfg), nil
}

func newLLM(cfg LLMConfig) *OpenAILLM {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultLLMTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &OpenAILLM{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		limiter: cfg.Limiter,
		client:  client,
	}
}

type chatCompletionRequest struct {
	Model       string               `json:"model"`
	Messages    []driven.ChatMessage `json:"messages"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
	Temperature float64              `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

// Complete returns the assistant reply to messages
func (l *OpenAILLM) Complete(ctx context.Context, messages []driven.ChatMessage, opts driven.CompletionOptions) (string, error) {
	reqBody := chatCompletionRequest{
		Model:       l.model,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	var resp chatCompletionResponse
	if err := postJSON(ctx, l.client, l.limiter, l.baseURL+"/chat/completions", l.apiKey, reqBody, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("chat API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat API returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Model returns the model name being used
func (l *OpenAILLM) Model() string {
	return l.model
}

// Ping lists the available models to verify connectivity and credentials
func (l *OpenAILLM) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if l.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+l.apiKey)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases idle connections
func (l *OpenAILLM) Close() error {
	l.client.CloseIdleConnections()
	return nil
}
