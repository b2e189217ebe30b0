package ai

import (
	"fmt"
	"time"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
)

// Ensure Factory implements AIServiceFactory
var _ driven.AIServiceFactory = (*Factory)(nil)

// Factory creates AI services based on configuration.
// HTTP-backed services share one rate limiter.
type Factory struct {
	limiter    *RateLimiter
	llmTimeout time.Duration
}

// NewFactory creates a new AI service factory
func NewFactory(limiter *RateLimiter, llmTimeout time.Duration) *Factory {
	return &Factory{limiter: limiter, llmTimeout: llmTimeout}
}

// CreateEmbeddingService creates an embedding service from settings
func (f *Factory) CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	cfg := EmbeddingConfig{
		APIKey:     settings.APIKey,
		Model:      settings.Model,
		BaseURL:    settings.BaseURL,
		Dimensions: settings.Dimensions,
		Limiter:    f.limiter,
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		svc, err := NewOpenAIEmbedding(cfg)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case domain.AIProviderOllama:
		svc, err := NewOllamaEmbedding(cfg)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case domain.AIProviderLocal:
		return NewHashingEmbedding(settings.Dimensions), nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}

// CreateLLMService creates an LLM service from settings
func (f *Factory) CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	cfg := LLMConfig{
		APIKey:  settings.APIKey,
		Model:   settings.Model,
		BaseURL: settings.BaseURL,
		Timeout: f.llmTimeout,
		Limiter: f.limiter,
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		svc, err := NewOpenAILLM(cfg)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case domain.AIProviderOllama:
		svc, err := NewOllamaLLM(cfg)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case domain.AIProviderExtractive:
		return NewExtractiveLLM(0), nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}
