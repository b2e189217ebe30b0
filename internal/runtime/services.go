package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
)

// Services holds the AI services shared by ingestion and answering.
// Either may be nil until configured; swapping one closes its predecessor.
// Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	// Config tracks capability flags
	config *domain.RuntimeConfig

	embeddingService driven.EmbeddingService
	llmService       driven.LLMService
}

// NewServices creates a new Services registry
func NewServices(config *domain.RuntimeConfig) *Services {
	return &Services{
		config: config,
	}
}

// Config returns the runtime configuration
func (s *Services) Config() *domain.RuntimeConfig {
	return s.config
}

// EmbeddingService returns the current embedding service (may be nil)
func (s *Services) EmbeddingService() driven.EmbeddingService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embeddingService
}

// LLMService returns the current LLM service (may be nil)
func (s *Services) LLMService() driven.LLMService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.llmService
}

// SetEmbeddingService replaces the embedding service and updates the
// capability flags.
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
	}

	s.embeddingService = svc
	s.config.SetEmbeddingAvailable(svc != nil)
}

// SetLLMService replaces the LLM service and updates the capability flags.
func (s *Services) SetLLMService(svc driven.LLMService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.llmService != nil {
		_ = s.llmService.Close()
	}

	s.llmService = svc
	s.config.SetLLMAvailable(svc != nil)
}

// Close shuts down all services
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.embeddingService != nil {
		errs = append(errs, s.embeddingService.Close())
		s.embeddingService = nil
	}
	if s.llmService != nil {
		errs = append(errs, s.llmService.Close())
		s.llmService = nil
	}

	s.config.SetEmbeddingAvailable(false)
	s.config.SetLLMAvailable(false)

	return errors.Join(errs...)
}

// ValidateAndSetEmbedding health checks svc before installing it. A failing
// service is closed and the current one kept.
func (s *Services) ValidateAndSetEmbedding(ctx context.Context, svc driven.EmbeddingService) error {
	if svc == nil {
		s.SetEmbeddingService(nil)
		return nil
	}
	if err := svc.HealthCheck(ctx); err != nil {
		_ = svc.Close()
		return err
	}
	s.SetEmbeddingService(svc)
	return nil
}

// ValidateAndSetLLM pings svc before installing it.
func (s *Services) ValidateAndSetLLM(ctx context.Context, svc driven.LLMService) error {
	if svc == nil {
		s.SetLLMService(nil)
		return nil
	}
	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return err
	}
	s.SetLLMService(svc)
	return nil
}

// Install validates and installs both services at startup. A service that
// fails its check stays unset, so ingesting or answering reports
// ErrServiceUnavailable until it is replaced. Every failure is returned.
func (s *Services) Install(ctx context.Context, embedding driven.EmbeddingService, llm driven.LLMService) error {
	var errs []error
	if err := s.ValidateAndSetEmbedding(ctx, embedding); err != nil {
		errs = append(errs, fmt.Errorf("embedding %s: %w", embedding.Model(), err))
	}
	if err := s.ValidateAndSetLLM(ctx, llm); err != nil {
		errs = append(errs, fmt.Errorf("llm %s: %w", llm.Model(), err))
	}
	return errors.Join(errs...)
}

// Models reports the configured model names, empty when unset.
func (s *Services) Models() (embeddingModel, llmModel string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.embeddingService != nil {
		embeddingModel = s.embeddingService.Model()
	}
	if s.llmService != nil {
		llmModel = s.llmService.Model()
	}
	return embeddingModel, llmModel
}
