package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driving"
)

// Ensure assistService implements AssistService
var _ driving.AssistService = (*assistService)(nil)

// AssistServiceConfig holds dependencies for the assist service.
type AssistServiceConfig struct {
	Reader   driving.DocumentReader
	Splitter driving.Splitter
	Store    driving.VectorStore
	Answers  driving.AnswerEngine
	Logger   *slog.Logger
}

// assistService wires ingestion (read, split, store) and answering
type assistService struct {
	reader   driving.DocumentReader
	splitter driving.Splitter
	store    driving.VectorStore
	answers  driving.AnswerEngine
	logger   *slog.Logger
}

// NewAssistService creates a new AssistService
func NewAssistService(cfg AssistServiceConfig) driving.AssistService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &assistService{
		reader:   cfg.Reader,
		splitter: cfg.Splitter,
		store:    cfg.Store,
		answers:  cfg.Answers,
		logger:   logger,
	}
}

// Ingest reads every URL, splits the documents and stores all chunks in a
// single Add. A failure anywhere leaves the store untouched.
func (s *assistService) Ingest(ctx context.Context, urls []string) error {
	if urls == nil {
		return domain.NewError(domain.KindInvalidInput, "ingest", domain.ErrInvalidInput)
	}
	if len(urls) == 0 {
		return nil
	}
	start := time.Now()

	docs, err := s.reader.Read(ctx, urls)
	if err != nil {
		return err
	}

	chunks, err := s.splitter.Split(docs)
	if err != nil {
		return err
	}

	if err := s.store.Add(ctx, chunks); err != nil {
		return err
	}

	s.logger.Info("ingest completed",
		"urls", len(urls),
		"documents", len(docs),
		"chunks", len(chunks),
		"duration", time.Since(start),
	)
	return nil
}

// Retrieve returns the stored chunks most similar to keyword
func (s *assistService) Retrieve(ctx context.Context, keyword string, opts domain.SearchOptions) ([]*domain.RankedChunk, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, domain.NewError(domain.KindInvalidInput, "retrieve", domain.ErrInvalidInput)
	}
	return s.store.SimilaritySearch(ctx, keyword, opts)
}

// GetAnswer returns the answer text for question
func (s *assistService) GetAnswer(ctx context.Context, question string) (string, error) {
	answer, err := s.answers.Answer(ctx, question)
	if err != nil {
		return "", err
	}
	return answer.Text, nil
}
