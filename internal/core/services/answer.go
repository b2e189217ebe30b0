package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driving"
	"github.com/custodia-labs/finance-assist/internal/runtime"
)

// Ensure answerEngine implements AnswerEngine
var _ driving.AnswerEngine = (*answerEngine)(nil)

const (
	// DefaultMaxContextChars bounds the retrieved text placed in a prompt
	DefaultMaxContextChars = 12000

	// DefaultSystemPrompt frames every question
	DefaultSystemPrompt = "You are a financial assistant. Answer questions about the documents " +
		"the user has provided. Be precise with figures, dates and units."

	contextDelimiter = driven.ContextDelimiter
	noContextNotice  = "No context information is available for this question. " +
		"Say that the provided documents do not cover it, then give your best general answer."
)

// AnswerEngineConfig holds dependencies for the answer engine.
type AnswerEngineConfig struct {
	Store           driving.VectorStore
	Services        *runtime.Services
	SearchOptions   domain.SearchOptions
	MaxContextChars int
	SystemPrompt    string
	Completion      driven.CompletionOptions
	Logger          *slog.Logger
}

// answerEngine retrieves context for a question and asks the LLM
type answerEngine struct {
	store           driving.VectorStore
	services        *runtime.Services
	searchOptions   domain.SearchOptions
	maxContextChars int
	systemPrompt    string
	completion      driven.CompletionOptions
	logger          *slog.Logger
}

// NewAnswerEngine creates a new AnswerEngine
func NewAnswerEngine(cfg AnswerEngineConfig) driving.AnswerEngine {
	e := &answerEngine{
		store:           cfg.Store,
		services:        cfg.Services,
		searchOptions:   cfg.SearchOptions.Normalize(),
		maxContextChars: cfg.MaxContextChars,
		systemPrompt:    cfg.SystemPrompt,
		completion:      cfg.Completion,
		logger:          cfg.Logger,
	}
	if e.maxContextChars <= 0 {
		e.maxContextChars = DefaultMaxContextChars
	}
	if e.systemPrompt == "" {
		e.systemPrompt = DefaultSystemPrompt
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Answer runs retrieval, prompt augmentation and a single completion
func (e *answerEngine) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	start := time.Now()

	llm := e.services.LLMService()
	if llm == nil {
		return nil, domain.NewError(domain.KindLLM, "complete", domain.ErrServiceUnavailable)
	}

	results, err := e.store.SimilaritySearch(ctx, question, e.searchOptions)
	if err != nil {
		return nil, err
	}

	used := selectContext(results, e.maxContextChars)
	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: e.systemPrompt},
		{Role: driven.RoleUser, Content: buildUserPrompt(question, used)},
	}

	text, err := llm.Complete(ctx, messages, e.completion)
	if err != nil {
		return nil, domain.NewError(domain.KindLLM, "complete", err)
	}

	e.logger.Debug("question answered",
		"context_chunks", len(used),
		"retrieved", len(results),
		"model", llm.Model(),
		"duration", time.Since(start),
	)

	return &domain.Answer{
		Question: question,
		Text:     text,
		Context:  used,
		Model:    llm.Model(),
		Took:     time.Since(start),
	}, nil
}

// selectContext keeps results in rank order while their combined text fits
// within limit. A chunk that does not fit is skipped, later ones may still fit.
func selectContext(results []*domain.RankedChunk, limit int) []*domain.RankedChunk {
	var used []*domain.RankedChunk
	total := 0
	for _, r := range results {
		if r == nil || r.Chunk == nil {
			continue
		}
		n := len(r.Chunk.Content)
		if total+n > limit {
			continue
		}
		total += n
		used = append(used, r)
	}
	return used
}

// buildUserPrompt places the question ahead of the delimited context block
func buildUserPrompt(question string, used []*domain.RankedChunk) string {
	var b strings.Builder
	b.WriteString(question)
	b.WriteString("\n\n")

	if len(used) == 0 {
		b.WriteString(noContextNotice)
		return b.String()
	}

	b.WriteString("Context information is below.\n")
	b.WriteString(contextDelimiter)
	b.WriteString("\n")
	for i, r := range used {
		if i > 0 {
			b.WriteString("\n")
			b.WriteString(contextDelimiter)
			b.WriteString("\n")
		}
		b.WriteString(r.Chunk.Content)
	}
	b.WriteString("\n")
	b.WriteString(contextDelimiter)
	b.WriteString("\n\nGiven the context information and not prior knowledge, answer the question. ")
	b.WriteString("If the answer is not in the context, say that you cannot answer it from the provided documents.")
	return b.String()
}
