package driving

import (
	"context"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
)

// AnswerEngine answers a question from retrieved context
type AnswerEngine interface {
	Answer(ctx context.Context, question string) (*domain.Answer, error)
}

// AssistService orchestrates ingestion and question answering
type AssistService interface {
	// Ingest reads, splits and stores every URL. An empty list is a no-op.
	Ingest(ctx context.Context, urls []string) error

	// Retrieve returns the stored chunks most similar to keyword.
	// Zero-valued options fall back to the defaults.
	Retrieve(ctx context.Context, keyword string, opts domain.SearchOptions) ([]*domain.RankedChunk, error)

	// GetAnswer returns the answer text for question
	GetAnswer(ctx context.Context, question string) (string, error)
}
