package driving

import (
	"context"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
)

// VectorStore embeds chunks and serves similarity search over them
type VectorStore interface {
	// Add embeds and stores chunks as one batch. Either all are stored or none.
	Add(ctx context.Context, chunks []*domain.Chunk) error

	// SimilaritySearch returns the chunks closest to query, best first
	SimilaritySearch(ctx context.Context, query string, opts domain.SearchOptions) ([]*domain.RankedChunk, error)

	// Count returns the number of stored chunks
	Count(ctx context.Context) (int, error)

	// HealthCheck verifies the underlying index is reachable
	HealthCheck(ctx context.Context) error
}
