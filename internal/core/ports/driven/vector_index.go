package driven

import (
	"context"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
)

// VectorIndex stores embedded chunks and answers nearest-neighbour queries.
// Implementations: memory, sqlite, postgres, redis.
type VectorIndex interface {
	// Index stores a batch of chunks that already carry embeddings.
	// Either every chunk is stored or none is.
	Index(ctx context.Context, chunks []*domain.Chunk) error

	// Search returns up to opts.TopK chunks with cosine similarity >= opts.Threshold,
	// best first.
	Search(ctx context.Context, embedding []float32, opts domain.SearchOptions) ([]*domain.RankedChunk, error)

	// Count returns the number of stored chunks
	Count(ctx context.Context) (int, error)

	// HealthCheck verifies the backend is reachable
	HealthCheck(ctx context.Context) error
}
