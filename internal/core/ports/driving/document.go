package driving

import (
	"context"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
)

// DocumentReader turns source locators into parsed documents
type DocumentReader interface {
	// Read fetches and parses every locator in order and flattens the result.
	// The first failing locator aborts the remaining reads.
	Read(ctx context.Context, urls []string) ([]*domain.Document, error)
}

// Splitter cuts documents into chunks sized for embedding
type Splitter interface {
	// Split is deterministic for a given input and configuration.
	Split(docs []*domain.Document) ([]*domain.Chunk, error)
}
