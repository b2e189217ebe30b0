package driven

import (
	"context"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
)

// Normaliser turns fetched bytes of one format into plain text documents.
type Normaliser interface {
	// Normalise returns at least one document. PDFs fan out per page and
	// workbooks per sheet.
	Normalise(ctx context.Context, raw *domain.RawDocument) ([]*domain.Document, error)

	// SupportedTypes lists MIME types, optionally with a "type/*" wildcard.
	SupportedTypes() []string

	// Priority breaks ties between matching normalisers. Format readers use
	// 50-89, generic text 10-49, raw fallback 1-9.
	Priority() int
}

// NormaliserRegistry picks the normaliser for a MIME type.
type NormaliserRegistry interface {
	// Get returns the highest priority match, or nil.
	Get(mimeType string) Normaliser

	// GetAll returns every match, highest priority first.
	GetAll(mimeType string) []Normaliser

	Register(normaliser Normaliser)

	// List returns the registered MIME types.
	List() []string
}

// PostProcessor is one stage of the splitting pipeline. The first stage
// receives the whole document text as a single chunk.
type PostProcessor interface {
	Process(chunks []Chunk) []Chunk
	Name() string
	// Order sorts stages, lowest first.
	Order() int
}

// Chunk is a span of document text moving through the pipeline.
type Chunk struct {
	Content  string
	Position int

	// StartOffset and EndOffset are byte offsets into the document text.
	StartOffset int
	EndOffset   int

	Metadata map[string]string
}

// PostProcessorPipeline runs post-processors in order over one document.
type PostProcessorPipeline interface {
	Process(content string) []Chunk
	Add(processor PostProcessor)
	// List returns stage names in run order.
	List() []string
}
