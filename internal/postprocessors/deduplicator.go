package postprocessors

import (
	"strings"

	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
)

// DeduplicatorConfig configures the deduplicator.
type DeduplicatorConfig struct {
	// MinDuplicateLength is the minimum chunk length to check for duplicates
	MinDuplicateLength int
}

// DefaultDeduplicatorConfig returns sensible defaults.
func DefaultDeduplicatorConfig() DeduplicatorConfig {
	return DeduplicatorConfig{
		MinDuplicateLength: 50,
	}
}

// Deduplicator drops chunks whose case-folded text already appeared in the
// same document. Boilerplate repeated on every page of a report is the usual
// target.
type Deduplicator struct {
	config DeduplicatorConfig
}

// Verify interface compliance
var _ driven.PostProcessor = (*Deduplicator)(nil)

// NewDeduplicator creates a new deduplicator with the given config.
func NewDeduplicator(config DeduplicatorConfig) *Deduplicator {
	return &Deduplicator{config: config}
}

// Process removes duplicate chunks and renumbers the survivors.
func (d *Deduplicator) Process(chunks []driven.Chunk) []driven.Chunk {
	if len(chunks) <= 1 {
		return chunks
	}

	seen := make(map[string]struct{}, len(chunks))
	result := make([]driven.Chunk, 0, len(chunks))

	for _, chunk := range chunks {
		if len(chunk.Content) >= d.config.MinDuplicateLength {
			key := strings.ToLower(strings.Join(strings.Fields(chunk.Content), " "))
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		chunk.Position = len(result)
		result = append(result, chunk)
	}

	return result
}

// Name returns the processor name.
func (d *Deduplicator) Name() string {
	return "deduplicator"
}

// Order returns 10 - deduplicator runs last.
func (d *Deduplicator) Order() int {
	return 10
}
