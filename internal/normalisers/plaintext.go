package normalisers

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Normaliser = (*PlaintextNormaliser)(nil)

// PlaintextNormaliser handles plain text and is the fallback for any
// content that decodes as UTF-8.
type PlaintextNormaliser struct{}

// NewPlaintextNormaliser creates a plaintext normaliser.
func NewPlaintextNormaliser() *PlaintextNormaliser {
	return &PlaintextNormaliser{}
}

func (n *PlaintextNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) ([]*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if !utf8.Valid(raw.Content) {
		return nil, fmt.Errorf("%w: %s is not text", domain.ErrUnsupportedType, raw.MimeType)
	}

	content := normaliseLineEndings(string(raw.Content))
	content = strings.TrimPrefix(content, "\ufeff")
	if strings.TrimSpace(content) == "" {
		return nil, domain.ErrEmptyDocument
	}

	title := firstLine(content, 120)
	if title == "" {
		title = titleFromLocator(raw.Locator)
	}
	return []*domain.Document{newDocument(raw, title, strings.TrimSpace(content))}, nil
}

func (n *PlaintextNormaliser) SupportedTypes() []string {
	return []string{"text/plain", "text/csv", "*/*"}
}

func (n *PlaintextNormaliser) Priority() int {
	return 1 // Fallback
}

func normaliseLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
