package normalisers

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Normaliser = (*MarkdownNormaliser)(nil)

var (
	markdownHeading = regexp.MustCompile(`(?m)^#{1,6}\s+(.+?)\s*#*\s*$`)
	markdownImage   = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	markdownLink    = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	excessBlank     = regexp.MustCompile(`\n{3,}`)
)

// MarkdownNormaliser keeps Markdown text, unwrapping links and images to
// their labels.
type MarkdownNormaliser struct{}

// NewMarkdownNormaliser creates a Markdown normaliser.
func NewMarkdownNormaliser() *MarkdownNormaliser {
	return &MarkdownNormaliser{}
}

func (n *MarkdownNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) ([]*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := normaliseLineEndings(string(raw.Content))
	content = markdownImage.ReplaceAllString(content, "$1")
	content = markdownLink.ReplaceAllString(content, "$1")
	content = excessBlank.ReplaceAllString(content, "\n\n")
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ErrEmptyDocument
	}

	title := titleFromLocator(raw.Locator)
	if m := markdownHeading.FindStringSubmatch(content); m != nil {
		title = m[1]
	}
	return []*domain.Document{newDocument(raw, title, content)}, nil
}

func (n *MarkdownNormaliser) SupportedTypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

func (n *MarkdownNormaliser) Priority() int {
	return 50
}
