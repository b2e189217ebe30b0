package normalisers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Normaliser = (*PDFNormaliser)(nil)

// DefaultPDFTool is the poppler text extractor.
const DefaultPDFTool = "pdftotext"

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found (install poppler-utils)")

// PDFNormaliser extracts text with pdftotext and emits one document per
// page, tagged with its 1-based page number.
type PDFNormaliser struct {
	runner driven.CommandRunner
	tool   string
}

// NewPDFNormaliser creates a PDF normaliser. A nil runner uses ExecRunner.
func NewPDFNormaliser(runner driven.CommandRunner) *PDFNormaliser {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &PDFNormaliser{runner: runner, tool: DefaultPDFTool}
}

// WithTool overrides the pdftotext binary path.
func (n *PDFNormaliser) WithTool(path string) *PDFNormaliser {
	if path != "" {
		n.tool = path
	}
	return n
}

// CheckAvailable reports whether the pdftotext binary can be found.
func CheckAvailable(tool string) error {
	if tool == "" {
		tool = DefaultPDFTool
	}
	if _, err := exec.LookPath(tool); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

func (n *PDFNormaliser) Normalise(ctx context.Context, raw *domain.RawDocument) ([]*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	tmp, err := os.CreateTemp("", "finance-assist-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw.Content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	out, err := n.runner.Run(ctx, n.tool, "-enc", "UTF-8", "-layout", tmp.Name(), "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}

	pages := splitPages(string(out))
	base := ""
	for _, page := range pages {
		if base = firstLine(page, 200); base != "" {
			break
		}
	}
	if base == "" {
		base = titleFromLocator(raw.Locator)
	}

	var docs []*domain.Document
	for i, page := range pages {
		content := cleanText(page)
		if content == "" {
			continue
		}
		doc := newDocument(raw, base, content)
		doc.Metadata[domain.MetaPage] = strconv.Itoa(i + 1)
		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		return nil, domain.ErrEmptyDocument
	}
	return docs, nil
}

func (n *PDFNormaliser) SupportedTypes() []string {
	return []string{"application/pdf"}
}

func (n *PDFNormaliser) Priority() int {
	return 60
}

// splitPages splits pdftotext output on form feeds. The trailing form feed
// after the last page yields no extra page.
func splitPages(out string) []string {
	pages := strings.Split(normaliseLineEndings(out), "\f")
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}
