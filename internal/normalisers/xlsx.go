package normalisers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Normaliser = (*XLSXNormaliser)(nil)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// XLSXNormaliser turns each worksheet into its own document. Rows become
// lines and cells are separated by " | ".
type XLSXNormaliser struct{}

// NewXLSXNormaliser creates a workbook normaliser.
func NewXLSXNormaliser() *XLSXNormaliser {
	return &XLSXNormaliser{}
}

func (n *XLSXNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) ([]*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	base := titleFromLocator(raw.Locator)
	var docs []*domain.Document

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}

		content := sheetText(rows)
		if content == "" {
			continue
		}

		doc := newDocument(raw, base+" - "+sheet, content)
		doc.Metadata[domain.MetaSheet] = sheet
		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		return nil, domain.ErrEmptyDocument
	}
	return docs, nil
}

func (n *XLSXNormaliser) SupportedTypes() []string {
	return []string{mimeXLSX}
}

func (n *XLSXNormaliser) Priority() int {
	return 60
}

func sheetText(rows [][]string) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			cells = append(cells, strings.TrimSpace(cell))
		}
		for len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		if len(cells) == 0 {
			continue
		}
		lines = append(lines, strings.Join(cells, " | "))
	}
	return strings.Join(lines, "\n")
}
