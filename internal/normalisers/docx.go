package normalisers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Normaliser = (*DOCXNormaliser)(nil)

const mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// DOCXNormaliser extracts paragraph text from Word documents.
type DOCXNormaliser struct{}

// NewDOCXNormaliser creates a DOCX normaliser.
func NewDOCXNormaliser() *DOCXNormaliser {
	return &DOCXNormaliser{}
}

func (n *DOCXNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) ([]*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}

	body, err := readZipFile(reader, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("read docx body: %w", err)
	}
	content, err := extractWordText(body)
	if err != nil {
		return nil, fmt.Errorf("parse docx body: %w", err)
	}
	if content == "" {
		return nil, domain.ErrEmptyDocument
	}

	title := ""
	if core, err := readZipFile(reader, "docProps/core.xml"); err == nil {
		title = extractCoreTitle(core)
	}
	if title == "" {
		title = titleFromLocator(raw.Locator)
	}

	return []*domain.Document{newDocument(raw, title, content)}, nil
}

func (n *DOCXNormaliser) SupportedTypes() []string {
	return []string{mimeDOCX}
}

func (n *DOCXNormaliser) Priority() int {
	return 50
}

var errZipEntryMissing = errors.New("zip entry missing")

func readZipFile(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%w: %s", errZipEntryMissing, name)
}

// extractWordText streams word/document.xml, ending a line at every
// paragraph and table row and separating table cells with tabs.
func extractWordText(body []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	var b strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteString("\t")
			case "br", "cr":
				b.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p", "tr":
				b.WriteString("\n")
			case "tc":
				b.WriteString("\t")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return cleanText(b.String()), nil
}

func extractCoreTitle(core []byte) string {
	var props struct {
		Title string `xml:"title"`
	}
	if err := xml.Unmarshal(core, &props); err != nil {
		return ""
	}
	return strings.TrimSpace(props.Title)
}
