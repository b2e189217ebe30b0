package normalisers

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Normaliser = (*HTMLNormaliser)(nil)

var (
	skipElements = map[string]bool{
		"script": true, "style": true, "noscript": true, "svg": true,
		"iframe": true, "template": true, "head": true, "nav": true,
	}
	blockElements = map[string]bool{
		"p": true, "div": true, "section": true, "article": true, "main": true,
		"header": true, "footer": true, "aside": true, "blockquote": true, "pre": true,
		"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
		"ul": true, "ol": true, "li": true, "table": true, "tr": true, "hr": true,
		"dl": true, "dt": true, "dd": true, "figure": true, "figcaption": true,
	}
	inlineSpace = regexp.MustCompile(`[ \t\x{00A0}]+`)
)

// HTMLNormaliser extracts readable text from HTML. Table cells are tab
// separated so financial tables keep their columns.
type HTMLNormaliser struct{}

// NewHTMLNormaliser creates an HTML normaliser.
func NewHTMLNormaliser() *HTMLNormaliser {
	return &HTMLNormaliser{}
}

func (n *HTMLNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) ([]*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		title = titleFromLocator(raw.Locator)
	}

	root := doc.Find("main, article").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}
	if root.Length() == 0 {
		root = doc.Selection
	}

	var b strings.Builder
	writeText(&b, root)
	content := cleanText(b.String())
	if content == "" {
		return nil, domain.ErrEmptyDocument
	}

	return []*domain.Document{newDocument(raw, title, content)}, nil
}

func (n *HTMLNormaliser) SupportedTypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

func (n *HTMLNormaliser) Priority() int {
	return 50
}

// writeText walks the node tree, emitting text with line breaks around
// block elements.
func writeText(b *strings.Builder, s *goquery.Selection) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		switch {
		case name == "#text":
			b.WriteString(c.Text())
		case name == "#comment" || skipElements[name]:
		case name == "br":
			b.WriteString("\n")
		case name == "td" || name == "th":
			writeText(b, c)
			b.WriteString("\t")
		case blockElements[name]:
			b.WriteString("\n")
			writeText(b, c)
			b.WriteString("\n")
		default:
			writeText(b, c)
		}
	})
}

// cleanText collapses inline whitespace and drops blank lines.
func cleanText(s string) string {
	lines := strings.Split(normaliseLineEndings(s), "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(inlineSpace.ReplaceAllString(line, " "))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
