package normalisers

import (
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
)

// newDocument builds a document from raw content, stamping the source
// locator, MIME type and title into its metadata.
func newDocument(raw *domain.RawDocument, title, content string) *domain.Document {
	meta := domain.CopyMetadata(raw.Metadata)
	meta[domain.MetaSource] = raw.Locator
	if raw.MimeType != "" {
		meta[domain.MetaMimeType] = raw.MimeType
	}
	if title != "" {
		meta[domain.MetaTitle] = title
	}

	return &domain.Document{
		ID:        uuid.New().String(),
		Source:    raw.Locator,
		Title:     title,
		MimeType:  raw.MimeType,
		Content:   content,
		Metadata:  meta,
		CreatedAt: time.Now(),
	}
}

// titleFromLocator derives a readable title from the last path segment,
// e.g. "https://x/reports/q3_results.pdf" becomes "q3 results".
func titleFromLocator(locator string) string {
	p := locator
	if u, err := url.Parse(locator); err == nil && u.Path != "" {
		p = u.Path
	}
	name := path.Base(strings.TrimRight(p, "/"))
	if name == "." || name == "/" {
		if u, err := url.Parse(locator); err == nil && u.Host != "" {
			return u.Host
		}
		return locator
	}
	name = strings.TrimSuffix(name, path.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
}

// firstLine returns the first non-empty line shorter than maxLen.
func firstLine(content string, maxLen int) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && len(line) < maxLen {
			return line
		}
	}
	return ""
}
