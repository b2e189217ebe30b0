package domain

import (
	"maps"
	"time"
)

// Well-known metadata keys
const (
	MetaSource     = "source"
	MetaMimeType   = "mime_type"
	MetaTitle      = "title"
	MetaPage       = "page"
	MetaSheet      = "sheet"
	MetaChunkIndex = "chunk_index"
)

// RawDocument is the unparsed payload fetched from a locator
type RawDocument struct {
	Locator  string            `json:"locator"`
	MimeType string            `json:"mime_type"`
	Content  []byte            `json:"-"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Document is a unit of ingested text. One locator may produce several
// documents (pages of a PDF, sheets of a workbook).
type Document struct {
	ID        string            `json:"id"`
	Source    string            `json:"source"` // Locator the document was read from
	Title     string            `json:"title"`
	MimeType  string            `json:"mime_type"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
}

// Chunk is a bounded slice of a document's text. Once stored, it is owned
// by the vector index.
type Chunk struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"document_id"`
	Source     string            `json:"source"`
	Content    string            `json:"content"`
	Embedding  []float32         `json:"embedding,omitempty"`
	Position   int               `json:"position"` // Chunk position within document
	StartChar  int               `json:"start_char"`
	EndChar    int               `json:"end_char"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// CopyMetadata returns a shallow copy of m, never nil.
func CopyMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	maps.Copy(out, m)
	return out
}
