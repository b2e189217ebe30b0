package services

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/finance-assist/internal/postprocessors"
)

func testDocument(content string) *domain.Document {
	return &domain.Document{
		ID:        "doc-1",
		Source:    "https://bank.example/report.txt",
		Content:   content,
		Metadata:  map[string]string{domain.MetaSource: "https://bank.example/report.txt", domain.MetaPage: "2"},
		CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSplitter_ShortDocumentIsOneChunk(t *testing.T) {
	s := NewSplitter(postprocessors.DefaultPipeline())
	content := "Operating margin improved to 31% on lower funding costs."

	chunks, err := s.Split([]*domain.Document{testDocument(content)})

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	c := chunks[0]
	assert.Equal(t, content, c.Content)
	assert.Equal(t, "doc-1", c.DocumentID)
	assert.Equal(t, "https://bank.example/report.txt", c.Source)
	assert.Equal(t, 0, c.StartChar)
	assert.Equal(t, len(content), c.EndChar)
	assert.Equal(t, "0", c.Metadata[domain.MetaChunkIndex])
	assert.Equal(t, "2", c.Metadata[domain.MetaPage])
	assert.Empty(t, c.ID)
}

func TestSplitter_LongDocumentReconstructs(t *testing.T) {
	s := NewSplitter(postprocessors.NewPipelineFromConfig(postprocessors.Config{
		Chunk: postprocessors.TokenChunkConfig{ChunkSize: 12, MinChunkSizeChars: 20, MinChunkLengthToEmbed: 5},
	}))
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("Deposits grew by " + strconv.Itoa(i) + " percent in the period.\n  ")
	}
	doc := testDocument(b.String())

	chunks, err := s.Split([]*domain.Document{doc})

	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)

	parts := make([]string, len(chunks))
	for i, c := range chunks {
		assert.LessOrEqual(t, postprocessors.CountTokens(c.Content), 12)
		assert.Equal(t, strconv.Itoa(i), c.Metadata[domain.MetaChunkIndex])
		assert.Equal(t, i, c.Position)
		parts[i] = c.Content
	}
	joined := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	want := strings.Join(strings.Fields(doc.Content), " ")
	assert.Equal(t, want, joined)
}

func TestSplitter_OneTokenOverBudgetSplitsInTwo(t *testing.T) {
	s := NewSplitter(postprocessors.DefaultPipeline())
	doc := testDocument(strings.Repeat("word ", 800) + "x")

	chunks, err := s.Split([]*domain.Document{doc})

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	for _, c := range chunks {
		assert.LessOrEqual(t, postprocessors.CountTokens(c.Content), 800)
	}
	assert.Equal(t, "word x", chunks[1].Content)
	assert.Equal(t, len(doc.Content), chunks[1].EndChar)
}

func TestSplitter_MetadataIsCopied(t *testing.T) {
	s := NewSplitter(postprocessors.DefaultPipeline())
	doc := testDocument("Short text here.")

	chunks, err := s.Split([]*domain.Document{doc})
	require.NoError(t, err)

	chunks[0].Metadata["extra"] = "x"
	_, leaked := doc.Metadata["extra"]
	assert.False(t, leaked)
	_, hasIndex := doc.Metadata[domain.MetaChunkIndex]
	assert.False(t, hasIndex)
}

func TestSplitter_Deterministic(t *testing.T) {
	s := NewSplitter(postprocessors.NewPipelineFromConfig(postprocessors.Config{
		Chunk: postprocessors.TokenChunkConfig{ChunkSize: 9},
	}))
	docs := []*domain.Document{testDocument(strings.Repeat("Net income rose. Costs fell! ", 15))}

	first, err := s.Split(docs)
	require.NoError(t, err)
	second, err := s.Split(docs)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSplitter_MultipleDocuments(t *testing.T) {
	s := NewSplitter(postprocessors.DefaultPipeline())
	a := testDocument("First report.")
	b := testDocument("Second report.")
	b.ID = "doc-2"

	chunks, err := s.Split([]*domain.Document{a, b, testDocument("   ")})

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "doc-1", chunks[0].DocumentID)
	assert.Equal(t, "doc-2", chunks[1].DocumentID)
	assert.Equal(t, "0", chunks[1].Metadata[domain.MetaChunkIndex])
}

func TestSplitter_NilDocument(t *testing.T) {
	s := NewSplitter(mocks.NewMockPostProcessorPipeline())

	_, err := s.Split([]*domain.Document{nil})

	require.Error(t, err)
	assert.Equal(t, domain.KindParse, domain.KindOf(err))
}

func TestSplitter_NoDocuments(t *testing.T) {
	s := NewSplitter(mocks.NewMockPostProcessorPipeline())

	chunks, err := s.Split(nil)

	require.NoError(t, err)
	assert.Empty(t, chunks)
}
