package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
)

func newTestIndex(t *testing.T) *VectorIndex {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	idx := NewVectorIndex(db)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func chunk(id string, embedding ...float32) *domain.Chunk {
	return &domain.Chunk{
		ID:         id,
		DocumentID: "doc-1",
		Source:     "https://bank.example/report.pdf",
		Content:    "content " + id,
		Embedding:  embedding,
		Position:   1,
		StartChar:  10,
		EndChar:    20,
		Metadata:   map[string]string{domain.MetaPage: "3"},
		CreatedAt:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestVectorIndex_IndexAndSearch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Index(ctx, []*domain.Chunk{chunk("a", 1, 0), chunk("b", 0, 1), chunk("c", 1, 1)}))

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	results, err := idx.Search(ctx, []float32{1, 0}, domain.SearchOptions{TopK: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Chunk.ID)
	assert.Equal(t, "c", results[1].Chunk.ID)

	got := results[0].Chunk
	assert.Equal(t, "doc-1", got.DocumentID)
	assert.Equal(t, "https://bank.example/report.pdf", got.Source)
	assert.Equal(t, "content a", got.Content)
	assert.Equal(t, []float32{1, 0}, got.Embedding)
	assert.Equal(t, 10, got.StartChar)
	assert.Equal(t, 20, got.EndChar)
	assert.Equal(t, "3", got.Metadata[domain.MetaPage])
	assert.True(t, got.CreatedAt.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestVectorIndex_TiesKeepInsertionOrder(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, []*domain.Chunk{chunk("first", 2, 2)}))
	require.NoError(t, idx.Index(ctx, []*domain.Chunk{chunk("second", 2, 2)}))

	results, err := idx.Search(ctx, []float32{1, 1}, domain.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Chunk.ID)
}

func TestVectorIndex_BatchIsAtomic(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, []*domain.Chunk{chunk("a", 1, 0)}))

	// Duplicate ID fails the insert after "b" would have been written
	err := idx.Index(ctx, []*domain.Chunk{chunk("b", 0, 1), chunk("a", 1, 0)})
	assert.Error(t, err)

	err = idx.Index(ctx, []*domain.Chunk{chunk("c", 0, 1), chunk("d", 1, 0, 0)})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestVectorIndex_QueryDimensionMismatch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, []*domain.Chunk{chunk("a", 1, 0)}))

	_, err := idx.Search(ctx, []float32{1, 0, 0}, domain.SearchOptions{})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestVectorIndex_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.db")
	ctx := context.Background()

	db, err := Open(path)
	require.NoError(t, err)
	idx := NewVectorIndex(db)
	require.NoError(t, idx.Index(ctx, []*domain.Chunk{chunk("a", 1, 0)}))
	require.NoError(t, idx.Close())

	db, err = Open(path)
	require.NoError(t, err)
	idx = NewVectorIndex(db)
	defer idx.Close()

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, idx.HealthCheck(ctx))
}
