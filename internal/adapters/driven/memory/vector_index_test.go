package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
)

func chunk(id string, embedding ...float32) *domain.Chunk {
	return &domain.Chunk{ID: id, Content: "text " + id, Embedding: embedding, Metadata: map[string]string{"k": id}}
}

func TestVectorIndex_IndexAndSearch(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()

	require.NoError(t, idx.Index(ctx, []*domain.Chunk{
		chunk("a", 1, 0),
		chunk("b", 0, 1),
		chunk("c", 1, 1),
	}))

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	results, err := idx.Search(ctx, []float32{1, 0}, domain.SearchOptions{TopK: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Chunk.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, "c", results[1].Chunk.ID)
}

func TestVectorIndex_Threshold(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, []*domain.Chunk{chunk("a", 1, 0), chunk("b", 0, 1)}))

	results, err := idx.Search(ctx, []float32{1, 0}, domain.SearchOptions{TopK: 10, Threshold: 0.5})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Chunk.ID)
}

func TestVectorIndex_TiesKeepInsertionOrder(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, []*domain.Chunk{chunk("first", 1, 1)}))
	require.NoError(t, idx.Index(ctx, []*domain.Chunk{chunk("second", 1, 1)}))

	results, err := idx.Search(ctx, []float32{1, 1}, domain.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Chunk.ID)
	assert.Equal(t, "second", results[1].Chunk.ID)
}

func TestVectorIndex_RejectsWholeBatch(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, []*domain.Chunk{chunk("a", 1, 0)}))

	err := idx.Index(ctx, []*domain.Chunk{chunk("b", 0, 1), chunk("c", 1, 0, 0)})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	err = idx.Index(ctx, []*domain.Chunk{chunk("d")})
	assert.Error(t, err)

	n, _ := idx.Count(ctx)
	assert.Equal(t, 1, n)

	_, err = idx.Search(ctx, []float32{1, 0, 0}, domain.SearchOptions{})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestVectorIndex_CopiesInput(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()
	c := chunk("a", 1, 0)
	require.NoError(t, idx.Index(ctx, []*domain.Chunk{c}))

	c.Embedding[0] = 0
	c.Metadata["k"] = "changed"

	results, err := idx.Search(ctx, []float32{1, 0}, domain.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Chunk.Metadata["k"])
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestVectorIndex_EmptySearch(t *testing.T) {
	results, err := NewVectorIndex().Search(context.Background(), []float32{1}, domain.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestVectorIndex_ConcurrentAccess(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = idx.Index(ctx, []*domain.Chunk{chunk("x", 1, 0)})
		}()
		go func() {
			defer wg.Done()
			_, _ = idx.Search(ctx, []float32{1, 0}, domain.SearchOptions{})
		}()
	}
	wg.Wait()

	n, _ := idx.Count(ctx)
	assert.Equal(t, 20, n)
}
