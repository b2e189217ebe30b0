package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
)

func testChunk(id string, embedding ...float32) *domain.Chunk {
	return &domain.Chunk{
		ID:        id,
		Source:    "https://bank.example/" + id,
		Content:   "content " + id,
		Embedding: embedding,
		Metadata:  map[string]string{domain.MetaSheet: "Balance"},
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestVectorIndex_IndexAndSearch(t *testing.T) {
	_, client := setupTestRedis(t)
	idx := NewVectorIndex(client)
	ctx := context.Background()

	require.NoError(t, idx.Index(ctx, []*domain.Chunk{testChunk("a", 1, 0), testChunk("b", 0, 1)}))
	require.NoError(t, idx.Index(ctx, []*domain.Chunk{testChunk("c", 1, 1)}))

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	results, err := idx.Search(ctx, []float32{1, 0}, domain.SearchOptions{TopK: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Chunk.ID)
	assert.Equal(t, "c", results[1].Chunk.ID)
	assert.Equal(t, "Balance", results[0].Chunk.Metadata[domain.MetaSheet])
	assert.Equal(t, []float32{1, 0}, results[0].Chunk.Embedding)
	assert.True(t, results[0].Chunk.CreatedAt.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestVectorIndex_SharedAcrossInstances(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, NewVectorIndex(client).Index(ctx, []*domain.Chunk{testChunk("a", 1, 0)}))

	n, err := NewVectorIndex(client).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestVectorIndex_DimensionMismatch(t *testing.T) {
	_, client := setupTestRedis(t)
	idx := NewVectorIndex(client)
	ctx := context.Background()

	require.NoError(t, idx.Index(ctx, []*domain.Chunk{testChunk("a", 1, 0)}))

	err := idx.Index(ctx, []*domain.Chunk{testChunk("b", 1, 0, 0)})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	err = idx.Index(ctx, []*domain.Chunk{testChunk("c", 1, 0), testChunk("d", 1, 0, 0)})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = idx.Search(ctx, []float32{1}, domain.SearchOptions{})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestVectorIndex_MissingEmbedding(t *testing.T) {
	_, client := setupTestRedis(t)

	err := NewVectorIndex(client).Index(context.Background(), []*domain.Chunk{testChunk("a")})
	assert.Error(t, err)
}

func TestVectorIndex_Health(t *testing.T) {
	mr, client := setupTestRedis(t)
	idx := NewVectorIndex(client)

	assert.NoError(t, idx.HealthCheck(context.Background()))
	mr.Close()
	assert.Error(t, idx.HealthCheck(context.Background()))
}
