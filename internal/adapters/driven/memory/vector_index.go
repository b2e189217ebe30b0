// Package memory provides a process-local vector index.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
	"github.com/custodia-labs/finance-assist/internal/similarity"
)

// Ensure VectorIndex implements driven.VectorIndex
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex keeps chunks in insertion order and scans them on search.
// Contents are lost on restart.
type VectorIndex struct {
	mu     sync.RWMutex
	chunks []*domain.Chunk
	dims   int
}

// NewVectorIndex creates an empty in-memory index
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{}
}

// Index appends chunks. The batch is rejected as a whole when any chunk lacks
// an embedding or its size differs from the stored vectors.
func (v *VectorIndex) Index(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	dims := v.dims
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", c.ID)
		}
		if dims == 0 {
			dims = len(c.Embedding)
		}
		if len(c.Embedding) != dims {
			return fmt.Errorf("%w: chunk %s has %d, index has %d", domain.ErrDimensionMismatch, c.ID, len(c.Embedding), dims)
		}
	}

	for _, c := range chunks {
		cp := *c
		cp.Metadata = domain.CopyMetadata(c.Metadata)
		cp.Embedding = append([]float32(nil), c.Embedding...)
		v.chunks = append(v.chunks, &cp)
	}
	v.dims = dims
	return nil
}

// Search scans every stored chunk
func (v *VectorIndex) Search(ctx context.Context, embedding []float32, opts domain.SearchOptions) ([]*domain.RankedChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.dims != 0 && len(embedding) != v.dims {
		return nil, fmt.Errorf("%w: query has %d, index has %d", domain.ErrDimensionMismatch, len(embedding), v.dims)
	}
	return similarity.TopK(embedding, v.chunks, opts), nil
}

func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.chunks), nil
}

func (v *VectorIndex) HealthCheck(ctx context.Context) error {
	return nil
}
