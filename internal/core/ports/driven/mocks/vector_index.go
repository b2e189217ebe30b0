package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
)

var _ driven.VectorIndex = (*MockVectorIndex)(nil)

// MockVectorIndex keeps chunks in a slice and records batches.
type MockVectorIndex struct {
	mu      sync.RWMutex
	chunks  []*domain.Chunk
	batches int

	IndexFn  func(ctx context.Context, chunks []*domain.Chunk) error
	SearchFn func(embedding []float32, opts domain.SearchOptions) ([]*domain.RankedChunk, error)
}

// NewMockVectorIndex creates a new MockVectorIndex
func NewMockVectorIndex() *MockVectorIndex {
	return &MockVectorIndex{}
}

func (m *MockVectorIndex) Index(ctx context.Context, chunks []*domain.Chunk) error {
	if m.IndexFn != nil {
		if err := m.IndexFn(ctx, chunks); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = append(m.chunks, chunks...)
	m.batches++
	return nil
}

// Search returns stored chunks in insertion order with a score of 1.
func (m *MockVectorIndex) Search(ctx context.Context, embedding []float32, opts domain.SearchOptions) ([]*domain.RankedChunk, error) {
	if m.SearchFn != nil {
		return m.SearchFn(embedding, opts)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	opts = opts.Normalize()
	var out []*domain.RankedChunk
	for _, c := range m.chunks {
		if len(out) == opts.TopK {
			break
		}
		out = append(out, &domain.RankedChunk{Chunk: c, Score: 1})
	}
	return out, nil
}

func (m *MockVectorIndex) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks), nil
}

func (m *MockVectorIndex) HealthCheck(ctx context.Context) error {
	return nil
}

// Chunks returns a copy of everything indexed so far
func (m *MockVectorIndex) Chunks() []*domain.Chunk {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Chunk, len(m.chunks))
	copy(out, m.chunks)
	return out
}

// Batches returns the number of successful Index calls
func (m *MockVectorIndex) Batches() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.batches
}
