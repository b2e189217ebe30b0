package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driving"
	"github.com/custodia-labs/finance-assist/internal/runtime"
)

// Ensure vectorStore implements VectorStore
var _ driving.VectorStore = (*vectorStore)(nil)

const (
	// DefaultEmbeddingBatchSize is the number of texts per Embed call
	DefaultEmbeddingBatchSize = 64

	// IngestLockName guards index writes across replicas
	IngestLockName = "ingest"

	defaultLockTTL   = 2 * time.Minute
	defaultLockWait  = 30 * time.Second
	lockPollInterval = 100 * time.Millisecond
)

// VectorStoreConfig holds dependencies for the vector store.
type VectorStoreConfig struct {
	Index     driven.VectorIndex
	Services  *runtime.Services
	Lock      driven.DistributedLock // Optional, serialises writers across processes
	BatchSize int
	LockTTL   time.Duration
	LockWait  time.Duration
	Logger    *slog.Logger
}

// vectorStore embeds chunks and writes them to the index under a writer lock
type vectorStore struct {
	mu        sync.Mutex
	index     driven.VectorIndex
	services  *runtime.Services
	lock      driven.DistributedLock
	batchSize int
	lockTTL   time.Duration
	lockWait  time.Duration
	logger    *slog.Logger
}

// NewVectorStore creates a new VectorStore
func NewVectorStore(cfg VectorStoreConfig) driving.VectorStore {
	s := &vectorStore{
		index:     cfg.Index,
		services:  cfg.Services,
		lock:      cfg.Lock,
		batchSize: cfg.BatchSize,
		lockTTL:   cfg.LockTTL,
		lockWait:  cfg.LockWait,
		logger:    cfg.Logger,
	}
	if s.batchSize <= 0 {
		s.batchSize = DefaultEmbeddingBatchSize
	}
	if s.lockTTL <= 0 {
		s.lockTTL = defaultLockTTL
	}
	if s.lockWait <= 0 {
		s.lockWait = defaultLockWait
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Add embeds chunks and stores them in one index write. Nothing is written
// unless every chunk embedded successfully.
func (s *vectorStore) Add(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	embedder := s.services.EmbeddingService()
	if embedder == nil {
		return domain.NewError(domain.KindStore, "embed", domain.ErrServiceUnavailable)
	}

	vectors, err := s.embed(ctx, embedder, chunks)
	if err != nil {
		return domain.NewError(domain.KindStore, "embed", err)
	}

	now := time.Now()
	stored := make([]*domain.Chunk, len(chunks))
	for i, c := range chunks {
		cp := *c
		if cp.ID == "" {
			cp.ID = uuid.New().String()
		}
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = now
		}
		cp.Metadata = domain.CopyMetadata(c.Metadata)
		cp.Embedding = vectors[i]
		stored[i] = &cp
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lock != nil {
		if err := s.acquire(ctx); err != nil {
			return domain.NewError(domain.KindStore, "lock", err)
		}
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx), IngestLockName); err != nil {
				s.logger.Warn("failed to release ingest lock", "error", err)
			}
		}()
	}

	if err := s.write(ctx, stored); err != nil {
		return domain.NewError(domain.KindStore, "index", err)
	}

	s.logger.Info("chunks indexed", "count", len(stored), "model", embedder.Model())
	return nil
}

// embed calls the embedding service in batches and checks the vectors
// share one dimension.
func (s *vectorStore) embed(ctx context.Context, embedder driven.EmbeddingService, chunks []*domain.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	dims := embedder.Dimensions()

	for start := 0; start < len(chunks); start += s.batchSize {
		end := min(start+s.batchSize, len(chunks))

		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Content)
		}

		batch, err := embedder.Embed(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embedding service returned %d vectors for %d texts", len(batch), len(texts))
		}

		for _, v := range batch {
			if dims <= 0 {
				dims = len(v)
			}
			if len(v) != dims {
				return nil, fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(v), dims)
			}
			vectors = append(vectors, v)
		}
	}

	return vectors, nil
}

// write indexes chunks. While the distributed lock is held it is extended
// every third of its TTL; a failed extension cancels the write, since
// another writer may already own the index.
func (s *vectorStore) write(ctx context.Context, chunks []*domain.Chunk) error {
	if s.lock == nil {
		return s.index.Index(ctx, chunks)
	}

	writeCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.lockTTL / 3)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-writeCtx.Done():
				return
			case <-ticker.C:
				if err := s.lock.Extend(writeCtx, IngestLockName, s.lockTTL); err != nil {
					s.logger.Warn("ingest lock lost during index write", "error", err)
					cancel(fmt.Errorf("%w: %v", domain.ErrLockNotAcquired, err))
					return
				}
			}
		}
	}()

	err := s.index.Index(writeCtx, chunks)
	close(done)
	wg.Wait()

	if cause := context.Cause(writeCtx); err != nil && errors.Is(cause, domain.ErrLockNotAcquired) {
		return cause
	}
	return err
}

// acquire polls the distributed lock until it is taken, the wait elapses
// or ctx ends.
func (s *vectorStore) acquire(ctx context.Context) error {
	deadline := time.Now().Add(s.lockWait)
	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		ok, err := s.lock.Acquire(ctx, IngestLockName, s.lockTTL)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return domain.ErrLockNotAcquired
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SimilaritySearch embeds query and returns the nearest chunks, best first
func (s *vectorStore) SimilaritySearch(ctx context.Context, query string, opts domain.SearchOptions) ([]*domain.RankedChunk, error) {
	opts = opts.Normalize()

	embedder := s.services.EmbeddingService()
	if embedder == nil {
		return nil, domain.NewError(domain.KindStore, "embed query", domain.ErrServiceUnavailable)
	}

	vector, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, domain.NewError(domain.KindStore, "embed query", err)
	}

	results, err := s.index.Search(ctx, vector, opts)
	if err != nil {
		return nil, domain.NewError(domain.KindStore, "search", err)
	}
	return results, nil
}

// Count returns the number of stored chunks
func (s *vectorStore) Count(ctx context.Context) (int, error) {
	n, err := s.index.Count(ctx)
	if err != nil {
		return 0, domain.NewError(domain.KindStore, "count", err)
	}
	return n, nil
}

// HealthCheck pings the index and, when configured, the lock backend
func (s *vectorStore) HealthCheck(ctx context.Context) error {
	if err := s.index.HealthCheck(ctx); err != nil {
		return domain.NewError(domain.KindStore, "index health", err)
	}
	if s.lock != nil {
		if err := s.lock.Ping(ctx); err != nil {
			return domain.NewError(domain.KindStore, "lock health", err)
		}
	}
	return nil
}
