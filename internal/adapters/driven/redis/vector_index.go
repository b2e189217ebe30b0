package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
	"github.com/custodia-labs/finance-assist/internal/similarity"
)

// Verify interface compliance
var _ driven.VectorIndex = (*VectorIndex)(nil)

const (
	chunksKey     = keyPrefix + "chunks"
	dimensionsKey = keyPrefix + "chunks:dimensions"
	maxTxRetries  = 5
)

// chunkRecord is the JSON stored per list entry
type chunkRecord struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"document_id"`
	Source     string            `json:"source"`
	Content    string            `json:"content"`
	Position   int               `json:"position"`
	StartChar  int               `json:"start_char"`
	EndChar    int               `json:"end_char"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Embedding  []byte            `json:"embedding"`
	CreatedAt  time.Time         `json:"created_at"`
}

// VectorIndex keeps chunks in a Redis list so several service instances
// share one index. Insertion order is list order.
type VectorIndex struct {
	client redis.UniversalClient
}

// NewVectorIndex creates a new Redis-backed VectorIndex
func NewVectorIndex(client redis.UniversalClient) *VectorIndex {
	return &VectorIndex{client: client}
}

// Index appends the batch in one MULTI/EXEC, watching the dimension key so
// two writers cannot store vectors of different sizes.
func (v *VectorIndex) Index(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	dims := len(chunks[0].Embedding)
	values := make([]any, len(chunks))
	for i, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", c.ID)
		}
		if len(c.Embedding) != dims {
			return fmt.Errorf("%w: chunk %s has %d, batch has %d", domain.ErrDimensionMismatch, c.ID, len(c.Embedding), dims)
		}
		data, err := json.Marshal(chunkRecord{
			ID:         c.ID,
			DocumentID: c.DocumentID,
			Source:     c.Source,
			Content:    c.Content,
			Position:   c.Position,
			StartChar:  c.StartChar,
			EndChar:    c.EndChar,
			Metadata:   c.Metadata,
			Embedding:  similarity.EncodeVector(c.Embedding),
			CreatedAt:  c.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("encode chunk %s: %w", c.ID, err)
		}
		values[i] = data
	}

	txf := func(tx *redis.Tx) error {
		stored, err := tx.Get(ctx, dimensionsKey).Int()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("read dimensions: %w", err)
		case stored != dims:
			return fmt.Errorf("%w: batch has %d, index has %d", domain.ErrDimensionMismatch, dims, stored)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, dimensionsKey, strconv.Itoa(dims), 0)
			pipe.RPush(ctx, chunksKey, values...)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := v.client.Watch(ctx, txf, dimensionsKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("index chunks: %w", redis.TxFailedErr)
}

// Search reads the whole list and ranks it in process
func (v *VectorIndex) Search(ctx context.Context, embedding []float32, opts domain.SearchOptions) ([]*domain.RankedChunk, error) {
	raw, err := v.client.LRange(ctx, chunksKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}

	candidates := make([]*domain.Chunk, 0, len(raw))
	for _, item := range raw {
		var rec chunkRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("decode chunk: %w", err)
		}
		vec, err := similarity.DecodeVector(rec.Embedding)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", rec.ID, err)
		}
		if len(vec) != len(embedding) {
			return nil, fmt.Errorf("%w: query has %d, index has %d", domain.ErrDimensionMismatch, len(embedding), len(vec))
		}
		candidates = append(candidates, &domain.Chunk{
			ID:         rec.ID,
			DocumentID: rec.DocumentID,
			Source:     rec.Source,
			Content:    rec.Content,
			Embedding:  vec,
			Position:   rec.Position,
			StartChar:  rec.StartChar,
			EndChar:    rec.EndChar,
			Metadata:   rec.Metadata,
			CreatedAt:  rec.CreatedAt,
		})
	}

	return similarity.TopK(embedding, candidates, opts), nil
}

func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	n, err := v.client.LLen(ctx, chunksKey).Result()
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return int(n), nil
}

func (v *VectorIndex) HealthCheck(ctx context.Context) error {
	return v.client.Ping(ctx).Err()
}
