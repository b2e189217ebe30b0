package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
	"github.com/custodia-labs/finance-assist/internal/similarity"
)

// Verify interface compliance
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex implements driven.VectorIndex using PostgreSQL.
// Vectors are stored as little-endian float32 bytea and ranked in process.
type VectorIndex struct {
	db *DB
}

// NewVectorIndex creates a new VectorIndex
func NewVectorIndex(db *DB) *VectorIndex {
	return &VectorIndex{db: db}
}

// Index inserts the batch in one transaction. The table is locked for the
// duration so concurrent writers cannot disagree on the dimension.
func (v *VectorIndex) Index(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", c.ID)
		}
	}

	return v.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "LOCK TABLE chunks IN SHARE ROW EXCLUSIVE MODE"); err != nil {
			return fmt.Errorf("lock chunks: %w", err)
		}

		dims := len(chunks[0].Embedding)
		var stored int
		err := tx.QueryRowContext(ctx, "SELECT dimensions FROM chunks ORDER BY seq LIMIT 1").Scan(&stored)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("read dimensions: %w", err)
		default:
			dims = stored
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chunks (id, document_id, source, content, position, start_char, end_char, metadata, dimensions, embedding, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range chunks {
			if len(c.Embedding) != dims {
				return fmt.Errorf("%w: chunk %s has %d, index has %d",
					domain.ErrDimensionMismatch, c.ID, len(c.Embedding), dims)
			}
			meta, err := json.Marshal(domain.CopyMetadata(c.Metadata))
			if err != nil {
				return fmt.Errorf("encode metadata: %w", err)
			}
			_, err = stmt.ExecContext(ctx,
				c.ID,
				c.DocumentID,
				c.Source,
				c.Content,
				c.Position,
				c.StartChar,
				c.EndChar,
				meta,
				len(c.Embedding),
				similarity.EncodeVector(c.Embedding),
				c.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("insert chunk %s: %w", c.ID, err)
			}
		}
		return nil
	})
}

// Search streams every stored vector and keeps the best matches
func (v *VectorIndex) Search(ctx context.Context, embedding []float32, opts domain.SearchOptions) ([]*domain.RankedChunk, error) {
	rows, err := v.db.QueryContext(ctx, `
		SELECT id, document_id, source, content, position, start_char, end_char, metadata, dimensions, embedding, created_at
		FROM chunks
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var candidates []*domain.Chunk
	for rows.Next() {
		var (
			c    domain.Chunk
			meta []byte
			dims int
			blob []byte
		)
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Source, &c.Content, &c.Position,
			&c.StartChar, &c.EndChar, &meta, &dims, &blob, &c.CreatedAt); err != nil {
			return nil, err
		}
		if dims != len(embedding) {
			return nil, fmt.Errorf("%w: query has %d, index has %d", domain.ErrDimensionMismatch, len(embedding), dims)
		}
		if err := json.Unmarshal(meta, &c.Metadata); err != nil {
			return nil, fmt.Errorf("chunk %s metadata: %w", c.ID, err)
		}
		if c.Embedding, err = similarity.DecodeVector(blob); err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		candidates = append(candidates, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return similarity.TopK(embedding, candidates, opts), nil
}

// Count returns the number of stored chunks
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := v.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// HealthCheck pings the database
func (v *VectorIndex) HealthCheck(ctx context.Context) error {
	return v.db.Ping(ctx)
}
