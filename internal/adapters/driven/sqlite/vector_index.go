// Package sqlite stores chunk vectors in an embedded SQLite database.
package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
	"github.com/custodia-labs/finance-assist/internal/similarity"
)

// Ensure VectorIndex implements driven.VectorIndex
var _ driven.VectorIndex = (*VectorIndex)(nil)

const insertBatchSize = 200

// chunkRecord is the row layout of the chunks table. Seq preserves
// insertion order for tie breaking.
type chunkRecord struct {
	Seq        uint   `gorm:"primaryKey;autoIncrement"`
	ID         string `gorm:"uniqueIndex;size:36;not null"`
	DocumentID string `gorm:"index;size:36"`
	Source     string
	Content    string `gorm:"not null"`
	Position   int
	StartChar  int
	EndChar    int
	Metadata   string
	Dimensions int    `gorm:"not null"`
	Embedding  []byte `gorm:"not null"`
	CreatedAt  time.Time
}

func (chunkRecord) TableName() string { return "chunks" }

// Open opens (creating if needed) the database at path and migrates the schema.
// ":memory:" gives a private in-memory database.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// One connection: SQLite has a single writer and ":memory:" is per connection
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&chunkRecord{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return db, nil
}

// VectorIndex implements driven.VectorIndex on gorm.
type VectorIndex struct {
	db *gorm.DB
}

// NewVectorIndex creates a VectorIndex over an opened database
func NewVectorIndex(db *gorm.DB) *VectorIndex {
	return &VectorIndex{db: db}
}

// Index inserts the batch in one transaction
func (v *VectorIndex) Index(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	records := make([]chunkRecord, len(chunks))
	for i, c := range chunks {
		rec, err := toRecord(c)
		if err != nil {
			return err
		}
		records[i] = rec
	}

	return v.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing chunkRecord
		err := tx.Select("dimensions").Order("seq").Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			existing.Dimensions = records[0].Dimensions
		case err != nil:
			return fmt.Errorf("read dimensions: %w", err)
		}

		for _, rec := range records {
			if rec.Dimensions != existing.Dimensions {
				return fmt.Errorf("%w: chunk %s has %d, index has %d",
					domain.ErrDimensionMismatch, rec.ID, rec.Dimensions, existing.Dimensions)
			}
		}

		if err := tx.CreateInBatches(&records, insertBatchSize).Error; err != nil {
			return fmt.Errorf("insert chunks: %w", err)
		}
		return nil
	})
}

// Search loads every vector and ranks them in process
func (v *VectorIndex) Search(ctx context.Context, embedding []float32, opts domain.SearchOptions) ([]*domain.RankedChunk, error) {
	var records []chunkRecord
	if err := v.db.WithContext(ctx).Order("seq").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}

	candidates := make([]*domain.Chunk, 0, len(records))
	for i := range records {
		if records[i].Dimensions != len(embedding) {
			return nil, fmt.Errorf("%w: query has %d, index has %d",
				domain.ErrDimensionMismatch, len(embedding), records[i].Dimensions)
		}
		c, err := fromRecord(&records[i])
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return similarity.TopK(embedding, candidates, opts), nil
}

func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	var n int64
	if err := v.db.WithContext(ctx).Model(&chunkRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return int(n), nil
}

func (v *VectorIndex) HealthCheck(ctx context.Context) error {
	sqlDB, err := v.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying database
func (v *VectorIndex) Close() error {
	sqlDB, err := v.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRecord(c *domain.Chunk) (chunkRecord, error) {
	if len(c.Embedding) == 0 {
		return chunkRecord{}, fmt.Errorf("chunk %s has no embedding", c.ID)
	}
	meta, err := json.Marshal(c.Metadata)
	if err != nil {
		return chunkRecord{}, fmt.Errorf("encode metadata: %w", err)
	}
	return chunkRecord{
		ID:         c.ID,
		DocumentID: c.DocumentID,
		Source:     c.Source,
		Content:    c.Content,
		Position:   c.Position,
		StartChar:  c.StartChar,
		EndChar:    c.EndChar,
		Metadata:   string(meta),
		Dimensions: len(c.Embedding),
		Embedding:  similarity.EncodeVector(c.Embedding),
		CreatedAt:  c.CreatedAt,
	}, nil
}

func fromRecord(r *chunkRecord) (*domain.Chunk, error) {
	embedding, err := similarity.DecodeVector(r.Embedding)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", r.ID, err)
	}
	var meta map[string]string
	if r.Metadata != "" {
		if err := json.Unmarshal([]byte(r.Metadata), &meta); err != nil {
			return nil, fmt.Errorf("chunk %s metadata: %w", r.ID, err)
		}
	}
	return &domain.Chunk{
		ID:         r.ID,
		DocumentID: r.DocumentID,
		Source:     r.Source,
		Content:    r.Content,
		Embedding:  embedding,
		Position:   r.Position,
		StartChar:  r.StartChar,
		EndChar:    r.EndChar,
		Metadata:   meta,
		CreatedAt:  r.CreatedAt,
	}, nil
}
