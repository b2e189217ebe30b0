package services

import (
	"strconv"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driving"
)

// Ensure splitter implements Splitter
var _ driving.Splitter = (*splitter)(nil)

// splitter runs the post-processor pipeline over each document
type splitter struct {
	pipeline driven.PostProcessorPipeline
}

// NewSplitter creates a Splitter backed by pipeline
func NewSplitter(pipeline driven.PostProcessorPipeline) driving.Splitter {
	return &splitter{pipeline: pipeline}
}

// Split chunks every document. Chunks carry the document metadata plus
// their index within the document; IDs are left for the vector store.
func (s *splitter) Split(docs []*domain.Document) ([]*domain.Chunk, error) {
	var chunks []*domain.Chunk

	for _, doc := range docs {
		if doc == nil {
			return nil, domain.NewError(domain.KindParse, "split", domain.ErrInvalidInput)
		}

		for _, part := range s.pipeline.Process(doc.Content) {
			meta := domain.CopyMetadata(doc.Metadata)
			for k, v := range part.Metadata {
				meta[k] = v
			}
			meta[domain.MetaChunkIndex] = strconv.Itoa(part.Position)

			chunks = append(chunks, &domain.Chunk{
				DocumentID: doc.ID,
				Source:     doc.Source,
				Content:    part.Content,
				Position:   part.Position,
				StartChar:  part.StartOffset,
				EndChar:    part.EndOffset,
				Metadata:   meta,
				CreatedAt:  doc.CreatedAt,
			})
		}
	}

	return chunks, nil
}
