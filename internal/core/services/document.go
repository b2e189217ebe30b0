package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driving"
)

// Ensure documentReader implements DocumentReader
var _ driving.DocumentReader = (*documentReader)(nil)

// documentReader fetches locators and hands the bytes to the matching normaliser
type documentReader struct {
	fetcher  driven.Fetcher
	registry driven.NormaliserRegistry
	logger   *slog.Logger
}

// NewDocumentReader creates a new DocumentReader
func NewDocumentReader(
	fetcher driven.Fetcher,
	registry driven.NormaliserRegistry,
	logger *slog.Logger,
) driving.DocumentReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentReader{
		fetcher:  fetcher,
		registry: registry,
		logger:   logger,
	}
}

// Read fetches and parses each URL in order. The first failure stops the
// batch and is returned as a fetch or parse error.
func (r *documentReader) Read(ctx context.Context, urls []string) ([]*domain.Document, error) {
	var docs []*domain.Document

	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return nil, domain.NewError(domain.KindFetch, "read", err)
		}

		parsed, err := r.readOne(ctx, u)
		if err != nil {
			r.logger.Warn("document read failed", "url", u, "error", err)
			return nil, err
		}
		r.logger.Debug("document read", "url", u, "documents", len(parsed))
		docs = append(docs, parsed...)
	}

	return docs, nil
}

func (r *documentReader) readOne(ctx context.Context, u string) ([]*domain.Document, error) {
	raw, err := r.fetcher.Fetch(ctx, u)
	if err != nil {
		kind := domain.KindFetch
		if errors.Is(err, domain.ErrInvalidInput) {
			kind = domain.KindInvalidInput
		}
		return nil, domain.NewError(kind, "fetch "+u, err)
	}

	normaliser := r.registry.Get(raw.MimeType)
	if normaliser == nil {
		return nil, domain.NewError(domain.KindParse, "parse "+u,
			fmt.Errorf("%w: %s", domain.ErrUnsupportedType, raw.MimeType))
	}

	docs, err := normaliser.Normalise(ctx, raw)
	if err != nil {
		return nil, domain.NewError(domain.KindParse, "parse "+u, err)
	}
	return docs, nil
}
