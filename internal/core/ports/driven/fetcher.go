package driven

import (
	"context"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
)

// Fetcher retrieves the raw bytes behind a locator (http(s) URL, file URL or path).
type Fetcher interface {
	// Fetch downloads the locator. The MIME type is taken from the transport
	// when available and sniffed otherwise.
	Fetch(ctx context.Context, locator string) (*domain.RawDocument, error)
}

// CommandRunner runs an external program and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}
