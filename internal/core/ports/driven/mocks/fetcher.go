package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
)

var _ driven.Fetcher = (*MockFetcher)(nil)

// MockFetcher serves raw documents from a map keyed by locator.
// Unknown locators fail like an unreachable host.
type MockFetcher struct {
	mu      sync.Mutex
	docs    map[string]*domain.RawDocument
	fetched []string
}

// NewMockFetcher creates an empty MockFetcher
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{docs: make(map[string]*domain.RawDocument)}
}

// Add registers content for a locator
func (m *MockFetcher) Add(locator, mimeType, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[locator] = &domain.RawDocument{
		Locator:  locator,
		MimeType: mimeType,
		Content:  []byte(content),
	}
}

func (m *MockFetcher) Fetch(ctx context.Context, locator string) (*domain.RawDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetched = append(m.fetched, locator)
	raw, ok := m.docs[locator]
	if !ok {
		return nil, fmt.Errorf("fetch %s: no such host", locator)
	}
	cp := *raw
	return &cp, nil
}

// Fetched returns the locators requested so far, in order
func (m *MockFetcher) Fetched() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.fetched))
	copy(out, m.fetched)
	return out
}
