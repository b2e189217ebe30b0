package mocks

import (
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
)

var _ driven.TokenAdapter = (*MockTokenAdapter)(nil)

// MockTokenAdapter encodes claims as "mock|subject|expiry-unix".
type MockTokenAdapter struct {
	mu     sync.Mutex
	issued []string
}

// NewMockTokenAdapter creates a new MockTokenAdapter
func NewMockTokenAdapter() *MockTokenAdapter {
	return &MockTokenAdapter{}
}

func (m *MockTokenAdapter) GenerateToken(claims *domain.TokenClaims) (string, error) {
	exp := "0"
	if !claims.ExpiresAt.IsZero() {
		exp = claims.ExpiresAt.Format(time.RFC3339Nano)
	}
	token := "mock|" + claims.Subject + "|" + exp

	m.mu.Lock()
	m.issued = append(m.issued, token)
	m.mu.Unlock()
	return token, nil
}

func (m *MockTokenAdapter) ParseToken(token string) (*domain.TokenClaims, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 3 || parts[0] != "mock" {
		return nil, domain.ErrTokenInvalid
	}
	claims := &domain.TokenClaims{Subject: parts[1]}
	if parts[2] != "0" {
		exp, err := time.Parse(time.RFC3339Nano, parts[2])
		if err != nil {
			return nil, domain.ErrTokenInvalid
		}
		claims.ExpiresAt = exp
	}
	return claims, nil
}

// Issued returns every token generated so far
func (m *MockTokenAdapter) Issued() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.issued))
	copy(out, m.issued)
	return out
}
