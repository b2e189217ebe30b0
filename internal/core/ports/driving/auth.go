package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
)

// AuthService issues and validates ingest tokens
type AuthService interface {
	// ValidateToken validates a bearer token and returns its claims
	ValidateToken(ctx context.Context, token string) (*domain.TokenClaims, error)

	// IssueToken signs a token for subject valid for ttl
	IssueToken(ctx context.Context, subject string, ttl time.Duration) (string, error)
}
