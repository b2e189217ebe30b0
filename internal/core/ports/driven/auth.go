package driven

import "github.com/custodia-labs/finance-assist/internal/core/domain"

// TokenAdapter signs and verifies ingest tokens.
type TokenAdapter interface {
	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}
