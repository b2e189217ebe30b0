package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driving"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

// DefaultTokenTTL is used when IssueToken is given no lifetime.
const DefaultTokenTTL = 24 * time.Hour

// authService implements the AuthService interface
type authService struct {
	tokens driven.TokenAdapter
	now    func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(tokens driven.TokenAdapter) driving.AuthService {
	return &authService{
		tokens: tokens,
		now:    time.Now,
	}
}

// ValidateToken parses a bearer token and rejects expired ones
func (s *authService) ValidateToken(_ context.Context, token string) (*domain.TokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	if !claims.ExpiresAt.IsZero() && s.now().After(claims.ExpiresAt) {
		return nil, domain.ErrTokenExpired
	}

	return claims, nil
}

// IssueToken signs a token for subject. A ttl of zero uses DefaultTokenTTL.
func (s *authService) IssueToken(_ context.Context, subject string, ttl time.Duration) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", domain.ErrInvalidInput
	}
	if ttl < 0 {
		return "", domain.ErrInvalidInput
	}
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}

	now := s.now()
	return s.tokens.GenerateToken(&domain.TokenClaims{
		Subject:   subject,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	})
}
