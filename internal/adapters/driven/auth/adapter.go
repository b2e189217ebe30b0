package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
)

// Ensure Adapter implements TokenAdapter
var _ driven.TokenAdapter = (*Adapter)(nil)

// Issuer is written to and required in every token
const Issuer = "finance-assist"

// Adapter signs and verifies HS256 ingest tokens
type Adapter struct {
	secret []byte
}

// NewAdapter creates a new token adapter with the given HMAC secret
func NewAdapter(secret string) *Adapter {
	return &Adapter{secret: []byte(secret)}
}

// GenerateToken creates a signed JWT from domain claims
func (a *Adapter) GenerateToken(claims *domain.TokenClaims) (string, error) {
	if claims == nil || claims.Subject == "" {
		return "", fmt.Errorf("%w: token subject required", domain.ErrInvalidInput)
	}

	rc := jwt.RegisteredClaims{
		Issuer:   Issuer,
		Subject:  claims.Subject,
		IssuedAt: jwt.NewNumericDate(claims.IssuedAt),
	}
	if !claims.ExpiresAt.IsZero() {
		rc.ExpiresAt = jwt.NewNumericDate(claims.ExpiresAt)
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, rc).SignedString(a.secret)
}

// ParseToken validates a JWT and extracts domain claims.
// Expired tokens return domain.ErrTokenExpired, anything else unusable
// returns domain.ErrTokenInvalid.
func (a *Adapter) ParseToken(tokenString string) (*domain.TokenClaims, error) {
	var rc jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &rc,
		func(token *jwt.Token) (any, error) {
			return a.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(5*time.Second),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenExpired, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	case rc.Subject == "":
		return nil, fmt.Errorf("%w: missing subject", domain.ErrTokenInvalid)
	}

	claims := &domain.TokenClaims{Subject: rc.Subject}
	if rc.IssuedAt != nil {
		claims.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		claims.ExpiresAt = rc.ExpiresAt.Time
	}
	return claims, nil
}
