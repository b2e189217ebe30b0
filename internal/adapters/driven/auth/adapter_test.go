package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
)

const testSecret = "test-secret-key-for-jwt-signing"

func TestGenerateToken(t *testing.T) {
	adapter := NewAdapter(testSecret)

	token, err := adapter.GenerateToken(&domain.TokenClaims{
		Subject:   "ingest-bot",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if token == "" {
		t.Error("expected non-empty token")
	}
}

func TestGenerateToken_RequiresSubject(t *testing.T) {
	adapter := NewAdapter(testSecret)

	if _, err := adapter.GenerateToken(&domain.TokenClaims{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := adapter.GenerateToken(nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil claims, got %v", err)
	}
}

func TestParseToken_ValidToken(t *testing.T) {
	adapter := NewAdapter(testSecret)
	issued := time.Now().Truncate(time.Second)
	expires := issued.Add(time.Hour)

	token, err := adapter.GenerateToken(&domain.TokenClaims{Subject: "ingest-bot", IssuedAt: issued, ExpiresAt: expires})
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := adapter.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.Subject != "ingest-bot" {
		t.Errorf("Subject = %q, want ingest-bot", claims.Subject)
	}
	if !claims.IssuedAt.Equal(issued) {
		t.Errorf("IssuedAt = %v, want %v", claims.IssuedAt, issued)
	}
	if !claims.ExpiresAt.Equal(expires) {
		t.Errorf("ExpiresAt = %v, want %v", claims.ExpiresAt, expires)
	}
}

func TestParseToken_ExpiredToken(t *testing.T) {
	adapter := NewAdapter(testSecret)

	token, _ := adapter.GenerateToken(&domain.TokenClaims{
		Subject:   "ingest-bot",
		IssuedAt:  time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	})

	_, err := adapter.ParseToken(token)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseToken_Rejected(t *testing.T) {
	adapter := NewAdapter(testSecret)
	valid := func(secret string, method jwt.SigningMethod, rc jwt.RegisteredClaims) string {
		tok, err := jwt.NewWithClaims(method, rc).SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return tok
	}
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name  string
		token string
	}{
		{"malformed", "not.a.jwt"},
		{"empty", ""},
		{"wrong secret", valid("other-secret", jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: Issuer, Subject: "x", ExpiresAt: exp})},
		{"wrong method", valid(testSecret, jwt.SigningMethodHS512, jwt.RegisteredClaims{Issuer: Issuer, Subject: "x", ExpiresAt: exp})},
		{"wrong issuer", valid(testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: "someone", Subject: "x", ExpiresAt: exp})},
		{"no expiry", valid(testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: Issuer, Subject: "x"})},
		{"no subject", valid(testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: Issuer, ExpiresAt: exp})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := adapter.ParseToken(tt.token)
			if !errors.Is(err, domain.ErrTokenInvalid) {
				t.Errorf("expected ErrTokenInvalid, got %v", err)
			}
		})
	}
}

func BenchmarkParseToken(b *testing.B) {
	adapter := NewAdapter(testSecret)
	token, _ := adapter.GenerateToken(&domain.TokenClaims{
		Subject:   "bench",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = adapter.ParseToken(token)
	}
}
