package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenIssuerIssuesSignedCredentials(t *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("super-secret"),
		Issuer:        "conduit-auth",
		Audience:      "conduit-api",
		TokenTTL:      30 * time.Minute,
	})

	tokenString, expiresIn, err := issuer.Issue(context.Background(), "user-123")
	if err != nil {
		t.Fatalf("expected successful issuance: %v", err)
	}
	if expiresIn <= 0 {
		t.Fatalf("expected positive expiry seconds, got %d", expiresIn)
	}

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("super-secret"), nil
	})
	if err != nil {
		t.Fatalf("failed to parse generated token: %v", err)
	}
	if claims.Subject != "user-123" {
		t.Fatalf("unexpected subject %s", claims.Subject)
	}
	if claims.Issuer != "conduit-auth" {
		t.Fatalf("unexpected issuer %s", claims.Issuer)
	}
}

func TestTokenIssuerRejectsEmptySubject(t *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{SigningSecret: []byte("super-secret")})

	if _, _, err := issuer.Issue(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty subject")
	}
}

func TestValidateRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("super-secret"),
		Issuer:        "conduit-auth",
		Audience:      "conduit-api",
		TokenTTL:      time.Minute,
	})

	tokenString, _, err := issuer.Issue(context.Background(), "user-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	userID, err := issuer.Validate(tokenString)
	if err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if userID != "user-123" {
		t.Fatalf("unexpected user id %s", userID)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	issuingClock := func() time.Time { return past }

	issuer := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("super-secret"),
		Issuer:        "conduit-auth",
		Audience:      "conduit-api",
		TokenTTL:      time.Minute,
		Clock:         issuingClock,
	})

	tokenString, _, err := issuer.Issue(context.Background(), "user-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	validator := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("super-secret"),
		Issuer:        "conduit-auth",
		Audience:      "conduit-api",
		TokenTTL:      time.Minute,
	})
	if _, err := validator.Validate(tokenString); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("super-secret"),
		Issuer:        "conduit-auth",
		Audience:      "conduit-api",
	})
	tokenString, _, err := issuer.Issue(context.Background(), "user-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("different-secret"),
		Issuer:        "conduit-auth",
		Audience:      "conduit-api",
	})
	if _, err := other.Validate(tokenString); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}
