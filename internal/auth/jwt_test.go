package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("super-secret", "skillswap", time.Hour)
	userID := uuid.New()

	tok, exp, err := m.Generate(userID, "user")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry %v is not in the future", exp)
	}

	got, err := m.UserIDFromToken(tok)
	if err != nil {
		t.Fatalf("UserIDFromToken error: %v", err)
	}
	if got != userID {
		t.Fatalf("userID mismatch: got %s want %s", got, userID)
	}
}

func TestParse_Expired(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("secret", "skillswap", -time.Second)
	tok, _, err := m.Generate(uuid.New(), "user")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	if _, err := m.Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParse_WrongSecretOrIssuer(t *testing.T) {
	t.Parallel()

	issuer := NewTokenManager("secret-a", "skillswap", time.Hour)
	tok, _, err := issuer.Generate(uuid.New(), "user")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	if _, err := NewTokenManager("secret-b", "skillswap", time.Hour).Parse(tok); err == nil {
		t.Fatal("expected error for wrong secret")
	}
	if _, err := NewTokenManager("secret-a", "other", time.Hour).Parse(tok); err == nil {
		t.Fatal("expected error for wrong issuer")
	}
	if _, err := issuer.Parse("not-a-token"); err == nil {
		t.Fatal("expected error for garbage token")
	}
}
