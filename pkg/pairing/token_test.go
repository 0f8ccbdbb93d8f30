package pairing

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTokenIssueAndClaim(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	issuer := NewTokenIssuer(store)

	token := issuer.Issue("101", time.Hour)
	if token.Value == "" {
		t.Fatal("Issue() returned empty token value")
	}

	record, err := issuer.Claim(ctx, token.Value, "10.0.20.5")
	if err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if record.Room != "101" {
		t.Errorf("Room = %q, want %q", record.Room, "101")
	}
	if record.TokenUsed != token.Value {
		t.Errorf("TokenUsed = %q, want %q", record.TokenUsed, token.Value)
	}
	if got := record.ExpiresAt.Sub(record.PairedAt); got != time.Hour {
		t.Errorf("lifetime = %v, want 1h", got)
	}

	// The pairing landed in the store.
	stored, err := store.Lookup(ctx, "10.0.20.5")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if stored.Room != "101" {
		t.Errorf("stored Room = %q, want %q", stored.Room, "101")
	}
}

func TestTokenSingleUse(t *testing.T) {
	ctx := context.Background()
	issuer := NewTokenIssuer(NewMemStore())

	token := issuer.Issue("101", 0)
	if _, err := issuer.Claim(ctx, token.Value, "10.0.20.5"); err != nil {
		t.Fatalf("first Claim() error = %v", err)
	}
	if _, err := issuer.Claim(ctx, token.Value, "10.0.20.6"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("second Claim() error = %v, want ErrTokenNotFound", err)
	}
}

func TestTokenUnknownValue(t *testing.T) {
	issuer := NewTokenIssuer(NewMemStore())
	if _, err := issuer.Claim(context.Background(), "no-such-token", "10.0.20.5"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Claim() error = %v, want ErrTokenNotFound", err)
	}
}

func TestTokenClaimWindowExpiry(t *testing.T) {
	issuer := NewTokenIssuer(NewMemStore())

	now := time.Now()
	issuer.now = func() time.Time { return now }
	token := issuer.Issue("101", 0)

	issuer.now = func() time.Time { return now.Add(TokenClaimWindow) }
	if _, err := issuer.Claim(context.Background(), token.Value, "10.0.20.5"); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Claim() error = %v, want ErrTokenExpired", err)
	}
}

func TestTokenDefaultLifetime(t *testing.T) {
	issuer := NewTokenIssuer(NewMemStore())
	token := issuer.Issue("101", 0)
	if token.Lifetime != DefaultLifetime {
		t.Errorf("Lifetime = %v, want DefaultLifetime", token.Lifetime)
	}
}
