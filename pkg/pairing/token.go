package pairing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Token errors.
var (
	// ErrTokenNotFound indicates the token was never issued or already
	// claimed.
	ErrTokenNotFound = errors.New("token not found")

	// ErrTokenExpired indicates the token's claim window has passed.
	ErrTokenExpired = errors.New("token expired")
)

// TokenClaimWindow is how long an issued token can be claimed. Short on
// purpose: a token travels via QR code on a room display and should only be
// claimable while the guest is standing in front of it.
const TokenClaimWindow = 10 * time.Minute

// Token is a single-use claim on a room, handed to guests out of band
// (typically as a QR payload).
type Token struct {
	// Value is the opaque token string.
	Value string

	// Room is the room a claim will pair the guest to.
	Room string

	// Lifetime is the pairing lifetime granted on claim.
	Lifetime time.Duration

	// IssuedAt is when the token was created.
	IssuedAt time.Time
}

// TokenIssuer issues and redeems single-use pairing tokens.
// Tokens live in memory only; an unclaimed token does not survive a restart,
// which is acceptable because room displays re-render their QR code.
type TokenIssuer struct {
	mu     sync.Mutex
	tokens map[string]*Token
	store  WritableStore
	now    func() time.Time
}

// NewTokenIssuer creates a token issuer that writes claimed pairings to store.
func NewTokenIssuer(store WritableStore) *TokenIssuer {
	return &TokenIssuer{
		tokens: make(map[string]*Token),
		store:  store,
		now:    time.Now,
	}
}

// Issue creates a new single-use token for a room. A zero lifetime means
// DefaultLifetime.
func (i *TokenIssuer) Issue(room string, lifetime time.Duration) *Token {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}

	token := &Token{
		Value:    uuid.NewString(),
		Room:     room,
		Lifetime: lifetime,
		IssuedAt: i.now(),
	}

	i.mu.Lock()
	i.tokens[token.Value] = token
	i.mu.Unlock()

	return token
}

// Claim redeems a token for the guest address, creating the pairing record.
// The token is consumed whether or not the store write succeeds; a guest
// with a failing store retries with a fresh token rather than replaying an
// old one.
func (i *TokenIssuer) Claim(ctx context.Context, value, guestAddress string) (*Record, error) {
	i.mu.Lock()
	token, ok := i.tokens[value]
	if ok {
		delete(i.tokens, value)
	}
	i.mu.Unlock()

	if !ok {
		return nil, ErrTokenNotFound
	}

	now := i.now()
	if now.Sub(token.IssuedAt) >= TokenClaimWindow {
		return nil, ErrTokenExpired
	}

	record := &Record{
		GuestAddress: guestAddress,
		Room:         token.Room,
		PairedAt:     now,
		ExpiresAt:    now.Add(token.Lifetime),
		TokenUsed:    token.Value,
	}
	if err := i.store.Put(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}
