package pairing

import (
	"context"
	"errors"
	"time"
)

// Pairing errors.
var (
	// ErrNotFound indicates no pairing exists for the address.
	ErrNotFound = errors.New("pairing not found")

	// ErrStoreUnavailable indicates the backing store could not be read.
	// Callers must treat this exactly like ErrNotFound for authorization
	// purposes (fail-closed); it is distinct only for diagnostics.
	ErrStoreUnavailable = errors.New("pairing store unavailable")
)

// DefaultLifetime is the pairing lifetime used when a caller does not
// specify one.
const DefaultLifetime = 8 * time.Hour

// Record binds a guest address to a room for a bounded time.
type Record struct {
	// GuestAddress is the guest's IPv4 address (exact-literal key).
	GuestAddress string `json:"guest_address"`

	// Room identifies which room the guest may cast to.
	Room string `json:"room"`

	// PairedAt is when the pairing was created.
	PairedAt time.Time `json:"paired_at"`

	// ExpiresAt is when the pairing stops authorizing. The boundary is
	// exclusive: a record whose ExpiresAt equals the query time is
	// already expired.
	ExpiresAt time.Time `json:"expires_at"`

	// TokenUsed records which token created this pairing (audit only).
	TokenUsed string `json:"token_used,omitempty"`
}

// ActiveAt reports whether the pairing authorizes at the given instant.
func (r *Record) ActiveAt(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}

// Store is the read-only view the proxy core depends on.
type Store interface {
	// Lookup returns the pairing for the exact guest address, or
	// ErrNotFound. No subnet or prefix matching is performed.
	// Lookup does not filter by expiry; callers check ActiveAt.
	Lookup(ctx context.Context, guestAddress string) (*Record, error)
}

// WritableStore extends Store with the mutations the pairing surface needs.
type WritableStore interface {
	Store

	// Put creates or replaces the pairing for record.GuestAddress.
	Put(ctx context.Context, record *Record) error

	// Delete revokes the pairing for the address. Deleting an absent
	// pairing returns ErrNotFound.
	Delete(ctx context.Context, guestAddress string) error

	// List returns all pairings, expired ones included.
	List(ctx context.Context) ([]*Record, error)
}
