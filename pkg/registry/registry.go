package registry

import (
	"context"
	"errors"
	"time"
)

// Registry errors.
var (
	// ErrNotFound indicates no device exists for the UUID.
	ErrNotFound = errors.New("device not found")

	// ErrRegistryUnavailable indicates the backing store could not be
	// read. Callers treat it as zero matching devices.
	ErrRegistryUnavailable = errors.New("device registry unavailable")

	// ErrMissingUUID indicates an upsert without the dedup key.
	ErrMissingUUID = errors.New("device uuid is required")
)

// Device is a known cast receiver.
type Device struct {
	// UUID is the receiver's stable identity (dedup key).
	UUID string `json:"uuid"`

	// FriendlyName is the user-visible receiver name.
	FriendlyName string `json:"friendly_name"`

	// IP is the receiver's device-segment IPv4 address.
	IP string `json:"ip"`

	// Port is the receiver control port. Zero means the default.
	Port uint16 `json:"port,omitempty"`

	// Model is the receiver model string (optional).
	Model string `json:"model,omitempty"`

	// Room is the operator-assigned room. Empty means unassigned; an
	// unassigned receiver is never answered to any guest.
	Room string `json:"room,omitempty"`

	// LastSeen is when discovery last observed the receiver
	// (informational).
	LastSeen time.Time `json:"last_seen,omitempty"`
}

// Registry is the read-only view the proxy core depends on.
type Registry interface {
	// ListByRoom returns the devices whose room equals room exactly
	// (string equality, no partial match). An empty room never matches,
	// even against unassigned devices.
	ListByRoom(ctx context.Context, room string) ([]*Device, error)
}

// WritableRegistry extends Registry with the mutations discovery and the
// admin surface need.
type WritableRegistry interface {
	Registry

	// Upsert creates or refreshes a device keyed by UUID. An upsert
	// with an empty Room preserves any previously assigned room; a
	// non-empty Room overwrites it.
	Upsert(ctx context.Context, device *Device) error

	// AssignRoom sets (or clears) the room for a device.
	AssignRoom(ctx context.Context, uuid, room string) error

	// List returns all known devices.
	List(ctx context.Context) ([]*Device, error)
}
