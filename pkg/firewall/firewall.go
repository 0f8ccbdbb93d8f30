// Package firewall models the network-layer allow capability the proxy
// needs so an answered guest can actually reach the receiver across the
// segment boundary.
//
// The proxy only depends on the Rules interface: a time-bounded, idempotent
// allow for one (guest, device) address pair. Rule matching semantics and
// removal on expiry belong entirely to the underlying rule engine - nothing
// here tracks or cancels timers. Implementations must make re-installing an
// existing unexpired rule a no-op, not an error, because duplicate queries
// legitimately produce duplicate install requests.
package firewall

import (
	"context"
	"time"
)

// Rules is the capability the firewall synchronizer is given.
type Rules interface {
	// Allow installs a time-bounded rule permitting traffic from the
	// guest address to the device address. Idempotent: allowing an
	// already-allowed unexpired pair succeeds without side effects.
	Allow(ctx context.Context, guestAddress, deviceAddress string, ttl time.Duration) error
}

// NoopRules ignores all requests. Used when the proxy runs without firewall
// integration (flat lab networks, tests).
type NoopRules struct{}

// Allow does nothing and succeeds.
func (NoopRules) Allow(ctx context.Context, guestAddress, deviceAddress string, ttl time.Duration) error {
	return nil
}

// Compile-time interface satisfaction check.
var _ Rules = NoopRules{}
