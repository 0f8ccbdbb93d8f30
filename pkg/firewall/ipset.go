package firewall

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// IPSetRules installs allow entries into a netfilter ipset of type
// hash:ip,ip with timeouts enabled. A companion iptables/nftables rule
// matching the set (maintained outside this process) does the actual
// forwarding decision; entry removal on expiry is the kernel's job.
type IPSetRules struct {
	// SetName is the ipset to add entries to.
	SetName string

	// runner executes the ipset command; swapped in tests.
	runner func(ctx context.Context, name string, args ...string) error
}

// NewIPSetRules creates an ipset-backed Rules implementation.
func NewIPSetRules(setName string) *IPSetRules {
	return &IPSetRules{
		SetName: setName,
		runner:  runCommand,
	}
}

// Allow adds a (guest, device) entry with the given timeout.
//
// The -exist flag makes re-adding an entry refresh its timeout instead of
// failing, which provides the idempotence the synchronizer requires.
func (r *IPSetRules) Allow(ctx context.Context, guestAddress, deviceAddress string, ttl time.Duration) error {
	entry := guestAddress + "," + deviceAddress
	timeout := strconv.Itoa(int(ttl / time.Second))

	err := r.runner(ctx, "ipset", "add", "-exist", r.SetName, entry, "timeout", timeout)
	if err != nil {
		return fmt.Errorf("ipset add %s %s: %w", r.SetName, entry, err)
	}
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, output)
	}
	return nil
}

// Compile-time interface satisfaction check.
var _ Rules = (*IPSetRules)(nil)
