package castdns

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// InstancePrefix is prepended to the fingerprint to form the service
// instance label.
const InstancePrefix = "Guestcast-"

// fingerprintLen is the fingerprint length in hex characters (64 bits).
const fingerprintLen = 16

// Fingerprint derives the stable advertisement identity for a receiver.
//
// The fingerprint is the first 64 bits (16 hex chars) of SHA-256 over the
// receiver's UUID. The UUID is the only input on purpose: friendly names and
// addresses may legitimately change, and a guest app's session continuity
// depends on the same receiver advertising under the same identity across
// repeated queries and room reassignment.
func Fingerprint(uuid string) string {
	hash := sha256.Sum256([]byte(strings.ToLower(uuid)))
	return hex.EncodeToString(hash[:fingerprintLen/2])
}

// InstanceName returns the service instance label for a receiver UUID,
// e.g. "Guestcast-1a2b3c4d5e6f7081".
func InstanceName(uuid string) string {
	name := InstancePrefix + Fingerprint(uuid)
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}
	return name
}

// InstanceFQDN returns the fully qualified service instance name,
// e.g. "Guestcast-1a2b3c4d5e6f7081._googlecast._tcp.local.".
func InstanceFQDN(uuid string) string {
	return InstanceName(uuid) + "." + ServiceTypeCast
}

// HostFQDN returns the synthesized host name the SRV record targets and the
// A record resolves, e.g. "1a2b3c4d5e6f7081.local.".
func HostFQDN(uuid string) string {
	return Fingerprint(uuid) + "." + Domain
}
