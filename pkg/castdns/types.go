package castdns

import (
	"errors"
	"time"
)

// Service constants for cast discovery.
const (
	// ServiceTypeCast is the DNS-SD service type guests query for.
	ServiceTypeCast = "_googlecast._tcp.local."

	// Domain is the mDNS domain.
	Domain = "local."

	// MulticastGroup is the IPv4 mDNS rendezvous address.
	MulticastGroup = "224.0.0.251"

	// MulticastPort is the mDNS port.
	MulticastPort = 5353

	// DefaultCastPort is the receiver control port advertised in SRV
	// records when the registry does not carry one.
	DefaultCastPort = 8009
)

// TXT record key constants (cast receiver identity attributes).
const (
	TXTKeyID           = "id" // Receiver ID (32 hex chars, UUID without dashes)
	TXTKeyFriendlyName = "fn" // User-visible receiver name
	TXTKeyModel        = "md" // Model / device class marker
	TXTKeyVersion      = "ve" // Protocol version marker
	TXTKeyCapabilities = "ca" // Capability bitmask
	TXTKeyStatus       = "st" // Receiver status (0 = idle)
	TXTKeyReceiverStat = "rs" // Receiver status text (empty = idle)
)

// Timing constants.
const (
	// RecordTTL is the TTL shared by all records in a synthesized
	// response. Deliberately short relative to pairing duration: a
	// revoked pairing must not be advertised from guest resolver caches
	// far beyond revocation.
	RecordTTL = 2 * time.Minute
)

// Limits.
const (
	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63

	// MaxDatagramSize is the receive buffer size. mDNS messages fit in
	// 9000 bytes on the wire (RFC 6762 section 17).
	MaxDatagramSize = 9000
)

// Errors.
var (
	// ErrDecode indicates the datagram did not parse as a DNS message.
	ErrDecode = errors.New("malformed dns message")

	// ErrNotQuery indicates the message parsed but is not a query.
	ErrNotQuery = errors.New("not a query")

	// ErrNoAddress indicates a device record carried no usable IPv4
	// address for the A record.
	ErrNoAddress = errors.New("device has no IPv4 address")
)
