package log

import (
	"time"
)

// Event represents a proxy event captured at any stage of query handling.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"2,keyasint"`

	// Direction indicates datagram flow, where applicable.
	Direction Direction `cbor:"3,keyasint,omitempty"`

	// GuestAddr is the querying guest address (IP:port for datagram
	// events, bare IP for decisions).
	GuestAddr string `cbor:"4,keyasint,omitempty"`

	// Room is the room involved in the decision (populated once
	// authorization resolves).
	Room string `cbor:"5,keyasint,omitempty"`

	// DeviceUUID identifies the receiver involved, if any.
	DeviceUUID string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Datagram *DatagramEvent  `cbor:"10,keyasint,omitempty"` // Raw datagram in/out
	Decision *DecisionEvent  `cbor:"11,keyasint,omitempty"` // Authorization outcome
	Response *ResponseEvent  `cbor:"12,keyasint,omitempty"` // Synthesized answer
	Firewall *FirewallEvent  `cbor:"13,keyasint,omitempty"` // Allow-rule install
	Scan     *ScanEvent      `cbor:"14,keyasint,omitempty"` // Device-segment observation
	Error    *ErrorEventData `cbor:"15,keyasint,omitempty"` // Errors at any stage
}

// Direction indicates the direction of datagram flow.
type Direction uint8

const (
	// DirectionIn indicates a received datagram.
	DirectionIn Direction = 0
	// DirectionOut indicates a sent datagram.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryDatagram is a raw multicast/unicast datagram event.
	CategoryDatagram Category = 0
	// CategoryDecision is a per-query authorization outcome.
	CategoryDecision Category = 1
	// CategoryResponse is a synthesized discovery answer.
	CategoryResponse Category = 2
	// CategoryFirewall is an allow-rule install request.
	CategoryFirewall Category = 3
	// CategoryScan is a device-segment scanner observation.
	CategoryScan Category = 4
	// CategoryError is an error at any stage.
	CategoryError Category = 5
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryDatagram:
		return "DATAGRAM"
	case CategoryDecision:
		return "DECISION"
	case CategoryResponse:
		return "RESPONSE"
	case CategoryFirewall:
		return "FIREWALL"
	case CategoryScan:
		return "SCAN"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// DatagramEvent captures a raw datagram on the guest segment.
type DatagramEvent struct {
	// Size is the datagram size in bytes.
	Size int `cbor:"1,keyasint"`

	// Relevant reports whether the datagram was classified as a cast
	// discovery query (inbound only).
	Relevant bool `cbor:"2,keyasint,omitempty"`
}

// DecisionEvent captures an authorization outcome for one query.
type DecisionEvent struct {
	// Authorized reports whether the guest resolved to a room.
	Authorized bool `cbor:"1,keyasint"`

	// Reason explains a negative outcome: "no-pairing", "expired",
	// "store-error". Empty when authorized.
	Reason string `cbor:"2,keyasint,omitempty"`

	// Devices is how many receivers the decision exposed.
	Devices int `cbor:"3,keyasint,omitempty"`
}

// ResponseEvent captures one synthesized answer packet.
type ResponseEvent struct {
	// Instance is the advertised service instance name.
	Instance string `cbor:"1,keyasint"`

	// DeviceIP is the device-segment address in the A record.
	DeviceIP string `cbor:"2,keyasint"`

	// Port is the advertised control port.
	Port uint16 `cbor:"3,keyasint"`
}

// FirewallEvent captures an allow-rule install request.
type FirewallEvent struct {
	// DeviceIP is the device-segment address the rule permits.
	DeviceIP string `cbor:"1,keyasint"`

	// TTLSeconds is the requested rule lifetime.
	TTLSeconds int `cbor:"2,keyasint"`

	// Failed reports a best-effort install failure (the answer already
	// sent is never retracted).
	Failed bool `cbor:"3,keyasint,omitempty"`
}

// ScanEvent captures a device-segment scanner observation.
type ScanEvent struct {
	// Instance is the observed mDNS instance name.
	Instance string `cbor:"1,keyasint"`

	// DeviceIP is the observed address.
	DeviceIP string `cbor:"2,keyasint,omitempty"`

	// New reports whether the receiver was previously unknown.
	New bool `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures an error at any stage.
type ErrorEventData struct {
	// Stage names the pipeline stage: "decode", "store", "registry",
	// "send", "firewall", "scan".
	Stage string `cbor:"1,keyasint"`

	// Message is the error text.
	Message string `cbor:"2,keyasint"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(category Category) Event {
	return Event{
		Timestamp: time.Now(),
		Category:  category,
	}
}
