package pairing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// QR payload constants.
const (
	// QRPrefix identifies a guest-cast pairing payload.
	QRPrefix = "CAST"

	// QRVersion is the current payload version.
	QRVersion = 1
)

// QR payload errors.
var (
	ErrInvalidPrefix     = errors.New("invalid QR prefix")
	ErrInvalidFieldCount = errors.New("invalid QR field count")
	ErrInvalidVersion    = errors.New("invalid QR version")
	ErrEmptyRoom         = errors.New("empty room in QR payload")
	ErrEmptyToken        = errors.New("empty token in QR payload")
)

// QRPayload is the machine-readable content of a room display's QR code.
//
// Format: CAST:<version>:<room>:<token>
//
// Example: CAST:1:101:6d9f1d1e-6a68-4cbe-9c9a-0f1f2f3f4f5f
//
// It carries only what a guest app needs to pair: the room it is claiming
// and the single-use token proving physical presence in that room. Room
// identifiers must not contain ':'.
type QRPayload struct {
	Version uint8
	Room    string
	Token   string
}

// FormatQRPayload renders the payload string for a token.
func FormatQRPayload(token *Token) string {
	return fmt.Sprintf("%s:%d:%s:%s", QRPrefix, QRVersion, token.Room, token.Value)
}

// ParseQRPayload parses a guest-cast QR payload string.
func ParseQRPayload(content string) (*QRPayload, error) {
	if !strings.HasPrefix(content, QRPrefix+":") {
		return nil, ErrInvalidPrefix
	}

	parts := strings.Split(content, ":")
	if len(parts) != 4 {
		return nil, ErrInvalidFieldCount
	}

	version, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil || version < 1 {
		return nil, ErrInvalidVersion
	}

	if parts[2] == "" {
		return nil, ErrEmptyRoom
	}
	if parts[3] == "" {
		return nil, ErrEmptyToken
	}

	return &QRPayload{
		Version: uint8(version),
		Room:    parts[2],
		Token:   parts[3],
	}, nil
}
