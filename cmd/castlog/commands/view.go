// Package commands implements the castlog CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/guestcast/guestcast-go/pkg/log"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp CATEGORY [direction]
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	switch event.Category {
	case log.CategoryDatagram, log.CategoryResponse:
		fmt.Fprintf(w, "%s %s %s\n", ts, event.Category.String(), event.Direction.String())
	default:
		fmt.Fprintf(w, "%s %s\n", ts, event.Category.String())
	}

	if event.GuestAddr != "" {
		fmt.Fprintf(w, "  Guest: %s\n", event.GuestAddr)
	}
	if event.Room != "" {
		fmt.Fprintf(w, "  Room: %s\n", event.Room)
	}
	if event.DeviceUUID != "" {
		fmt.Fprintf(w, "  Device: %s\n", event.DeviceUUID)
	}

	switch {
	case event.Datagram != nil:
		fmt.Fprintf(w, "  Size: %d bytes\n", event.Datagram.Size)
		if event.Datagram.Relevant {
			fmt.Fprintln(w, "  Relevant: cast discovery query")
		}
	case event.Decision != nil:
		if event.Decision.Authorized {
			fmt.Fprintf(w, "  Authorized: %d receiver(s)\n", event.Decision.Devices)
		} else {
			fmt.Fprintf(w, "  Denied: %s\n", event.Decision.Reason)
		}
	case event.Response != nil:
		fmt.Fprintf(w, "  Instance: %s\n", event.Response.Instance)
		fmt.Fprintf(w, "  Target: %s:%d\n", event.Response.DeviceIP, event.Response.Port)
	case event.Firewall != nil:
		fmt.Fprintf(w, "  Allow: %s for %ds\n", event.Firewall.DeviceIP, event.Firewall.TTLSeconds)
		if event.Firewall.Failed {
			fmt.Fprintln(w, "  Failed: rule not installed")
		}
	case event.Scan != nil:
		fmt.Fprintf(w, "  Instance: %s\n", event.Scan.Instance)
		if event.Scan.DeviceIP != "" {
			fmt.Fprintf(w, "  Address: %s\n", event.Scan.DeviceIP)
		}
		if event.Scan.New {
			fmt.Fprintln(w, "  New: first observation")
		}
	case event.Error != nil:
		fmt.Fprintf(w, "  Stage: %s\n", event.Error.Stage)
		fmt.Fprintf(w, "  Message: %s\n", event.Error.Message)
	}

	fmt.Fprintln(w) // Blank line between events
}

// ParseCategoryFlag parses a category string from a command-line flag
// (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "datagram":
		return log.CategoryDatagram, nil
	case "decision":
		return log.CategoryDecision, nil
	case "response":
		return log.CategoryResponse, nil
	case "firewall":
		return log.CategoryFirewall, nil
	case "scan":
		return log.CategoryScan, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be datagram, decision, response, firewall, scan, or error)", s)
	}
}

// ParseDirectionFlag parses a direction string from a command-line flag
// (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		formatEvent(output, event)
	}

	return nil
}
