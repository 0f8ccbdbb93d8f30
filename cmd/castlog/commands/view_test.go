package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/guestcast/guestcast-go/pkg/log"
)

func TestFormatDecisionEvent(t *testing.T) {
	ts := time.Date(2026, 3, 1, 15, 4, 5, 123456000, time.UTC)
	event := log.Event{
		Timestamp: ts,
		Category:  log.CategoryDecision,
		GuestAddr: "10.0.20.5",
		Decision:  &log.DecisionEvent{Authorized: false, Reason: "no-pairing"},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "2026-03-01T15:04:05.123456Z") {
		t.Errorf("expected timestamp, got: %s", output)
	}
	if !strings.Contains(output, "DECISION") {
		t.Errorf("expected DECISION label, got: %s", output)
	}
	if !strings.Contains(output, "Guest: 10.0.20.5") {
		t.Errorf("expected guest address, got: %s", output)
	}
	if !strings.Contains(output, "Denied: no-pairing") {
		t.Errorf("expected denial reason, got: %s", output)
	}
}

func TestFormatResponseEvent(t *testing.T) {
	event := log.Event{
		Timestamp: time.Now(),
		Category:  log.CategoryResponse,
		Direction: log.DirectionOut,
		GuestAddr: "10.0.20.5:5353",
		Room:      "101",
		Response: &log.ResponseEvent{
			Instance: "Guestcast-0011223344556677",
			DeviceIP: "10.0.30.9",
			Port:     8009,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "RESPONSE OUT") {
		t.Errorf("expected direction in header, got: %s", output)
	}
	if !strings.Contains(output, "Room: 101") {
		t.Errorf("expected room, got: %s", output)
	}
	if !strings.Contains(output, "Target: 10.0.30.9:8009") {
		t.Errorf("expected target address, got: %s", output)
	}
}

func TestParseCategoryFlag(t *testing.T) {
	tests := []struct {
		in      string
		want    log.Category
		wantErr bool
	}{
		{"decision", log.CategoryDecision, false},
		{"FIREWALL", log.CategoryFirewall, false},
		{"scan", log.CategoryScan, false},
		{"bogus", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseCategoryFlag(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseCategoryFlag(%q) succeeded, want error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCategoryFlag(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseCategoryFlag(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseDirectionFlag(t *testing.T) {
	if _, err := ParseDirectionFlag("sideways"); err == nil {
		t.Error("ParseDirectionFlag(sideways) succeeded, want error")
	}
	got, err := ParseDirectionFlag("OUT")
	if err != nil {
		t.Fatalf("ParseDirectionFlag(OUT) error = %v", err)
	}
	if got != log.DirectionOut {
		t.Errorf("ParseDirectionFlag(OUT) = %v, want DirectionOut", got)
	}
}

// writeTestLog writes a small event log and returns its path.
func writeTestLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "proxy.clog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	defer logger.Close()

	denied := log.NewEvent(log.CategoryDecision)
	denied.GuestAddr = "10.0.20.99"
	denied.Decision = &log.DecisionEvent{Authorized: false, Reason: "expired"}
	logger.Log(denied)

	authorized := log.NewEvent(log.CategoryDecision)
	authorized.GuestAddr = "10.0.20.5"
	authorized.Room = "101"
	authorized.Decision = &log.DecisionEvent{Authorized: true, Devices: 1}
	logger.Log(authorized)

	answer := log.NewEvent(log.CategoryResponse)
	answer.Direction = log.DirectionOut
	answer.GuestAddr = "10.0.20.5:5353"
	answer.Room = "101"
	answer.Response = &log.ResponseEvent{Instance: "Guestcast-0011223344556677", DeviceIP: "10.0.30.9", Port: 8009}
	logger.Log(answer)

	return path
}

func TestRunView(t *testing.T) {
	path := writeTestLog(t)

	var buf bytes.Buffer
	if err := RunView(path, log.Filter{}, &buf); err != nil {
		t.Fatalf("RunView() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Denied: expired") {
		t.Errorf("expected denial, got: %s", output)
	}
	if !strings.Contains(output, "Guestcast-0011223344556677") {
		t.Errorf("expected answer instance, got: %s", output)
	}
}

func TestRunViewFiltersByGuest(t *testing.T) {
	path := writeTestLog(t)

	var buf bytes.Buffer
	if err := RunView(path, log.Filter{GuestAddr: "10.0.20.99"}, &buf); err != nil {
		t.Fatalf("RunView() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "10.0.20.99") {
		t.Errorf("expected filtered guest, got: %s", output)
	}
	if strings.Contains(output, "10.0.20.5") {
		t.Errorf("other guests must be filtered out, got: %s", output)
	}
}

func TestRunViewMissingFile(t *testing.T) {
	var buf bytes.Buffer
	if err := RunView(filepath.Join(t.TempDir(), "absent.clog"), log.Filter{}, &buf); err == nil {
		t.Error("RunView() on missing file succeeded, want error")
	}
}
