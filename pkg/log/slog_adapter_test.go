package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestSlog(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestSlogAdapterDecision(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(newTestSlog(&buf))

	adapter.Log(Event{
		Timestamp: time.Now(),
		Category:  CategoryDecision,
		GuestAddr: "10.0.20.5",
		Room:      "101",
		Decision:  &DecisionEvent{Authorized: true, Devices: 2},
	})

	out := buf.String()
	for _, want := range []string{"DECISION", "guest=10.0.20.5", "room=101", "authorized=true", "devices=2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestSlogAdapterDeniedDecisionHasReason(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(newTestSlog(&buf))

	adapter.Log(Event{
		Timestamp: time.Now(),
		Category:  CategoryDecision,
		GuestAddr: "10.0.20.6",
		Decision:  &DecisionEvent{Authorized: false, Reason: "expired"},
	})

	out := buf.String()
	if !strings.Contains(out, "reason=expired") {
		t.Errorf("output missing denial reason: %s", out)
	}
}

func TestSlogAdapterErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(newTestSlog(&buf))

	adapter.Log(Event{
		Timestamp: time.Now(),
		Category:  CategoryError,
		Error:     &ErrorEventData{Stage: "decode", Message: "malformed dns message"},
	})

	out := buf.String()
	if !strings.Contains(out, "level=WARN") {
		t.Errorf("error event not logged at WARN: %s", out)
	}
	if !strings.Contains(out, "stage=decode") {
		t.Errorf("output missing stage: %s", out)
	}
}

func TestSlogAdapterFirewallFailureLevel(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(newTestSlog(&buf))

	adapter.Log(Event{
		Timestamp: time.Now(),
		Category:  CategoryFirewall,
		GuestAddr: "10.0.20.5",
		Firewall:  &FirewallEvent{DeviceIP: "10.0.30.9", TTLSeconds: 3600, Failed: true},
	})

	if out := buf.String(); !strings.Contains(out, "level=WARN") {
		t.Errorf("failed firewall install not logged at WARN: %s", out)
	}
}
