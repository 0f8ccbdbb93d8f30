package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes proxy events to an slog.Logger.
// Useful for development when you want to see proxy decisions in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level
// (Warn for errors and failed firewall installs).
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("category", event.Category.String()),
	}

	if event.GuestAddr != "" {
		attrs = append(attrs, slog.String("guest", event.GuestAddr))
	}
	if event.Room != "" {
		attrs = append(attrs, slog.String("room", event.Room))
	}
	if event.DeviceUUID != "" {
		attrs = append(attrs, slog.String("device", event.DeviceUUID))
	}

	level := slog.LevelDebug

	switch {
	case event.Datagram != nil:
		attrs = append(attrs,
			slog.String("direction", event.Direction.String()),
			slog.Int("size", event.Datagram.Size),
		)
		if event.Direction == DirectionIn {
			attrs = append(attrs, slog.Bool("relevant", event.Datagram.Relevant))
		}
	case event.Decision != nil:
		attrs = append(attrs, slog.Bool("authorized", event.Decision.Authorized))
		if event.Decision.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.Decision.Reason))
		}
		if event.Decision.Authorized {
			attrs = append(attrs, slog.Int("devices", event.Decision.Devices))
		}
	case event.Response != nil:
		attrs = append(attrs,
			slog.String("instance", event.Response.Instance),
			slog.String("device_ip", event.Response.DeviceIP),
			slog.Int("port", int(event.Response.Port)),
		)
	case event.Firewall != nil:
		attrs = append(attrs,
			slog.String("device_ip", event.Firewall.DeviceIP),
			slog.Int("ttl_seconds", event.Firewall.TTLSeconds),
		)
		if event.Firewall.Failed {
			level = slog.LevelWarn
		}
	case event.Scan != nil:
		attrs = append(attrs,
			slog.String("instance", event.Scan.Instance),
			slog.Bool("new", event.Scan.New),
		)
		if event.Scan.DeviceIP != "" {
			attrs = append(attrs, slog.String("device_ip", event.Scan.DeviceIP))
		}
	case event.Error != nil:
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("stage", event.Error.Stage),
			slog.String("error", event.Error.Message),
		)
	}

	a.logger.LogAttrs(context.Background(), level, "proxy event", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
