// Package log provides structured event logging for the guest-cast proxy.
//
// This package defines the Logger interface and Event types for capturing
// proxy decisions: datagrams in and out, per-query authorization outcomes,
// synthesized responses, firewall installs and scanner observations. It is
// separate from operational logging (slog) - the event trace is a complete
// machine-readable record of who asked, what they were shown and why.
//
// # Basic Usage
//
// Components accept a Logger; nil or NoopLogger disables capture:
//
//	// For development: log to console via slog
//	cfg.Logger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.Logger, _ = log.NewFileLogger("/var/log/guestcast/proxy.clog")
//
//	// Both: use MultiLogger
//	cfg.Logger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # File Format
//
// Log files are a stream of CBOR-encoded events (integer map keys for
// compactness, .clog extension). Reader streams them back with optional
// filtering by category, guest address or time window.
package log
