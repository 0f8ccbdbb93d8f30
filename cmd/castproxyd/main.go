// castproxyd is the guest-cast discovery proxy daemon.
//
// It listens for cast discovery queries on the guest network segment,
// answers them per-room for paired guests, and opens time-bounded firewall
// paths to the answered receivers. A scanner on the device segment keeps
// the receiver registry current, and an HTTP API serves pairing claims and
// operator administration.
//
// Usage:
//
//	# Run with a config file
//	castproxyd -config /etc/guestcast/config.yaml
//
//	# Run ad hoc with flags, interactive console for operator commands
//	castproxyd -guest-if eth1 -device-if eth2 -interactive
package main

import (
	"context"
	"flag"
	stdlog "log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guestcast/guestcast-go/cmd/castproxyd/interactive"
	"github.com/guestcast/guestcast-go/pkg/api"
	"github.com/guestcast/guestcast-go/pkg/config"
	"github.com/guestcast/guestcast-go/pkg/firewall"
	"github.com/guestcast/guestcast-go/pkg/log"
	"github.com/guestcast/guestcast-go/pkg/pairing"
	"github.com/guestcast/guestcast-go/pkg/proxy"
	"github.com/guestcast/guestcast-go/pkg/registry"
	"github.com/guestcast/guestcast-go/pkg/scanner"
)

var flags struct {
	ConfigFile  string
	GuestIf     string
	DeviceIf    string
	LogLevel    string
	Interactive bool
}

func init() {
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path")
	flag.StringVar(&flags.GuestIf, "guest-if", "", "Guest-segment interface (overrides config)")
	flag.StringVar(&flags.DeviceIf, "device-if", "", "Device-segment interface (overrides config)")
	flag.StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	flag.BoolVar(&flags.Interactive, "interactive", false, "Run the operator console")
}

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		stdlog.Fatalf("Invalid configuration: %v", err)
	}

	slogger := newSlogLogger(cfg.LogLevel)

	guestIface, err := net.InterfaceByName(cfg.GuestInterface)
	if err != nil {
		stdlog.Fatalf("Guest interface %s: %v", cfg.GuestInterface, err)
	}

	// Event logging: console always, CBOR event log when configured.
	loggers := []log.Logger{log.NewSlogAdapter(slogger)}
	var fileLogger *log.FileLogger
	if cfg.LogFile != "" {
		fileLogger, err = log.NewFileLogger(cfg.LogFile)
		if err != nil {
			stdlog.Fatalf("Event log %s: %v", cfg.LogFile, err)
		}
		defer fileLogger.Close()
		loggers = append(loggers, fileLogger)
	}
	eventLog := log.NewMultiLogger(loggers...)

	pairings := pairing.NewFileStore(cfg.PairingsFile)
	devices := registry.NewFileStore(cfg.DevicesFile)
	tokens := pairing.NewTokenIssuer(pairings)

	var rules firewall.Rules = firewall.NoopRules{}
	if cfg.FirewallSet != "" {
		rules = firewall.NewIPSetRules(cfg.FirewallSet)
	} else {
		slogger.Warn("no firewall_set configured, allow rules disabled")
	}

	core, err := proxy.New(proxy.Config{
		Pairings:    pairings,
		Devices:     devices,
		Rules:       rules,
		Logger:      eventLog,
		RecordTTL:   time.Duration(cfg.RecordTTL),
		RuleTTL:     time.Duration(cfg.RuleTTL),
		ReadTimeout: time.Duration(cfg.ReadTimeout),
	})
	if err != nil {
		stdlog.Fatalf("Failed to create proxy: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener, err := proxy.NewListener(proxy.ListenerConfig{
		Interface:  guestIface,
		OnDatagram: core.HandleDatagram,
	})
	if err != nil {
		stdlog.Fatalf("Failed to create listener: %v", err)
	}
	if err := listener.Start(ctx); err != nil {
		stdlog.Fatalf("Failed to start listener: %v", err)
	}
	defer listener.Stop()
	slogger.Info("listening for discovery queries",
		"interface", cfg.GuestInterface, "addr", listener.LocalAddr().String())

	if cfg.DeviceInterface != "" {
		scan, err := scanner.New(scanner.Config{
			Registry:  devices,
			Interface: cfg.DeviceInterface,
			Logger:    eventLog,
		})
		if err != nil {
			stdlog.Fatalf("Failed to create scanner: %v", err)
		}
		if err := scan.Start(ctx); err != nil {
			stdlog.Fatalf("Failed to start scanner: %v", err)
		}
		defer scan.Stop()
		slogger.Info("scanning for receivers", "interface", cfg.DeviceInterface)
	}

	if cfg.APIAddress != "" {
		apiServer, err := api.NewServer(api.Config{
			Address:         cfg.APIAddress,
			Pairings:        pairings,
			Devices:         devices,
			Tokens:          tokens,
			PairingLifetime: time.Duration(cfg.PairingLifetime),
		})
		if err != nil {
			stdlog.Fatalf("Failed to create API server: %v", err)
		}
		go func() {
			if err := apiServer.Start(); err != nil {
				slogger.Error("api server stopped", "error", err)
				cancel()
			}
		}()
		defer apiServer.Stop()
		slogger.Info("api listening", "addr", cfg.APIAddress)
	}

	if flags.Interactive {
		console, err := interactive.New(interactive.Config{
			Pairings:        pairings,
			Devices:         devices,
			Tokens:          tokens,
			PairingLifetime: time.Duration(cfg.PairingLifetime),
		})
		if err != nil {
			stdlog.Fatalf("Failed to create console: %v", err)
		}
		console.Run(ctx, cancel)
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		slogger.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
	}
}

// loadConfig merges the config file and flag overrides.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if flags.ConfigFile != "" {
		loaded, err := config.Load(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if flags.GuestIf != "" {
		cfg.GuestInterface = flags.GuestIf
	}
	if flags.DeviceIf != "" {
		cfg.DeviceInterface = flags.DeviceIf
	}
	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newSlogLogger(level string) *slog.Logger {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel}))
}
