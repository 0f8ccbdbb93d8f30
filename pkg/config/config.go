// Package config loads the daemon configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/guestcast/guestcast-go/pkg/castdns"
	"github.com/guestcast/guestcast-go/pkg/pairing"
	"github.com/guestcast/guestcast-go/pkg/proxy"
)

// Duration wraps time.Duration for YAML values like "2m" or "1h30m".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config is the daemon configuration.
type Config struct {
	// GuestInterface is the guest-segment interface the proxy listens on.
	GuestInterface string `yaml:"guest_interface"`

	// DeviceInterface is the device-segment interface the scanner
	// browses on. Empty disables the scanner.
	DeviceInterface string `yaml:"device_interface"`

	// PairingsFile is the pairing store path.
	PairingsFile string `yaml:"pairings_file"`

	// DevicesFile is the device registry path.
	DevicesFile string `yaml:"devices_file"`

	// LogFile, when set, captures proxy events to a CBOR event log.
	LogFile string `yaml:"log_file,omitempty"`

	// LogLevel is the console log level: debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`

	// APIAddress is the admin HTTP listen address. Empty disables the
	// API.
	APIAddress string `yaml:"api_address,omitempty"`

	// FirewallSet is the ipset name for allow rules. Empty disables
	// firewall integration.
	FirewallSet string `yaml:"firewall_set,omitempty"`

	// RecordTTL is the TTL on synthesized discovery records.
	RecordTTL Duration `yaml:"record_ttl,omitempty"`

	// RuleTTL is the firewall allow-rule lifetime.
	RuleTTL Duration `yaml:"rule_ttl,omitempty"`

	// PairingLifetime is the lifetime of new pairings.
	PairingLifetime Duration `yaml:"pairing_lifetime,omitempty"`

	// ReadTimeout bounds each per-query store and registry read.
	ReadTimeout Duration `yaml:"read_timeout,omitempty"`
}

// Default paths.
const (
	DefaultPairingsFile = "/var/lib/guestcast/pairings.json"
	DefaultDevicesFile  = "/var/lib/guestcast/devices.json"
)

// Default returns the configuration defaults applied before loading.
func Default() *Config {
	return &Config{
		PairingsFile:    DefaultPairingsFile,
		DevicesFile:     DefaultDevicesFile,
		LogLevel:        "info",
		RecordTTL:       Duration(castdns.RecordTTL),
		RuleTTL:         Duration(proxy.DefaultRuleTTL),
		PairingLifetime: Duration(pairing.DefaultLifetime),
		ReadTimeout:     Duration(proxy.DefaultReadTimeout),
	}
}

// Load reads and validates a YAML configuration file. Omitted keys keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates YAML configuration bytes.
func Parse(data []byte) (*Config, error) {
	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration for usability.
func (c *Config) Validate() error {
	if c.GuestInterface == "" {
		return fmt.Errorf("guest_interface is required")
	}
	if c.PairingsFile == "" {
		return fmt.Errorf("pairings_file is required")
	}
	if c.DevicesFile == "" {
		return fmt.Errorf("devices_file is required")
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if time.Duration(c.RecordTTL) < 0 {
		return fmt.Errorf("record_ttl must not be negative")
	}
	if time.Duration(c.RuleTTL) < 0 {
		return fmt.Errorf("rule_ttl must not be negative")
	}
	if time.Duration(c.PairingLifetime) < 0 {
		return fmt.Errorf("pairing_lifetime must not be negative")
	}
	if time.Duration(c.ReadTimeout) < 0 {
		return fmt.Errorf("read_timeout must not be negative")
	}
	return nil
}
