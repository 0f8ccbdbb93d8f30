// Package scanner watches the device segment for cast receivers and keeps
// the registry current. It is the only component that talks mDNS on the
// device segment; the proxy itself never queries receivers directly.
package scanner

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/enbility/zeroconf/v3"
	"github.com/google/uuid"

	"github.com/guestcast/guestcast-go/pkg/castdns"
	"github.com/guestcast/guestcast-go/pkg/log"
	"github.com/guestcast/guestcast-go/pkg/registry"
)

// browseService is the service type in the form zeroconf expects, without
// the domain suffix.
const browseService = "_googlecast._tcp"

// browseFunc matches zeroconf.Browse; tests substitute a failing browse.
type browseFunc func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry, removed chan<- *zeroconf.ServiceEntry, opts ...zeroconf.ClientOption) error

// Config configures the device-segment scanner.
type Config struct {
	// Registry receives discovered receivers (required). Upserts
	// preserve operator room assignments.
	Registry registry.WritableRegistry

	// Interface is the device-segment interface name to browse on.
	// Empty means all interfaces; production deployments should pin it.
	Interface string

	// Logger receives scan events (optional).
	Logger log.Logger
}

// Scanner browses the device segment for cast receivers and upserts them
// into the registry as they announce themselves.
type Scanner struct {
	config Config
	logger log.Logger
	browse browseFunc

	seen   map[string]struct{}
	seenMu sync.Mutex

	// State
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a scanner.
func New(config Config) (*Scanner, error) {
	if config.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Scanner{
		config: config,
		logger: logger,
		browse: zeroconf.Browse,
		seen:   make(map[string]struct{}),
	}, nil
}

// Start begins browsing. Discovered receivers flow into the registry until
// Stop or context cancellation.
func (s *Scanner) Start(ctx context.Context) error {
	if s.running.Load() {
		return fmt.Errorf("scanner already running")
	}

	opts, err := s.browserOptions()
	if err != nil {
		return err
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running.Store(true)

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	s.wg.Add(1)
	go s.consume(entries, removed)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.browse(s.ctx, browseService, strings.TrimSuffix(castdns.Domain, "."), entries, removed, opts...)
		if err != nil && s.ctx.Err() == nil {
			// The browser died while we still wanted it. The registry
			// just stops getting updates; say so instead of going quiet.
			s.logError(s.config.Interface, err)
		}
	}()

	return nil
}

// Stop stops browsing. Already-registered receivers stay in the registry;
// presence decay is the operator's call, not the scanner's.
func (s *Scanner) Stop() error {
	if !s.running.Load() {
		return nil
	}

	s.running.Store(false)
	s.cancel()
	s.wg.Wait()

	return nil
}

// browserOptions pins browsing to the configured interface. A configured
// interface that does not exist is a startup error, not something to
// silently browse around.
func (s *Scanner) browserOptions() ([]zeroconf.ClientOption, error) {
	var opts []zeroconf.ClientOption

	if s.config.Interface != "" {
		iface, err := net.InterfaceByName(s.config.Interface)
		if err != nil {
			return nil, fmt.Errorf("device interface %s: %w", s.config.Interface, err)
		}
		opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
	}

	return opts, nil
}

// consume drains browse results into the registry.
func (s *Scanner) consume(entries, removed <-chan *zeroconf.ServiceEntry) {
	defer s.wg.Done()

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return
			}
			s.handleEntry(entry)

		case <-removed:
			// A receiver going quiet is not evidence it is gone; it
			// stays registered until the operator removes it.

		case <-s.ctx.Done():
			return
		}
	}
}

// handleEntry converts one announcement and upserts it.
func (s *Scanner) handleEntry(entry *zeroconf.ServiceEntry) {
	device := EntryToDevice(entry)
	if device == nil {
		return
	}

	device.LastSeen = time.Now()
	if err := s.config.Registry.Upsert(s.ctx, device); err != nil {
		s.logError(device.UUID, err)
		return
	}

	s.seenMu.Lock()
	_, known := s.seen[device.UUID]
	s.seen[device.UUID] = struct{}{}
	s.seenMu.Unlock()

	s.logScan(entry.Instance, device, !known)
}

// EntryToDevice converts a browse announcement into a registry device.
// Returns nil when the entry carries no usable identity or address.
//
// The receiver's own UUID comes from the id TXT key (dashless hex).
// Announcements without it get an identity derived from the instance name,
// so a receiver with a stripped-down TXT record is still registrable.
func EntryToDevice(entry *zeroconf.ServiceEntry) *registry.Device {
	if entry == nil || len(entry.AddrIPv4) == 0 {
		return nil
	}

	txt := castdns.StringsToTXTRecords(entry.Text)

	id := normalizeReceiverID(txt[castdns.TXTKeyID])
	if id == "" {
		if entry.Instance == "" {
			return nil
		}
		id = uuid.NewSHA1(uuid.NameSpaceDNS, []byte(strings.ToLower(entry.Instance))).String()
	}

	name := txt[castdns.TXTKeyFriendlyName]
	if name == "" {
		name = entry.Instance
	}

	return &registry.Device{
		UUID:         id,
		FriendlyName: name,
		Model:        txt[castdns.TXTKeyModel],
		IP:           entry.AddrIPv4[0].String(),
		Port:         uint16(entry.Port),
	}
}

// normalizeReceiverID parses the 32-hex-char dashless id TXT value into
// canonical dashed UUID form. Returns "" for anything else.
func normalizeReceiverID(id string) string {
	parsed, err := uuid.Parse(strings.ToLower(id))
	if err != nil {
		return ""
	}
	return parsed.String()
}

func (s *Scanner) logScan(instance string, device *registry.Device, isNew bool) {
	event := log.NewEvent(log.CategoryScan)
	event.DeviceUUID = device.UUID
	event.Scan = &log.ScanEvent{
		Instance: instance,
		DeviceIP: device.IP,
		New:      isNew,
	}
	s.logger.Log(event)
}

func (s *Scanner) logError(subject string, err error) {
	event := log.NewEvent(log.CategoryError)
	event.DeviceUUID = subject
	event.Error = &log.ErrorEventData{Stage: "scan", Message: err.Error()}
	s.logger.Log(event)
}
