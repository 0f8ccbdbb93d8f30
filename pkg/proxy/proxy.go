package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/guestcast/guestcast-go/pkg/castdns"
	"github.com/guestcast/guestcast-go/pkg/firewall"
	"github.com/guestcast/guestcast-go/pkg/log"
	"github.com/guestcast/guestcast-go/pkg/pairing"
	"github.com/guestcast/guestcast-go/pkg/registry"
)

// Default tunables.
const (
	// DefaultRuleTTL is the firewall allow-rule lifetime. Independent
	// of, and longer than, the discovery record TTL: the guest needs
	// the path open for a cast session, not just for rediscovery.
	DefaultRuleTTL = 1 * time.Hour

	// DefaultReadTimeout bounds each pairing store or registry read.
	// A read that exceeds it is a read failure (fail-closed /
	// fail-empty), never an indefinite block.
	DefaultReadTimeout = 2 * time.Second
)

// Denial reasons recorded in decision events.
const (
	ReasonNoPairing  = "no-pairing"
	ReasonExpired    = "expired"
	ReasonStoreError = "store-error"
)

// Sender sends a unicast datagram back to a guest.
// The multicast listener implements it; tests substitute a capture.
type Sender interface {
	SendTo(dst *net.UDPAddr, packet []byte) error
}

// Config configures the proxy core.
type Config struct {
	// Pairings is the guest->room authorization view (required).
	Pairings pairing.Store

	// Devices is the receiver registry view (required).
	Devices registry.Registry

	// Rules is the firewall capability. Nil means no firewall
	// integration (NoopRules).
	Rules firewall.Rules

	// Logger receives proxy events (optional).
	Logger log.Logger

	// RecordTTL is the TTL for synthesized records.
	// Zero means castdns.RecordTTL.
	RecordTTL time.Duration

	// RuleTTL is the firewall allow-rule lifetime.
	// Zero means DefaultRuleTTL.
	RuleTTL time.Duration

	// ReadTimeout bounds store and registry reads.
	// Zero means DefaultReadTimeout.
	ReadTimeout time.Duration
}

// Proxy is the discovery-response pipeline. It holds no per-guest state:
// both stores are read fresh on every query, so revocations and room
// changes take effect on the next query with no cache to invalidate.
type Proxy struct {
	pairings pairing.Store
	devices  registry.Registry
	rules    firewall.Rules
	logger   log.Logger

	recordTTL   time.Duration
	ruleTTL     time.Duration
	readTimeout time.Duration

	now func() time.Time
}

// New creates a proxy core.
func New(config Config) (*Proxy, error) {
	if config.Pairings == nil {
		return nil, fmt.Errorf("pairing store is required")
	}
	if config.Devices == nil {
		return nil, fmt.Errorf("device registry is required")
	}

	p := &Proxy{
		pairings:    config.Pairings,
		devices:     config.Devices,
		rules:       config.Rules,
		logger:      config.Logger,
		recordTTL:   config.RecordTTL,
		ruleTTL:     config.RuleTTL,
		readTimeout: config.ReadTimeout,
		now:         time.Now,
	}
	if p.rules == nil {
		p.rules = firewall.NoopRules{}
	}
	if p.logger == nil {
		p.logger = log.NoopLogger{}
	}
	if p.recordTTL <= 0 {
		p.recordTTL = castdns.RecordTTL
	}
	if p.ruleTTL <= 0 {
		p.ruleTTL = DefaultRuleTTL
	}
	if p.readTimeout <= 0 {
		p.readTimeout = DefaultReadTimeout
	}
	return p, nil
}

// HandleDatagram processes one datagram received from src and unicasts any
// answers via sender. Designed to run as an independent unit of work, one
// goroutine per datagram; it never panics on malformed input and its only
// side effects are idempotent sends and rule installs.
func (p *Proxy) HandleDatagram(ctx context.Context, sender Sender, src *net.UDPAddr, packet []byte) {
	msg, err := castdns.DecodeQuery(packet)
	if err != nil {
		if errors.Is(err, castdns.ErrDecode) {
			p.logError("decode", src.String(), err)
		}
		// Responses from other responders are normal mDNS traffic,
		// not worth a diagnostic.
		return
	}

	_, relevant := castdns.MatchCastQuestion(msg)
	p.logDatagram(src.String(), len(packet), relevant)
	if !relevant {
		return
	}

	guestIP := src.IP.To4()
	if guestIP == nil {
		// mDNS over IPv6 is out of scope for the guest segment.
		return
	}
	guestAddr := guestIP.String()

	room, reason := p.authorize(ctx, guestAddr)
	if room == "" {
		p.logDecision(guestAddr, "", false, reason, 0)
		return
	}

	devices := p.listRoom(ctx, room)
	p.logDecision(guestAddr, room, true, "", len(devices))
	if len(devices) == 0 {
		// An authorized guest in a room with no receivers gets
		// silence, not an error.
		return
	}

	for _, device := range devices {
		p.answerDevice(ctx, sender, src, guestAddr, room, device)
	}
}

// authorize maps a guest address to its authorized room, or "" with a
// denial reason. Fail-closed: any inability to positively confirm
// authorization - absent record, expired record, unreadable store, slow
// store - is a denial.
func (p *Proxy) authorize(ctx context.Context, guestAddr string) (room, reason string) {
	record, err := p.lookupPairing(ctx, guestAddr)
	switch {
	case errors.Is(err, pairing.ErrNotFound):
		return "", ReasonNoPairing
	case err != nil:
		p.logError("store", guestAddr, err)
		return "", ReasonStoreError
	}

	if !record.ActiveAt(p.now()) {
		return "", ReasonExpired
	}
	return record.Room, ""
}

// lookupPairing runs the store read under the read timeout. The select
// enforces the bound even against a store implementation that ignores
// context cancellation: the straggling read finishes on its own goroutine
// and its result is discarded.
func (p *Proxy) lookupPairing(ctx context.Context, guestAddr string) (*pairing.Record, error) {
	readCtx, cancel := context.WithTimeout(ctx, p.readTimeout)
	defer cancel()

	type result struct {
		record *pairing.Record
		err    error
	}
	done := make(chan result, 1)
	go func() {
		record, err := p.pairings.Lookup(readCtx, guestAddr)
		done <- result{record, err}
	}()

	select {
	case r := <-done:
		return r.record, r.err
	case <-readCtx.Done():
		return nil, readCtx.Err()
	}
}

// listRoom returns the receivers assigned to the room. An unreadable or
// slow registry is zero receivers, logged but never escalated.
func (p *Proxy) listRoom(ctx context.Context, room string) []*registry.Device {
	readCtx, cancel := context.WithTimeout(ctx, p.readTimeout)
	defer cancel()

	type result struct {
		devices []*registry.Device
		err     error
	}
	done := make(chan result, 1)
	go func() {
		devices, err := p.devices.ListByRoom(readCtx, room)
		done <- result{devices, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			p.logError("registry", room, r.err)
			return nil
		}
		return r.devices
	case <-readCtx.Done():
		p.logError("registry", room, readCtx.Err())
		return nil
	}
}

// answerDevice builds, sends and firewall-syncs one receiver's answer.
//
// The answer send and the rule install are deliberately two independent
// best-effort actions: a firewall failure is logged but never retracts the
// answer already sent, and a send failure does not suppress the rule for a
// guest that may have cached an earlier answer. Guests re-query within the
// record TTL, which bounds any inconsistency window.
func (p *Proxy) answerDevice(ctx context.Context, sender Sender, dst *net.UDPAddr, guestAddr, room string, device *registry.Device) {
	info := &castdns.ReceiverInfo{
		UUID:         device.UUID,
		FriendlyName: device.FriendlyName,
		Model:        device.Model,
		IP:           net.ParseIP(device.IP),
		Port:         device.Port,
	}

	msg, err := castdns.BuildResponse(info, p.recordTTL)
	if err != nil {
		p.logError("build", device.UUID, err)
		return
	}
	packet, err := msg.Pack()
	if err != nil {
		p.logError("build", device.UUID, err)
		return
	}

	if err := sender.SendTo(dst, packet); err != nil {
		// No retry: the guest's natural re-query cadence covers it.
		p.logError("send", guestAddr, err)
	} else {
		p.logResponse(dst.String(), room, device, len(packet))
	}

	p.syncFirewall(ctx, guestAddr, room, device)
}

// syncFirewall requests the time-bounded allow rule for one answered
// (guest, device) pair. Removal on expiry belongs to the rule store; this
// never tracks timers.
func (p *Proxy) syncFirewall(ctx context.Context, guestAddr, room string, device *registry.Device) {
	err := p.rules.Allow(ctx, guestAddr, device.IP, p.ruleTTL)

	event := log.NewEvent(log.CategoryFirewall)
	event.GuestAddr = guestAddr
	event.Room = room
	event.DeviceUUID = device.UUID
	event.Firewall = &log.FirewallEvent{
		DeviceIP:   device.IP,
		TTLSeconds: int(p.ruleTTL / time.Second),
		Failed:     err != nil,
	}
	p.logger.Log(event)
}

func (p *Proxy) logDatagram(src string, size int, relevant bool) {
	event := log.NewEvent(log.CategoryDatagram)
	event.Direction = log.DirectionIn
	event.GuestAddr = src
	event.Datagram = &log.DatagramEvent{Size: size, Relevant: relevant}
	p.logger.Log(event)
}

func (p *Proxy) logDecision(guestAddr, room string, authorized bool, reason string, devices int) {
	event := log.NewEvent(log.CategoryDecision)
	event.GuestAddr = guestAddr
	event.Room = room
	event.Decision = &log.DecisionEvent{Authorized: authorized, Reason: reason, Devices: devices}
	p.logger.Log(event)
}

func (p *Proxy) logResponse(dst, room string, device *registry.Device, size int) {
	port := device.Port
	if port == 0 {
		port = castdns.DefaultCastPort
	}
	event := log.NewEvent(log.CategoryResponse)
	event.Direction = log.DirectionOut
	event.GuestAddr = dst
	event.Room = room
	event.DeviceUUID = device.UUID
	event.Response = &log.ResponseEvent{
		Instance: castdns.InstanceName(device.UUID),
		DeviceIP: device.IP,
		Port:     port,
	}
	p.logger.Log(event)
}

func (p *Proxy) logError(stage, subject string, err error) {
	event := log.NewEvent(log.CategoryError)
	event.GuestAddr = subject
	event.Error = &log.ErrorEventData{Stage: stage, Message: err.Error()}
	p.logger.Log(event)
}
