package proxy

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"golang.org/x/net/ipv4"

	"github.com/guestcast/guestcast-go/pkg/castdns"
)

// ListenerConfig configures the guest-segment multicast listener.
type ListenerConfig struct {
	// Interface is the guest-segment interface to join the multicast
	// group on (required). The listener never joins on the device
	// segment: receiving there would make the proxy answer its own
	// receivers' traffic.
	Interface *net.Interface

	// OnDatagram is called for each datagram received on the guest
	// interface (required). The sender argument unicasts replies back
	// out the same socket. The context is canceled when the listener
	// stops, cutting short any store reads still in flight.
	OnDatagram func(ctx context.Context, sender Sender, src *net.UDPAddr, packet []byte)
}

// Listener owns the guest-segment multicast socket. It joins the mDNS
// group on exactly one interface and dispatches each datagram to the
// configured handler on its own goroutine.
type Listener struct {
	config ListenerConfig
	conn   *ipv4.PacketConn
	udp    *net.UDPConn

	// State
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewListener creates a guest-segment listener.
func NewListener(config ListenerConfig) (*Listener, error) {
	if config.Interface == nil {
		return nil, fmt.Errorf("guest interface is required")
	}
	if config.OnDatagram == nil {
		return nil, fmt.Errorf("OnDatagram handler is required")
	}
	return &Listener{config: config}, nil
}

// Start joins the multicast group and begins the read loop.
func (l *Listener) Start(ctx context.Context) error {
	if l.running.Load() {
		return fmt.Errorf("listener already running")
	}

	l.ctx, l.cancel = context.WithCancel(ctx)

	group := net.ParseIP(castdns.MulticastGroup)
	udp, err := net.ListenUDP("udp4", &net.UDPAddr{
		IP:   group,
		Port: castdns.MulticastPort,
	})
	if err != nil {
		return fmt.Errorf("failed to listen on mdns port: %w", err)
	}

	conn := ipv4.NewPacketConn(udp)
	if err := conn.JoinGroup(l.config.Interface, &net.UDPAddr{IP: group}); err != nil {
		udp.Close()
		return fmt.Errorf("failed to join multicast group on %s: %w", l.config.Interface.Name, err)
	}
	// The OS may deliver group traffic arriving on other interfaces to
	// the same socket. The control message carries the receiving
	// interface index so the read loop can drop those.
	if err := conn.SetControlMessage(ipv4.FlagInterface, true); err != nil {
		udp.Close()
		return fmt.Errorf("failed to enable interface control message: %w", err)
	}

	l.udp = udp
	l.conn = conn
	l.running.Store(true)

	l.wg.Add(1)
	go l.readLoop()

	return nil
}

// Stop leaves the multicast group and closes the socket. In-flight
// datagram handlers are not waited for; their context is canceled and
// their side effects are idempotent.
func (l *Listener) Stop() error {
	if !l.running.Load() {
		return nil
	}

	l.running.Store(false)
	l.cancel()

	group := net.ParseIP(castdns.MulticastGroup)
	l.conn.LeaveGroup(l.config.Interface, &net.UDPAddr{IP: group})
	l.udp.Close()

	l.wg.Wait()

	return nil
}

// LocalAddr returns the socket's local address.
func (l *Listener) LocalAddr() net.Addr {
	if l.udp != nil {
		return l.udp.LocalAddr()
	}
	return nil
}

// SendTo unicasts a packet to a guest address. Safe for concurrent use.
func (l *Listener) SendTo(dst *net.UDPAddr, packet []byte) error {
	if _, err := l.conn.WriteTo(packet, nil, dst); err != nil {
		return fmt.Errorf("failed to send to %s: %w", dst, err)
	}
	return nil
}

// fromInterface reports whether the control message attributes a datagram
// to the joined interface. A missing control message is accepted; not
// every platform delivers one.
func (l *Listener) fromInterface(cm *ipv4.ControlMessage) bool {
	return cm == nil || cm.IfIndex == l.config.Interface.Index
}

// readLoop reads datagrams and dispatches them.
func (l *Listener) readLoop() {
	defer l.wg.Done()

	buf := make([]byte, castdns.MaxDatagramSize)
	for l.running.Load() {
		n, cm, addr, err := l.conn.ReadFrom(buf)
		if err != nil {
			// Socket closed during Stop, or transient; either way
			// re-check running and continue.
			continue
		}

		if !l.fromInterface(cm) {
			continue
		}

		src, ok := addr.(*net.UDPAddr)
		if !ok {
			continue
		}

		packet := make([]byte, n)
		copy(packet, buf[:n])

		go l.config.OnDatagram(l.ctx, l, src, packet)
	}
}
