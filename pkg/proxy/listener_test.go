package proxy

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/ipv4"

	"github.com/guestcast/guestcast-go/pkg/castdns"
)

// loopbackInterface finds a usable loopback interface, skipping the test
// when the environment has none.
func loopbackInterface(t *testing.T) *net.Interface {
	t.Helper()
	ifaces, err := net.Interfaces()
	require.NoError(t, err)
	for i := range ifaces {
		if ifaces[i].Flags&net.FlagLoopback != 0 && ifaces[i].Flags&net.FlagUp != 0 {
			return &ifaces[i]
		}
	}
	t.Skip("no loopback interface available")
	return nil
}

func discardDatagrams(context.Context, Sender, *net.UDPAddr, []byte) {}

func TestNewListenerValidation(t *testing.T) {
	_, err := NewListener(ListenerConfig{OnDatagram: discardDatagrams})
	assert.Error(t, err, "interface is required")

	_, err = NewListener(ListenerConfig{Interface: &net.Interface{Index: 1}})
	assert.Error(t, err, "handler is required")
}

func TestListenerLifecycle(t *testing.T) {
	iface := loopbackInterface(t)
	listener, err := NewListener(ListenerConfig{Interface: iface, OnDatagram: discardDatagrams})
	require.NoError(t, err)

	assert.NoError(t, listener.Stop(), "stopping before start is a no-op")
	assert.Nil(t, listener.LocalAddr())

	if err := listener.Start(context.Background()); err != nil {
		t.Skipf("multicast socket unavailable: %v", err)
	}
	defer listener.Stop()

	assert.Error(t, listener.Start(context.Background()), "second start must be rejected")
	require.NotNil(t, listener.LocalAddr())

	require.NoError(t, listener.Stop())
	assert.NoError(t, listener.Stop(), "repeated stop is a no-op")
}

func TestListenerFiltersForeignInterfaces(t *testing.T) {
	listener, err := NewListener(ListenerConfig{
		Interface:  &net.Interface{Index: 7, Name: "guest0"},
		OnDatagram: discardDatagrams,
	})
	require.NoError(t, err)

	assert.True(t, listener.fromInterface(nil))
	assert.True(t, listener.fromInterface(&ipv4.ControlMessage{IfIndex: 7}))
	assert.False(t, listener.fromInterface(&ipv4.ControlMessage{IfIndex: 8}),
		"group traffic arriving on another interface must be dropped")
}

func TestListenerSendToUnicasts(t *testing.T) {
	iface := loopbackInterface(t)
	listener, err := NewListener(ListenerConfig{Interface: iface, OnDatagram: discardDatagrams})
	require.NoError(t, err)
	if err := listener.Start(context.Background()); err != nil {
		t.Skipf("multicast socket unavailable: %v", err)
	}
	defer listener.Stop()

	receiver, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer receiver.Close()

	payload := []byte("answer")
	require.NoError(t, listener.SendTo(receiver.LocalAddr().(*net.UDPAddr), payload))

	require.NoError(t, receiver.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 64)
	n, _, err := receiver.ReadFromUDP(buf)
	require.NoError(t, err)
	assert.Equal(t, payload, buf[:n])
}

func TestListenerDispatchesDatagrams(t *testing.T) {
	iface := loopbackInterface(t)

	type dispatched struct {
		ctx    context.Context
		src    *net.UDPAddr
		packet []byte
	}
	received := make(chan dispatched, 1)

	listener, err := NewListener(ListenerConfig{
		Interface: iface,
		OnDatagram: func(ctx context.Context, sender Sender, src *net.UDPAddr, packet []byte) {
			select {
			case received <- dispatched{ctx: ctx, src: src, packet: packet}:
			default:
			}
		},
	})
	require.NoError(t, err)

	if err := listener.Start(context.Background()); err != nil {
		t.Skipf("multicast socket unavailable: %v", err)
	}

	sender, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer sender.Close()

	senderConn := ipv4.NewPacketConn(sender)
	require.NoError(t, senderConn.SetMulticastInterface(iface))
	require.NoError(t, senderConn.SetMulticastLoopback(true))

	group := &net.UDPAddr{IP: net.ParseIP(castdns.MulticastGroup), Port: castdns.MulticastPort}
	payload := []byte("query")
	_, err = sender.WriteToUDP(payload, group)
	require.NoError(t, err)

	select {
	case got := <-received:
		assert.Equal(t, payload, got.packet)
		require.NotNil(t, got.src)
		assert.NoError(t, got.ctx.Err(), "handler context must be live while running")

		require.NoError(t, listener.Stop())
		assert.Error(t, got.ctx.Err(), "stop must cancel the handler context")
	case <-time.After(2 * time.Second):
		listener.Stop()
		t.Skip("multicast loopback not delivered in this environment")
	}
}
