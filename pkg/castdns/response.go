package castdns

import (
	"net"
	"time"

	"github.com/miekg/dns"
)

// ReceiverInfo describes one receiver for response synthesis.
type ReceiverInfo struct {
	// UUID is the receiver's stable identity. The advertised instance
	// and host names are derived from it and from nothing else.
	UUID string

	// FriendlyName is the user-visible receiver name.
	FriendlyName string

	// Model is the receiver model string (optional).
	Model string

	// IP is the receiver's device-segment IPv4 address.
	IP net.IP

	// Port is the receiver control port. Zero means DefaultCastPort.
	Port uint16
}

// classCacheFlush marks a record as a member of a unique record set
// (RFC 6762 section 10.2). Set on TXT/SRV/A additionals, not on the shared
// PTR answer.
const classCacheFlush = dns.ClassINET | 1<<15

// BuildResponse constructs one self-contained answer message for a receiver:
// a PTR answer naming the synthesized instance, plus TXT, SRV and A
// additionals. All records share ttl.
//
// The message carries the authoritative response bits of an unsolicited mDNS
// answer and echoes no question. One message is built per receiver; callers
// send one packet per receiver rather than batching, which bounds datagram
// size regardless of how many receivers share a room.
func BuildResponse(info *ReceiverInfo, ttl time.Duration) (*dns.Msg, error) {
	ip := info.IP.To4()
	if ip == nil {
		return nil, ErrNoAddress
	}

	port := info.Port
	if port == 0 {
		port = DefaultCastPort
	}

	instance := InstanceFQDN(info.UUID)
	host := HostFQDN(info.UUID)
	ttlSecs := uint32(ttl / time.Second)

	msg := new(dns.Msg)
	msg.Response = true
	msg.Authoritative = true
	msg.Compress = true

	msg.Answer = []dns.RR{
		&dns.PTR{
			Hdr: dns.RR_Header{
				Name:   ServiceTypeCast,
				Rrtype: dns.TypePTR,
				Class:  dns.ClassINET,
				Ttl:    ttlSecs,
			},
			Ptr: instance,
		},
	}

	msg.Extra = []dns.RR{
		&dns.TXT{
			Hdr: dns.RR_Header{
				Name:   instance,
				Rrtype: dns.TypeTXT,
				Class:  classCacheFlush,
				Ttl:    ttlSecs,
			},
			Txt: TXTRecordsToStrings(EncodeReceiverTXT(info)),
		},
		&dns.SRV{
			Hdr: dns.RR_Header{
				Name:   instance,
				Rrtype: dns.TypeSRV,
				Class:  classCacheFlush,
				Ttl:    ttlSecs,
			},
			Priority: 0,
			Weight:   0,
			Port:     port,
			Target:   host,
		},
		&dns.A{
			Hdr: dns.RR_Header{
				Name:   host,
				Rrtype: dns.TypeA,
				Class:  classCacheFlush,
				Ttl:    ttlSecs,
			},
			A: ip,
		},
	}

	return msg, nil
}
