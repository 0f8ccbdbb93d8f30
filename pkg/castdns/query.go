package castdns

import (
	"strings"

	"github.com/miekg/dns"
)

// DecodeQuery parses a raw datagram into a DNS query message.
//
// Returns ErrDecode if the datagram does not parse, and ErrNotQuery if it
// parses but carries the response bit (responders must never act on other
// responders' answers).
func DecodeQuery(packet []byte) (*dns.Msg, error) {
	msg := new(dns.Msg)
	if err := msg.Unpack(packet); err != nil {
		return nil, ErrDecode
	}
	if msg.Response {
		return nil, ErrNotQuery
	}
	return msg, nil
}

// MatchCastQuestion reports whether the query contains a question asking for
// the cast service, and returns the matched question.
//
// A question matches iff its type requests a pointer record (PTR or ANY)
// and its name equals the cast service type under case-insensitive label
// matching. Multi-question packets are supported: relevance is "any question
// matches", and only the matched question is acted on - unrelated questions
// in the same packet are ignored, not answered.
func MatchCastQuestion(msg *dns.Msg) (dns.Question, bool) {
	for _, q := range msg.Question {
		if q.Qtype != dns.TypePTR && q.Qtype != dns.TypeANY {
			continue
		}
		if nameEqualsCastService(q.Name) {
			return q, true
		}
	}
	return dns.Question{}, false
}

// nameEqualsCastService compares a queried name against the cast service
// type. DNS names compare case-insensitively, and queries may or may not
// carry the trailing root dot.
func nameEqualsCastService(name string) bool {
	return strings.EqualFold(dns.Fqdn(name), ServiceTypeCast)
}
