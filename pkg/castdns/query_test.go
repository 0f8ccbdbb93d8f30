package castdns

import (
	"testing"

	"github.com/miekg/dns"
)

func packQuery(t *testing.T, questions ...dns.Question) []byte {
	t.Helper()
	msg := new(dns.Msg)
	msg.Question = questions
	packet, err := msg.Pack()
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	return packet
}

func TestDecodeQuery(t *testing.T) {
	packet := packQuery(t, dns.Question{
		Name:   ServiceTypeCast,
		Qtype:  dns.TypePTR,
		Qclass: dns.ClassINET,
	})

	msg, err := DecodeQuery(packet)
	if err != nil {
		t.Fatalf("DecodeQuery() error = %v", err)
	}
	if len(msg.Question) != 1 {
		t.Errorf("Question count = %d, want 1", len(msg.Question))
	}
}

func TestDecodeQueryMalformed(t *testing.T) {
	tests := []struct {
		name   string
		packet []byte
	}{
		{name: "Empty", packet: nil},
		{name: "Truncated", packet: []byte{0x00, 0x01, 0x02}},
		{name: "Garbage", packet: []byte("this is not a dns message at all")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeQuery(tt.packet); err != ErrDecode {
				t.Errorf("DecodeQuery() error = %v, want ErrDecode", err)
			}
		})
	}
}

func TestDecodeQueryRejectsResponses(t *testing.T) {
	msg := new(dns.Msg)
	msg.Response = true
	packet, err := msg.Pack()
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}

	if _, err := DecodeQuery(packet); err != ErrNotQuery {
		t.Errorf("DecodeQuery() error = %v, want ErrNotQuery", err)
	}
}

func TestMatchCastQuestion(t *testing.T) {
	tests := []struct {
		name      string
		questions []dns.Question
		want      bool
	}{
		{
			name: "ExactMatch",
			questions: []dns.Question{
				{Name: "_googlecast._tcp.local.", Qtype: dns.TypePTR, Qclass: dns.ClassINET},
			},
			want: true,
		},
		{
			name: "CaseInsensitive",
			questions: []dns.Question{
				{Name: "_GoogleCast._TCP.Local.", Qtype: dns.TypePTR, Qclass: dns.ClassINET},
			},
			want: true,
		},
		{
			name: "MissingRootDot",
			questions: []dns.Question{
				{Name: "_googlecast._tcp.local", Qtype: dns.TypePTR, Qclass: dns.ClassINET},
			},
			want: true,
		},
		{
			name: "AnyType",
			questions: []dns.Question{
				{Name: "_googlecast._tcp.local.", Qtype: dns.TypeANY, Qclass: dns.ClassINET},
			},
			want: true,
		},
		{
			name: "WrongType",
			questions: []dns.Question{
				{Name: "_googlecast._tcp.local.", Qtype: dns.TypeA, Qclass: dns.ClassINET},
			},
			want: false,
		},
		{
			name: "WrongService",
			questions: []dns.Question{
				{Name: "_airplay._tcp.local.", Qtype: dns.TypePTR, Qclass: dns.ClassINET},
			},
			want: false,
		},
		{
			name: "SubdomainDoesNotMatch",
			questions: []dns.Question{
				{Name: "x._googlecast._tcp.local.", Qtype: dns.TypePTR, Qclass: dns.ClassINET},
			},
			want: false,
		},
		{
			name:      "NoQuestions",
			questions: nil,
			want:      false,
		},
		{
			name: "MultiQuestionAnyMatches",
			questions: []dns.Question{
				{Name: "_ipp._tcp.local.", Qtype: dns.TypePTR, Qclass: dns.ClassINET},
				{Name: "_googlecast._tcp.local.", Qtype: dns.TypePTR, Qclass: dns.ClassINET},
				{Name: "host.local.", Qtype: dns.TypeA, Qclass: dns.ClassINET},
			},
			want: true,
		},
		{
			name: "MultiQuestionNoneMatches",
			questions: []dns.Question{
				{Name: "_ipp._tcp.local.", Qtype: dns.TypePTR, Qclass: dns.ClassINET},
				{Name: "_airplay._tcp.local.", Qtype: dns.TypePTR, Qclass: dns.ClassINET},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := new(dns.Msg)
			msg.Question = tt.questions

			q, got := MatchCastQuestion(msg)
			if got != tt.want {
				t.Fatalf("MatchCastQuestion() = %v, want %v", got, tt.want)
			}
			if got && !nameEqualsCastService(q.Name) {
				t.Errorf("matched question name = %q, want cast service", q.Name)
			}
		})
	}
}
