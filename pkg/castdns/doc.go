// Package castdns implements the mDNS/DNS-SD wire handling for the
// guest-cast discovery proxy.
//
// Guests discover receivers the same way they would on a flat network: by
// multicasting a PTR query for the cast service type. The proxy answers on
// their behalf, so this package covers both directions of the exchange:
//
// # Query classification
//
// A datagram is relevant iff it decodes as a DNS query and contains at least
// one PTR question for _googlecast._tcp.local (case-insensitive, standard
// label matching). Everything else - responses, other service types, other
// record types - is ignored.
//
// # Response synthesis
//
// For each receiver a guest is allowed to see, one self-contained response
// message is built: a PTR answer naming the synthesized service instance,
// plus TXT, SRV and A additionals describing it. The instance and host names
// are fingerprint-derived from the receiver's stable UUID (first 64 bits of
// SHA-256), so a receiver keeps the same advertised identity across renames,
// address changes and room reassignment.
//
// All records in a response share a short TTL (2 minutes by default) so that
// revoked pairings fall out of guest resolver caches quickly; pairing
// lifetime is enforced separately, at query time.
package castdns
