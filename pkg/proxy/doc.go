// Package proxy implements the guest-scoped discovery-response proxy.
//
// The proxy owns one multicast socket on the guest segment and answers cast
// discovery queries on behalf of receivers that live on the isolated device
// segment. Each received datagram runs through a small pipeline:
//
//	filter -> authorize -> build -> send -> firewall
//
// The filter classifies the datagram as a cast PTR query; the authorizer
// maps the source address to a room via the pairing store (fail-closed);
// the device registry is filtered by that room; one answer packet per
// receiver is unicast back to the querying address; and for every receiver
// answered, a time-bounded firewall allow rule is requested so the cast
// session can cross the segment boundary.
//
// Every stage can end the flow early - irrelevant, unauthorized, no
// receivers - with no side effect beyond a log event. Replies are always
// unicast to the source address and port: a multicast reply would be
// visible to every guest on the segment regardless of pairing, which would
// defeat the authorization model entirely.
//
// Each datagram is handled on its own goroutine, so a slow store read for
// one query never delays a concurrent query from another guest. All side
// effects (response send, rule install) are idempotent, which makes
// duplicate queries and abandonment at shutdown safe.
package proxy
