// Package pairing defines the guest pairing records that authorize casting.
//
// A pairing binds one guest IPv4 address to one room for a bounded time.
// The proxy core only ever reads pairings - records are created and revoked
// by the pairing surface (HTTP API or admin console) - and every read is a
// fresh snapshot: expiry is evaluated at lookup time, never by background
// eviction, so a stale record behaves exactly like an absent one.
//
// The file-backed store re-reads its JSON file on every lookup because the
// file is externally mutated; no in-process cache is authoritative.
// Any failure to read the store resolves to "absent", which keeps the
// authorization model fail-closed.
package pairing
