// Package registry holds the known cast receivers and their room
// assignments.
//
// Receivers are discovered on the device segment (see pkg/scanner) and
// assigned to rooms by an operator; the proxy core only reads the registry,
// filtered by room, when answering an authorized guest. The UUID is the
// dedup key: discovery upserts refresh a receiver's address, name and
// last-seen time but never clobber an operator-assigned room unless the
// write explicitly supplies one.
//
// Like the pairing store, the file-backed registry re-reads its JSON file on
// every read - the file is shared with the discovery subsystem and an
// unreadable registry simply means zero receivers.
package registry
