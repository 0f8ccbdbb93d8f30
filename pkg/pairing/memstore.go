package pairing

import (
	"context"
	"sync"
)

// MemStore is an in-memory WritableStore for tests and the interactive
// console. Safe for concurrent use.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]*Record

	// Err, when set, is returned by every read. Lets tests exercise the
	// fail-closed path for an unreadable store.
	Err error
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string]*Record)}
}

// Lookup returns the pairing for the exact address.
func (s *MemStore) Lookup(ctx context.Context, guestAddress string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Err != nil {
		return nil, s.Err
	}
	record, ok := s.records[guestAddress]
	if !ok {
		return nil, ErrNotFound
	}
	return record, nil
}

// Put creates or replaces the pairing for record.GuestAddress.
func (s *MemStore) Put(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.GuestAddress] = record
	return nil
}

// Delete revokes the pairing for the address.
func (s *MemStore) Delete(ctx context.Context, guestAddress string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[guestAddress]; !ok {
		return ErrNotFound
	}
	delete(s.records, guestAddress)
	return nil
}

// List returns all pairings, expired ones included.
func (s *MemStore) List(ctx context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Err != nil {
		return nil, s.Err
	}
	records := make([]*Record, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}
	return records, nil
}

// Compile-time interface satisfaction check.
var _ WritableStore = (*MemStore)(nil)
