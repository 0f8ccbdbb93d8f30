package registry

import (
	"context"
	"sync"
)

// MemStore is an in-memory WritableRegistry for tests and the interactive
// console. Safe for concurrent use.
type MemStore struct {
	mu      sync.RWMutex
	devices map[string]*Device

	// Err, when set, is returned by every read. Lets tests exercise the
	// fail-empty path for an unreadable registry.
	Err error
}

// NewMemStore creates an empty in-memory registry.
func NewMemStore() *MemStore {
	return &MemStore{devices: make(map[string]*Device)}
}

// ListByRoom returns devices whose room equals room exactly.
func (s *MemStore) ListByRoom(ctx context.Context, room string) ([]*Device, error) {
	if room == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Err != nil {
		return nil, s.Err
	}
	var matched []*Device
	for _, device := range s.devices {
		if device.Room == room {
			matched = append(matched, device)
		}
	}
	return matched, nil
}

// Upsert creates or refreshes a device keyed by UUID, preserving an
// existing room assignment when the incoming Room is empty.
func (s *MemStore) Upsert(ctx context.Context, device *Device) error {
	if device.UUID == "" {
		return ErrMissingUUID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := *device
	if existing, ok := s.devices[device.UUID]; ok && merged.Room == "" {
		merged.Room = existing.Room
	}
	s.devices[device.UUID] = &merged
	return nil
}

// AssignRoom sets (or clears) the room for a device.
func (s *MemStore) AssignRoom(ctx context.Context, uuid, room string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	device, ok := s.devices[uuid]
	if !ok {
		return ErrNotFound
	}
	device.Room = room
	return nil
}

// List returns all known devices.
func (s *MemStore) List(ctx context.Context) ([]*Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Err != nil {
		return nil, s.Err
	}
	devices := make([]*Device, 0, len(s.devices))
	for _, device := range s.devices {
		devices = append(devices, device)
	}
	return devices, nil
}

// Compile-time interface satisfaction check.
var _ WritableRegistry = (*MemStore)(nil)
