package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileVersion is the current version of the devices file format.
const FileVersion = 1

// devicesFile is the on-disk JSON layout.
type devicesFile struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Devices []*Device `json:"devices,omitempty"`
}

// FileStore persists devices to a JSON file, re-read per query so that
// externally written room assignments and discovery updates take effect
// immediately.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file store at path. The file is created lazily on
// the first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// ListByRoom returns devices whose room equals room exactly.
func (s *FileStore) ListByRoom(ctx context.Context, room string) ([]*Device, error) {
	if room == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return nil, err
	}

	var matched []*Device
	for _, device := range file.Devices {
		if device.Room == room {
			matched = append(matched, device)
		}
	}
	return matched, nil
}

// Upsert creates or refreshes a device keyed by UUID. An empty Room on the
// incoming device preserves the stored room assignment.
func (s *FileStore) Upsert(ctx context.Context, device *Device) error {
	if device.UUID == "" {
		return ErrMissingUUID
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}

	for i, existing := range file.Devices {
		if existing.UUID == device.UUID {
			merged := *device
			if merged.Room == "" {
				merged.Room = existing.Room
			}
			file.Devices[i] = &merged
			return s.save(file)
		}
	}

	file.Devices = append(file.Devices, device)
	return s.save(file)
}

// AssignRoom sets (or clears) the room for a device.
func (s *FileStore) AssignRoom(ctx context.Context, uuid, room string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}

	for _, existing := range file.Devices {
		if existing.UUID == uuid {
			existing.Room = room
			return s.save(file)
		}
	}
	return ErrNotFound
}

// List returns all known devices.
func (s *FileStore) List(ctx context.Context) ([]*Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return nil, err
	}
	return file.Devices, nil
}

// load reads the file. Missing file means empty registry.
func (s *FileStore) load() (*devicesFile, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &devicesFile{Version: FileVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	file := &devicesFile{}
	if err := json.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	return file, nil
}

func (s *FileStore) save(file *devicesFile) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	file.Version = FileVersion
	file.SavedAt = time.Now()

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// Compile-time interface satisfaction check.
var _ WritableRegistry = (*FileStore)(nil)
