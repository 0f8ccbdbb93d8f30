package pairing

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileVersion is the current version of the pairings file format.
const FileVersion = 1

// pairingsFile is the on-disk JSON layout.
type pairingsFile struct {
	Version  int       `json:"version"`
	SavedAt  time.Time `json:"saved_at"`
	Pairings []*Record `json:"pairings,omitempty"`
}

// FileStore persists pairings to a JSON file.
//
// The file is shared state: the pairing API writes it and the proxy reads
// it, possibly from separate processes. Every Lookup re-reads the file so
// revocations take effect on the very next query; staleness is bounded by
// the filesystem, not by proxy-held memory.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file store at path. The file is created lazily on
// the first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Lookup reads the file and returns the pairing for the exact address.
//
// A missing file is an empty store (ErrNotFound); an unreadable or corrupt
// file is ErrStoreUnavailable. Both resolve to "unauthorized" upstream.
func (s *FileStore) Lookup(ctx context.Context, guestAddress string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return nil, err
	}

	for _, record := range file.Pairings {
		if record.GuestAddress == guestAddress {
			return record, nil
		}
	}
	return nil, ErrNotFound
}

// Put creates or replaces the pairing for record.GuestAddress.
func (s *FileStore) Put(ctx context.Context, record *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range file.Pairings {
		if existing.GuestAddress == record.GuestAddress {
			file.Pairings[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		file.Pairings = append(file.Pairings, record)
	}

	return s.save(file)
}

// Delete revokes the pairing for the address.
func (s *FileStore) Delete(ctx context.Context, guestAddress string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}

	for i, existing := range file.Pairings {
		if existing.GuestAddress == guestAddress {
			file.Pairings = append(file.Pairings[:i], file.Pairings[i+1:]...)
			return s.save(file)
		}
	}
	return ErrNotFound
}

// List returns all pairings, expired ones included.
func (s *FileStore) List(ctx context.Context) ([]*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return nil, err
	}
	return file.Pairings, nil
}

// load reads the file. Missing file means empty store.
func (s *FileStore) load() (*pairingsFile, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &pairingsFile{Version: FileVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	file := &pairingsFile{}
	if err := json.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return file, nil
}

func (s *FileStore) save(file *pairingsFile) error {
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
var _ WritableStore = (*FileStore)(nil)
