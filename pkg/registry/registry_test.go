package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// storeFactory lets the same contract tests run against both registry
// implementations.
type storeFactory func(t *testing.T) WritableRegistry

func factories() map[string]storeFactory {
	return map[string]storeFactory{
		"MemStore": func(t *testing.T) WritableRegistry {
			return NewMemStore()
		},
		"FileStore": func(t *testing.T) WritableRegistry {
			return NewFileStore(filepath.Join(t.TempDir(), "devices.json"))
		},
	}
}

func TestListByRoomExactMatch(t *testing.T) {
	for name, factory := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)

			devices := []*Device{
				{UUID: "a", FriendlyName: "TV A", IP: "10.0.30.9", Room: "101"},
				{UUID: "b", FriendlyName: "TV B", IP: "10.0.30.10", Room: "101"},
				{UUID: "c", FriendlyName: "TV C", IP: "10.0.30.11", Room: "102"},
				{UUID: "d", FriendlyName: "TV D", IP: "10.0.30.12", Room: "1011"},
				{UUID: "e", FriendlyName: "TV E", IP: "10.0.30.13"},
			}
			for _, device := range devices {
				if err := store.Upsert(ctx, device); err != nil {
					t.Fatalf("Upsert(%s) error = %v", device.UUID, err)
				}
			}

			matched, err := store.ListByRoom(ctx, "101")
			if err != nil {
				t.Fatalf("ListByRoom() error = %v", err)
			}
			if len(matched) != 2 {
				t.Fatalf("ListByRoom(101) count = %d, want 2", len(matched))
			}
			for _, device := range matched {
				if device.Room != "101" {
					t.Errorf("matched device %s in room %q, want 101", device.UUID, device.Room)
				}
			}
		})
	}
}

func TestListByRoomEmptyRoomNeverMatches(t *testing.T) {
	for name, factory := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)

			// An unassigned device must not leak via an empty-room query.
			if err := store.Upsert(ctx, &Device{UUID: "a", IP: "10.0.30.9"}); err != nil {
				t.Fatal(err)
			}

			matched, err := store.ListByRoom(ctx, "")
			if err != nil {
				t.Fatalf("ListByRoom(\"\") error = %v", err)
			}
			if len(matched) != 0 {
				t.Errorf("ListByRoom(\"\") count = %d, want 0", len(matched))
			}
		})
	}
}

func TestUpsertPreservesAssignedRoom(t *testing.T) {
	for name, factory := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)

			if err := store.Upsert(ctx, &Device{UUID: "a", FriendlyName: "TV", IP: "10.0.30.9", Room: "101"}); err != nil {
				t.Fatal(err)
			}

			// Discovery refresh with no room must not clobber the assignment.
			if err := store.Upsert(ctx, &Device{UUID: "a", FriendlyName: "TV renamed", IP: "10.0.30.44"}); err != nil {
				t.Fatal(err)
			}

			matched, err := store.ListByRoom(ctx, "101")
			if err != nil {
				t.Fatal(err)
			}
			if len(matched) != 1 {
				t.Fatalf("ListByRoom(101) count = %d, want 1", len(matched))
			}
			if matched[0].FriendlyName != "TV renamed" || matched[0].IP != "10.0.30.44" {
				t.Errorf("refresh did not apply: %+v", matched[0])
			}
		})
	}
}

func TestUpsertExplicitRoomOverwrites(t *testing.T) {
	for name, factory := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)

			if err := store.Upsert(ctx, &Device{UUID: "a", IP: "10.0.30.9", Room: "101"}); err != nil {
				t.Fatal(err)
			}
			if err := store.Upsert(ctx, &Device{UUID: "a", IP: "10.0.30.9", Room: "102"}); err != nil {
				t.Fatal(err)
			}

			matched, err := store.ListByRoom(ctx, "102")
			if err != nil {
				t.Fatal(err)
			}
			if len(matched) != 1 {
				t.Errorf("ListByRoom(102) count = %d, want 1 after explicit reassignment", len(matched))
			}
		})
	}
}

func TestUpsertRequiresUUID(t *testing.T) {
	for name, factory := range factories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			if err := store.Upsert(context.Background(), &Device{IP: "10.0.30.9"}); !errors.Is(err, ErrMissingUUID) {
				t.Errorf("Upsert() error = %v, want ErrMissingUUID", err)
			}
		})
	}
}

func TestAssignRoom(t *testing.T) {
	for name, factory := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)

			if err := store.Upsert(ctx, &Device{UUID: "a", IP: "10.0.30.9"}); err != nil {
				t.Fatal(err)
			}
			if err := store.AssignRoom(ctx, "a", "101"); err != nil {
				t.Fatalf("AssignRoom() error = %v", err)
			}

			matched, err := store.ListByRoom(ctx, "101")
			if err != nil {
				t.Fatal(err)
			}
			if len(matched) != 1 {
				t.Errorf("ListByRoom(101) count = %d, want 1", len(matched))
			}

			if err := store.AssignRoom(ctx, "missing", "101"); !errors.Is(err, ErrNotFound) {
				t.Errorf("AssignRoom(missing) error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewFileStore(path)
	if _, err := store.ListByRoom(context.Background(), "101"); !errors.Is(err, ErrRegistryUnavailable) {
		t.Errorf("ListByRoom() error = %v, want ErrRegistryUnavailable", err)
	}
}
