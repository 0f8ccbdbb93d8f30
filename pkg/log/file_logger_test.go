package log

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFileLoggerCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxy.clog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("log file was not created")
	}
}

func TestFileLoggerWritesCBOR(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxy.clog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	event := Event{
		Timestamp: time.Now(),
		Category:  CategoryDecision,
		GuestAddr: "10.0.20.5",
		Room:      "101",
		Decision:  &DecisionEvent{Authorized: true, Devices: 1},
	}

	logger.Log(event)
	logger.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("log file is empty")
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}
	if decoded.GuestAddr != event.GuestAddr {
		t.Errorf("GuestAddr: got %q, want %q", decoded.GuestAddr, event.GuestAddr)
	}
	if decoded.Decision == nil || !decoded.Decision.Authorized {
		t.Errorf("Decision payload lost: %+v", decoded.Decision)
	}
}

func TestFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxy.clog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	logger.Log(Event{Timestamp: time.Now(), Category: CategoryDatagram, GuestAddr: "first"})
	logger.Close()

	logger, err = NewFileLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	logger.Log(Event{Timestamp: time.Now(), Category: CategoryDatagram, GuestAddr: "second"})
	logger.Close()

	reader, err := NewReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	var guests []string
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		guests = append(guests, event.GuestAddr)
	}

	if len(guests) != 2 || guests[0] != "first" || guests[1] != "second" {
		t.Errorf("events = %v, want [first second]", guests)
	}
}

func TestFileLoggerConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxy.clog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatal(err)
	}

	const goroutines = 8
	const perGoroutine = 50

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				logger.Log(Event{Timestamp: time.Now(), Category: CategoryDatagram})
			}
		}()
	}
	wg.Wait()
	logger.Close()

	reader, err := NewReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	count := 0
	for {
		if _, err := reader.Next(); err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("Next() error = %v after %d events", err, count)
		}
		count++
	}
	if count != goroutines*perGoroutine {
		t.Errorf("event count = %d, want %d", count, goroutines*perGoroutine)
	}
}

func TestFileLoggerLogAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxy.clog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Must not panic, and double close is fine.
	logger.Log(Event{Timestamp: time.Now()})
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
