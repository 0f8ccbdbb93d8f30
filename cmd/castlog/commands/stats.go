package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/guestcast/guestcast-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	Guests           map[string]*GuestStats
	DenialsByReason  map[string]int
	AnswersSent      int
	FirewallFailures int
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// GuestStats holds per-guest query statistics.
type GuestStats struct {
	Queries    int
	Authorized int
	Denied     int
	LastSeen   time.Time
}

// collectStats reads the whole log file into a Stats.
func collectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory: make(map[log.Category]int),
		Guests:           make(map[string]*GuestStats),
		DenialsByReason:  make(map[string]int),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++

		// Track time range
		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		switch {
		case event.Decision != nil:
			guest, ok := stats.Guests[event.GuestAddr]
			if !ok {
				guest = &GuestStats{}
				stats.Guests[event.GuestAddr] = guest
			}
			guest.Queries++
			if event.Decision.Authorized {
				guest.Authorized++
			} else {
				guest.Denied++
				stats.DenialsByReason[event.Decision.Reason]++
			}
			if event.Timestamp.After(guest.LastSeen) {
				guest.LastSeen = event.Timestamp
			}

		case event.Response != nil:
			stats.AnswersSent++

		case event.Firewall != nil:
			if event.Firewall.Failed {
				stats.FirewallFailures++
			}

		case event.Error != nil:
			stats.Errors++
		}
	}

	return stats, nil
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := collectStats(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Events: %d\n", stats.TotalEvents)
	if !stats.TimeRange.Start.IsZero() {
		fmt.Fprintf(w, "Time range: %s to %s\n",
			stats.TimeRange.Start.UTC().Format(time.RFC3339),
			stats.TimeRange.End.UTC().Format(time.RFC3339))
	}

	fmt.Fprintln(w, "\nBy category:")
	for category := log.CategoryDatagram; category <= log.CategoryError; category++ {
		if count := stats.EventsByCategory[category]; count > 0 {
			fmt.Fprintf(w, "  %-8s %d\n", category.String(), count)
		}
	}

	if len(stats.Guests) > 0 {
		fmt.Fprintln(w, "\nGuests:")
		addrs := make([]string, 0, len(stats.Guests))
		for addr := range stats.Guests {
			addrs = append(addrs, addr)
		}
		sort.Strings(addrs)
		for _, addr := range addrs {
			guest := stats.Guests[addr]
			fmt.Fprintf(w, "  %-15s queries=%d authorized=%d denied=%d last=%s\n",
				addr, guest.Queries, guest.Authorized, guest.Denied,
				guest.LastSeen.UTC().Format(time.RFC3339))
		}
	}

	if len(stats.DenialsByReason) > 0 {
		fmt.Fprintln(w, "\nDenials:")
		reasons := make([]string, 0, len(stats.DenialsByReason))
		for reason := range stats.DenialsByReason {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Fprintf(w, "  %-12s %d\n", reason, stats.DenialsByReason[reason])
		}
	}

	fmt.Fprintf(w, "\nAnswers sent: %d\n", stats.AnswersSent)
	if stats.FirewallFailures > 0 {
		fmt.Fprintf(w, "Firewall failures: %d\n", stats.FirewallFailures)
	}
	if stats.Errors > 0 {
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}

	return nil
}
