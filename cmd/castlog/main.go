// Command castlog is a tool for viewing and analyzing proxy event log files.
//
// Log files are created by castproxyd when the log_file configuration key
// is set.
//
// Usage:
//
//	castlog <command> [flags] <file.clog>
//
// Commands:
//
//	view     View log file in human-readable format
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	castlog view proxy.clog
//
//	# View only denials for one guest
//	castlog view -category decision -guest 10.0.20.5 proxy.clog
//
//	# Show statistics
//	castlog stats proxy.clog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/guestcast/guestcast-go/cmd/castlog/commands"
	"github.com/guestcast/guestcast-go/pkg/log"
)

const usage = `castlog - Guest-cast proxy event log analyzer

Usage:
  castlog <command> [flags] <file.clog>

Commands:
  view     View log file in human-readable format
  stats    Show statistics about the log file

Use "castlog <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `castlog view - View log file in human-readable format

Usage:
  castlog view [flags] <file.clog>

Flags:
`)
		fs.PrintDefaults()
	}

	guest := fs.String("guest", "", "Filter by guest address")
	room := fs.String("room", "", "Filter by room")
	device := fs.String("device", "", "Filter by receiver UUID")
	category := fs.String("category", "", "Filter by category (datagram, decision, response, firewall, scan, error)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	filter := log.Filter{
		GuestAddr:  *guest,
		Room:       *room,
		DeviceUUID: *device,
	}

	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Category = &c
	}

	if *direction != "" {
		d, err := commands.ParseDirectionFlag(*direction)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Direction = &d
	}

	if err := commands.RunView(fs.Arg(0), filter, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `castlog stats - Show statistics about the log file

Usage:
  castlog stats <file.clog>
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunStats(fs.Arg(0), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
