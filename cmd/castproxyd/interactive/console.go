// Package interactive provides the operator console for castproxyd.
package interactive

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/guestcast/guestcast-go/pkg/pairing"
	"github.com/guestcast/guestcast-go/pkg/registry"
)

// Config provides the console's dependencies.
type Config struct {
	// Pairings is the pairing store (required).
	Pairings pairing.WritableStore

	// Devices is the device registry (required).
	Devices registry.WritableRegistry

	// Tokens issues pairing tokens (required).
	Tokens *pairing.TokenIssuer

	// PairingLifetime is granted to pairings created from the console.
	// Zero means pairing.DefaultLifetime.
	PairingLifetime time.Duration
}

// Console handles interactive mode for castproxyd.
type Console struct {
	config Config
	rl     *readline.Instance
}

// New creates a new interactive console.
func New(config Config) (*Console, error) {
	if config.Pairings == nil || config.Devices == nil || config.Tokens == nil {
		return nil, fmt.Errorf("pairings, devices and tokens are required")
	}
	if config.PairingLifetime <= 0 {
		config.PairingLifetime = pairing.DefaultLifetime
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "castproxy> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Console{config: config, rl: rl}, nil
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "token", "t":
			c.cmdToken(ctx, args)

		case "pair":
			c.cmdPair(ctx, args)

		case "unpair":
			c.cmdUnpair(ctx, args)

		case "pairings", "p":
			c.cmdPairings(ctx)

		case "devices", "d":
			c.cmdDevices(ctx)

		case "room":
			c.cmdRoom(ctx, args)

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
Guestcast Proxy Commands:
  Pairing:
    token <room> [lifetime]    - Issue a pairing token and print its QR payload
    pair <guest-ip> <room>     - Pair a guest address directly
    unpair <guest-ip>          - Revoke a guest's pairing
    pairings                   - List pairings

  Receivers:
    devices                    - List known receivers
    room <uuid> <room>         - Assign a receiver to a room ("" to clear)

  General:
    help                       - Show this help
    quit                       - Exit`)
}

// cmdToken issues a single-use pairing token.
func (c *Console) cmdToken(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: token <room> [lifetime]")
		fmt.Fprintln(c.rl.Stdout(), "  Example: token 101 8h")
		return
	}

	lifetime := c.config.PairingLifetime
	if len(args) >= 2 {
		parsed, err := time.ParseDuration(args[1])
		if err != nil || parsed <= 0 {
			fmt.Fprintf(c.rl.Stdout(), "Invalid lifetime: %s\n", args[1])
			return
		}
		lifetime = parsed
	}

	token := c.config.Tokens.Issue(args[0], lifetime)
	fmt.Fprintf(c.rl.Stdout(), "Token issued for room %s (claim within %s):\n", token.Room, pairing.TokenClaimWindow)
	fmt.Fprintf(c.rl.Stdout(), "  Token:      %s\n", token.Value)
	fmt.Fprintf(c.rl.Stdout(), "  QR payload: %s\n", pairing.FormatQRPayload(token))
}

// cmdPair creates a pairing directly.
func (c *Console) cmdPair(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: pair <guest-ip> <room>")
		return
	}

	now := time.Now()
	record := &pairing.Record{
		GuestAddress: args[0],
		Room:         args[1],
		PairedAt:     now,
		ExpiresAt:    now.Add(c.config.PairingLifetime),
	}
	if err := c.config.Pairings.Put(ctx, record); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Failed to pair: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Paired %s to room %s until %s\n",
		record.GuestAddress, record.Room, record.ExpiresAt.Format("15:04:05"))
}

// cmdUnpair revokes a pairing.
func (c *Console) cmdUnpair(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: unpair <guest-ip>")
		return
	}

	if err := c.config.Pairings.Delete(ctx, args[0]); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Failed to unpair: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Unpaired %s\n", args[0])
}

// cmdPairings lists all pairings.
func (c *Console) cmdPairings(ctx context.Context) {
	records, err := c.config.Pairings.List(ctx)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Failed to list pairings: %v\n", err)
		return
	}
	if len(records) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No pairings")
		return
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].GuestAddress < records[j].GuestAddress
	})

	now := time.Now()
	fmt.Fprintf(c.rl.Stdout(), "\nPairings (%d):\n", len(records))
	fmt.Fprintln(c.rl.Stdout(), "-------------------------------------------")
	for _, record := range records {
		status := "active"
		if !record.ActiveAt(now) {
			status = "EXPIRED"
		}
		fmt.Fprintf(c.rl.Stdout(), "  %s  room %-8s  expires %s  [%s]\n",
			record.GuestAddress, record.Room,
			record.ExpiresAt.Format("15:04:05"), status)
	}
	fmt.Fprintln(c.rl.Stdout())
}

// cmdDevices lists the receiver registry.
func (c *Console) cmdDevices(ctx context.Context) {
	devices, err := c.config.Devices.List(ctx)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Failed to list devices: %v\n", err)
		return
	}
	if len(devices) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No receivers known")
		return
	}

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].FriendlyName < devices[j].FriendlyName
	})

	fmt.Fprintf(c.rl.Stdout(), "\nReceivers (%d):\n", len(devices))
	fmt.Fprintln(c.rl.Stdout(), "-------------------------------------------")
	for _, device := range devices {
		room := device.Room
		if room == "" {
			room = "(unassigned)"
		}
		fmt.Fprintf(c.rl.Stdout(), "  %s\n", device.FriendlyName)
		fmt.Fprintf(c.rl.Stdout(), "      UUID: %s\n", device.UUID)
		fmt.Fprintf(c.rl.Stdout(), "      Addr: %s:%d  Room: %s\n", device.IP, device.Port, room)
		if !device.LastSeen.IsZero() {
			fmt.Fprintf(c.rl.Stdout(), "      Last seen: %s\n", device.LastSeen.Format("15:04:05"))
		}
	}
	fmt.Fprintln(c.rl.Stdout())
}

// cmdRoom assigns a receiver to a room. Supports UUID prefix match.
func (c *Console) cmdRoom(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: room <uuid> <room>")
		fmt.Fprintln(c.rl.Stdout(), "  Use 'devices' to list receiver UUIDs; omit room to clear")
		return
	}

	uuid := args[0]
	room := ""
	if len(args) >= 2 {
		room = args[1]
	}

	// Allow a unique UUID prefix instead of the full identifier.
	devices, err := c.config.Devices.List(ctx)
	if err == nil {
		var matches []string
		for _, device := range devices {
			if strings.HasPrefix(device.UUID, uuid) {
				matches = append(matches, device.UUID)
			}
		}
		if len(matches) == 1 {
			uuid = matches[0]
		} else if len(matches) > 1 {
			fmt.Fprintf(c.rl.Stdout(), "Ambiguous UUID prefix %s (%d matches)\n", uuid, len(matches))
			return
		}
	}

	if err := c.config.Devices.AssignRoom(ctx, uuid, room); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Failed to assign room: %v\n", err)
		return
	}
	if room == "" {
		fmt.Fprintf(c.rl.Stdout(), "Cleared room for %s\n", uuid)
	} else {
		fmt.Fprintf(c.rl.Stdout(), "Assigned %s to room %s\n", uuid, room)
	}
}
