package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterkuimelis/draftsync/internal/cache"
	"github.com/peterkuimelis/draftsync/internal/draft"
	"github.com/peterkuimelis/draftsync/internal/log"
	"github.com/peterkuimelis/draftsync/internal/relay"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "allocate":
		runAllocate(os.Args[2:])
	case "pick":
		runPick(os.Args[2:])
	case "order":
		runOrder(os.Args[2:])
	case "ability":
		runAbility(os.Args[2:])
	case "status":
		runStatus(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  draftsync-cli allocate --session ID --slot N [--relay URL]")
	fmt.Println("  draftsync-cli pick     --session ID --slot N --poolslot I --card CARD")
	fmt.Println("  draftsync-cli order    --session ID --slot N --positions \"3 1 2 ...\"")
	fmt.Println("  draftsync-cli ability  --session ID --slot N --text TEXT")
	fmt.Println("  draftsync-cli status   --session ID --slot N")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  allocate  Generate and commit this player's card pool")
	fmt.Println("  pick      Select one card from a pool slot")
	fmt.Println("  order     Submit the final hand order (1-based positions)")
	fmt.Println("  ability   Request use of an ability")
	fmt.Println("  status    Show this player's current setup state")
}

// commonFlags are the flags every subcommand shares.
type commonFlags struct {
	relay   *string
	session *string
	slot    *int
	cache   *string
	catalog *string
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	home, _ := os.UserHomeDir()
	return commonFlags{
		relay:   fs.String("relay", "ws://localhost:8080/ws", "relay websocket URL"),
		session: fs.String("session", "", "session id"),
		slot:    fs.Int("slot", 0, "player slot (0 or 1)"),
		cache:   fs.String("cache", filepath.Join(home, ".draftsync", "cache.db"), "local cache path"),
		catalog: fs.String("catalog", "", "catalog YAML file (defaults to the built-in catalog)"),
	}
}

// newClient dials the relay, opens the cache, and joins the session.
func newClient(ctx context.Context, cf commonFlags) (*draft.Client, func(), error) {
	if *cf.session == "" {
		return nil, nil, fmt.Errorf("--session is required")
	}

	if err := os.MkdirAll(filepath.Dir(*cf.cache), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := cache.OpenSQLite(*cf.cache)
	if err != nil {
		return nil, nil, err
	}

	catalog := draft.BuiltinCatalog()
	if *cf.catalog != "" {
		catalog, err = draft.ParseCatalogFile(*cf.catalog)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
	}

	conn, err := relay.Dial(ctx, *cf.relay)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	client, err := draft.NewClient(draft.ClientConfig{
		Store:      conn,
		Cache:      db,
		Logger:     log.NewTextLogger(os.Stdout),
		SessionID:  *cf.session,
		PlayerSlot: *cf.slot,
		Catalog:    catalog,
	})
	if err != nil {
		conn.Close()
		db.Close()
		return nil, nil, err
	}
	if err := client.Join(ctx); err != nil {
		conn.Close()
		db.Close()
		return nil, nil, err
	}

	cleanup := func() {
		client.Close()
		conn.Close()
		db.Close()
	}
	return client, cleanup, nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runAllocate(args []string) {
	fs := flag.NewFlagSet("allocate", flag.ExitOnError)
	cf := addCommonFlags(fs)
	fs.Parse(args)

	ctx := context.Background()
	client, cleanup, err := newClient(ctx, cf)
	if err != nil {
		fatal(err)
	}
	defer cleanup()

	pool, degraded, err := client.AllocatePool(ctx)
	if err != nil {
		fatal(err)
	}
	if degraded {
		fmt.Println("Warning: pool committed after exhausting validation retries.")
	}
	for i, slot := range pool {
		fmt.Printf("Slot %2d: %s\n", i, joinCards(slot))
	}
}

func runPick(args []string) {
	fs := flag.NewFlagSet("pick", flag.ExitOnError)
	cf := addCommonFlags(fs)
	poolSlot := fs.Int("poolslot", -1, "pool slot index")
	card := fs.String("card", "", "card id to pick")
	fs.Parse(args)

	ctx := context.Background()
	client, cleanup, err := newClient(ctx, cf)
	if err != nil {
		fatal(err)
	}
	defer cleanup()

	if err := client.PickCard(ctx, *poolSlot, draft.CardID(*card)); err != nil {
		fatal(err)
	}
	fmt.Printf("Picked %s (%d of %d)\n", *card, len(client.Selections()), client.Rounds())
	if client.Phase() == draft.PhaseOrdering {
		fmt.Println("Selection complete. Submit an order with `draftsync-cli order`.")
	}
}

func runOrder(args []string) {
	fs := flag.NewFlagSet("order", flag.ExitOnError)
	cf := addCommonFlags(fs)
	positionsStr := fs.String("positions", "", "space-separated 1-based final positions")
	fs.Parse(args)

	ctx := context.Background()
	client, cleanup, err := newClient(ctx, cf)
	if err != nil {
		fatal(err)
	}
	defer cleanup()

	var positions []int
	for _, p := range strings.Fields(*positionsStr) {
		n, err := strconv.Atoi(p)
		if err != nil {
			fatal(fmt.Errorf("bad position %q", p))
		}
		positions = append(positions, n)
	}

	if err := client.BeginOrderingEdit(); err != nil {
		fatal(err)
	}
	if err := client.SubmitOrder(ctx, positions); err != nil {
		fatal(err)
	}
	fmt.Printf("Order locked: %s\n", joinCards(client.Committed()))
}

func runAbility(args []string) {
	fs := flag.NewFlagSet("ability", flag.ExitOnError)
	cf := addCommonFlags(fs)
	text := fs.String("text", "", "ability text to request")
	fs.Parse(args)

	ctx := context.Background()
	client, cleanup, err := newClient(ctx, cf)
	if err != nil {
		fatal(err)
	}
	defer cleanup()

	if err := client.RequestAbility(ctx, *text); err != nil {
		fatal(err)
	}
	fmt.Printf("Requested %q; awaiting moderator decision.\n", *text)
}

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	cf := addCommonFlags(fs)
	fs.Parse(args)

	ctx := context.Background()
	client, cleanup, err := newClient(ctx, cf)
	if err != nil {
		fatal(err)
	}
	defer cleanup()

	fmt.Printf("Session: %s  Slot: %d  Phase: %s\n", *cf.session, *cf.slot, client.Phase())
	fmt.Printf("Selections: %d of %d\n", len(client.Selections()), client.Rounds())
	for _, sel := range client.Selections() {
		fmt.Printf("  slot %2d: %s\n", sel.SlotIndex, sel.CardID)
	}
	if committed := client.Committed(); len(committed) > 0 {
		fmt.Printf("Hand: %s\n", joinCards(committed))
	}
	fmt.Println("Abilities:")
	for _, a := range client.Abilities() {
		mark := " "
		if a.Used {
			mark = "x"
		}
		fmt.Printf("  [%s] %s\n", mark, a.Text)
	}
}

func joinCards(ids []draft.CardID) string {
	var parts []string
	for _, id := range ids {
		parts = append(parts, string(id))
	}
	return strings.Join(parts, ", ")
}
