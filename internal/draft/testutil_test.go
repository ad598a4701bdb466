package draft_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/peterkuimelis/draftsync/internal/cache"
	"github.com/peterkuimelis/draftsync/internal/draft"
	"github.com/peterkuimelis/draftsync/internal/log"
	"github.com/peterkuimelis/draftsync/internal/store"
)

// testCatalog builds a catalog with n common and m epic cards.
func testCatalog(commons, epics int) draft.Catalog {
	var cat draft.Catalog
	for i := 0; i < commons; i++ {
		cat.Common = append(cat.Common, draft.CardID(fmt.Sprintf("cards/common/c%02d", i)))
	}
	for i := 0; i < epics; i++ {
		cat.Epic = append(cat.Epic, draft.CardID(fmt.Sprintf("cards/epic/e%02d", i)))
	}
	return cat
}

// testClock is a manual clock for TTL tests.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// flakyStore wraps a store and fails Update calls whose path contains a
// scripted substring, a fixed number of times each.
type flakyStore struct {
	draft.SessionStore

	mu    sync.Mutex
	fails map[string]int
}

func newFlakyStore(inner draft.SessionStore) *flakyStore {
	return &flakyStore{SessionStore: inner, fails: make(map[string]int)}
}

// FailUpdates makes the next n updates whose path contains match fail.
func (f *flakyStore) FailUpdates(match string, n int) *flakyStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fails[match] = n
	return f
}

func (f *flakyStore) Update(ctx context.Context, sessionID, path string, value any) error {
	f.mu.Lock()
	for match, n := range f.fails {
		if n > 0 && strings.Contains(path, match) {
			f.fails[match] = n - 1
			f.mu.Unlock()
			return fmt.Errorf("scripted failure for %s", path)
		}
	}
	f.mu.Unlock()
	return f.SessionStore.Update(ctx, sessionID, path, value)
}

// harness wires one client against an in-memory store and cache.
type harness struct {
	t      *testing.T
	store  *store.MemoryStore
	flaky  *flakyStore
	cache  *cache.Memory
	clock  *testClock
	logger *log.MemoryLogger
	client *draft.Client
	sess   *draft.Session
}

// harnessOpt mutates the client config before construction.
type harnessOpt func(*draft.ClientConfig)

func withSlot(slot int) harnessOpt {
	return func(cfg *draft.ClientConfig) { cfg.PlayerSlot = slot }
}

func withPool(slots, perSlot int) harnessOpt {
	return func(cfg *draft.ClientConfig) {
		cfg.Pool.SlotCount = slots
		cfg.Pool.CardsPerSlot = perSlot
	}
}

func withCatalog(cat draft.Catalog) harnessOpt {
	return func(cfg *draft.ClientConfig) { cfg.Catalog = cat }
}

func withRequestTTL(d time.Duration) harnessOpt {
	return func(cfg *draft.ClientConfig) { cfg.RequestTTL = d }
}

// newHarness creates a session with the given rounds and abilities for
// player 0, then builds and joins a client for it.
func newHarness(t *testing.T, rounds int, abilities []string, opts ...harnessOpt) *harness {
	t.Helper()

	st := store.NewMemoryStore()
	sess := draft.NewSession(draft.SessionOptions{
		Rounds:           rounds,
		Player1Name:      "Avery",
		Player2Name:      "Blair",
		Player1Abilities: abilities,
		Player2Abilities: abilities,
	})
	if err := st.Create(context.Background(), sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	h := &harness{
		t:      t,
		store:  st,
		flaky:  newFlakyStore(st),
		cache:  cache.NewMemory(),
		clock:  newTestClock(),
		logger: log.NewMemoryLogger(),
		sess:   sess,
	}

	cfg := draft.ClientConfig{
		Store:      h.flaky,
		Cache:      h.cache,
		Logger:     h.logger,
		SessionID:  sess.ID,
		PlayerSlot: 0,
		Catalog:    testCatalog(60, 30),
		Pool:       draft.PoolConfig{SlotCount: 4, CardsPerSlot: 3},
		Now:        h.clock.Now,
		Sleep:      func(time.Duration) {},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	client, err := draft.NewClient(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Join(context.Background()); err != nil {
		t.Fatalf("join: %v", err)
	}
	t.Cleanup(client.Close)
	h.client = client
	return h
}

// sync waits for all queued store notifications to be handled.
func (h *harness) sync() {
	h.store.WaitIdle()
}

// setOpponentState writes the opponent branch directly, simulating the
// peer client's mutations.
func (h *harness) setOpponentState(slot int, field string, value any) {
	h.t.Helper()
	if err := h.store.Update(context.Background(), h.sess.ID, draft.PlayerPath(slot, field), value); err != nil {
		h.t.Fatalf("set opponent %s: %v", field, err)
	}
	h.sync()
}

// resolveRequest flips a request's status, simulating the moderator.
func (h *harness) resolveRequest(id string, status draft.RequestStatus) {
	h.t.Helper()
	if err := h.store.Update(context.Background(), h.sess.ID, draft.RequestStatusPath(id), status); err != nil {
		h.t.Fatalf("resolve request: %v", err)
	}
	h.sync()
}

// pendingRequestID returns the id of the single pending request for the
// client's slot.
func (h *harness) pendingRequestID() string {
	h.t.Helper()
	sess, err := h.store.Get(context.Background(), h.sess.ID)
	if err != nil {
		h.t.Fatalf("get session: %v", err)
	}
	pending := sess.PendingRequests(0)
	if len(pending) != 1 {
		h.t.Fatalf("expected 1 pending request, got %d", len(pending))
	}
	return pending[0].ID
}

// pickAll drives the client through a full selection phase, picking the
// first untaken candidate of each slot until the round count is hit.
func (h *harness) pickAll() {
	h.t.Helper()
	pool := h.client.Pool()
	taken := make(map[draft.CardID]bool)
	picked := 0
	for slot := 0; slot < len(pool) && picked < h.client.Rounds(); slot++ {
		for _, id := range pool[slot] {
			if taken[draft.NormalizeCardID(id)] {
				continue
			}
			if err := h.client.PickCard(context.Background(), slot, id); err != nil {
				h.t.Fatalf("pick slot %d card %s: %v", slot, id, err)
			}
			taken[draft.NormalizeCardID(id)] = true
			picked++
			break
		}
	}
	if picked < h.client.Rounds() {
		h.t.Fatalf("could only pick %d of %d cards", picked, h.client.Rounds())
	}
}

// abilityUsed reports the used flag for the named ability.
func (h *harness) abilityUsed(text string) bool {
	h.t.Helper()
	for _, a := range h.client.Abilities() {
		if a.Text == text {
			return a.Used
		}
	}
	h.t.Fatalf("ability %q not found", text)
	return false
}
