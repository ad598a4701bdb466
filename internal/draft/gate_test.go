package draft_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/peterkuimelis/draftsync/internal/cache"
	"github.com/peterkuimelis/draftsync/internal/draft"
	"github.com/peterkuimelis/draftsync/internal/log"
	"github.com/peterkuimelis/draftsync/internal/store"
)

func TestSnapshotForOtherSessionDiscarded(t *testing.T) {
	h := newHarness(t, 3, testAbilities)

	stray := draft.NewSession(draft.SessionOptions{Rounds: 9, Player1Name: "Xo", Player2Name: "Yu"})
	stray.Players[0].Selections = []draft.Selection{{SlotIndex: 0, CardID: "cards/common/c00"}}
	h.client.DeliverSnapshot(stray)

	if n := len(h.logger.EventsOfType(log.EventSnapshotDiscarded)); n != 1 {
		t.Fatalf("discard events = %d, want 1", n)
	}
	if h.client.Rounds() != 3 {
		t.Error("stray snapshot changed the round count")
	}
	if len(h.client.Selections()) != 0 {
		t.Error("stray snapshot leaked selections")
	}
}

func TestSnapshotAdoptsRemoteProgress(t *testing.T) {
	h := newHarness(t, 2, nil)

	// Another tab of this player allocated and picked; this tab only
	// hears about it through snapshots.
	pool := [][]draft.CardID{
		{"cards/common/c00", "cards/common/c01", "cards/common/c02"},
		{"cards/common/c03", "cards/common/c04", "cards/common/c05"},
	}
	if err := h.store.Update(context.Background(), h.sess.ID, draft.PlayerPath(0, "pool"), pool); err != nil {
		t.Fatalf("seed pool: %v", err)
	}
	h.sync()
	if len(h.client.Pool()) != 2 {
		t.Fatal("remote pool not adopted")
	}

	sels := []draft.Selection{
		{SlotIndex: 1, CardID: "cards/common/c03"},
		{SlotIndex: 0, CardID: "cards/common/c00"},
	}
	if err := h.store.Update(context.Background(), h.sess.ID, draft.PlayerPath(0, "selections"), sels); err != nil {
		t.Fatalf("seed selections: %v", err)
	}
	h.sync()

	if n := len(h.client.Selections()); n != 2 {
		t.Fatalf("selections = %d, want 2", n)
	}
	// All rounds selected: the client moves to ordering, slot order.
	if h.client.Phase() != draft.PhaseOrdering {
		t.Errorf("phase = %s, want %s", h.client.Phase(), draft.PhaseOrdering)
	}
	working := h.client.Committed()
	if working[0] != "cards/common/c00" || working[1] != "cards/common/c03" {
		t.Errorf("working set = %v, want slot order", working)
	}
}

func TestSnapshotAdoptsSubmittedHand(t *testing.T) {
	h := newHarness(t, 2, nil)

	hand := []draft.CardID{"cards/common/c04", "cards/common/c02"}
	if err := h.store.Update(context.Background(), h.sess.ID, draft.PlayerPath(0, "committedCards"), hand); err != nil {
		t.Fatalf("seed hand: %v", err)
	}
	if err := h.store.Update(context.Background(), h.sess.ID, draft.PlayerPath(0, "ready"), true); err != nil {
		t.Fatalf("seed ready: %v", err)
	}
	h.sync()

	if h.client.Phase() != draft.PhaseSubmitted {
		t.Fatalf("phase = %s, want %s", h.client.Phase(), draft.PhaseSubmitted)
	}
	got := h.client.Committed()
	if len(got) != 2 || got[0] != hand[0] || got[1] != hand[1] {
		t.Errorf("hand = %v, want %v", got, hand)
	}

	// A repeat submit from this tab is now a no-op.
	if err := h.client.SubmitOrder(context.Background(), []int{2, 1}); err != nil {
		t.Fatalf("repeat submit: %v", err)
	}
	if n := len(h.logger.EventsOfType(log.EventOrderRepeat)); n != 1 {
		t.Errorf("repeat events = %d, want 1", n)
	}
}

func TestSnapshotSuppressedDuringOrderingEdit(t *testing.T) {
	h := newHarness(t, 2, testAbilities)
	if _, _, err := h.client.AllocatePool(context.Background()); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	h.pickAll()
	h.sync()
	if err := h.client.BeginOrderingEdit(); err != nil {
		t.Fatalf("begin edit: %v", err)
	}

	// A stale echo of our own branch arrives mid-edit.
	if err := h.store.Update(context.Background(), h.sess.ID, draft.PlayerPath(0, "selections"), []draft.Selection{}); err != nil {
		t.Fatalf("stale echo: %v", err)
	}
	h.sync()

	if n := len(h.logger.EventsOfType(log.EventSnapshotSuppressed)); n == 0 {
		t.Fatal("no suppression event during ordering edit")
	}
	if n := len(h.client.Selections()); n != 2 {
		t.Errorf("selections = %d, the edit lost local state", n)
	}
	if h.client.Phase() != draft.PhaseOrdering {
		t.Errorf("phase = %s, want %s", h.client.Phase(), draft.PhaseOrdering)
	}

	// Ability decisions still land while the edit is open.
	if err := h.client.RequestAbility(context.Background(), testAbilities[0]); err != nil {
		t.Fatalf("request: %v", err)
	}
	h.sync()
	h.resolveRequest(h.pendingRequestID(), draft.RequestRejected)
	if h.abilityUsed(testAbilities[0]) {
		t.Error("rejection ignored during ordering edit")
	}

	// Submitting lifts the suppression; later snapshots apply again.
	if err := h.client.SubmitOrder(context.Background(), []int{2, 1}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	applied := len(h.logger.EventsOfType(log.EventSnapshotApplied))
	h.setOpponentState(1, "name", "Blair")
	if n := len(h.logger.EventsOfType(log.EventSnapshotApplied)); n <= applied {
		t.Error("snapshots still suppressed after submit")
	}
}

func TestSnapshotTracksOpponentBranch(t *testing.T) {
	h := newHarness(t, 3, nil)
	pool, _, err := h.client.AllocatePool(context.Background())
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	// The opponent's committed hand flows in via snapshot and feeds the
	// pick-time exclusion.
	h.setOpponentState(1, "committedCards", []draft.CardID{pool[2][0]})

	err = h.client.PickCard(context.Background(), 2, pool[2][0])
	if !errors.Is(err, draft.ErrInvalidSelection) {
		t.Fatalf("err = %v, want ErrInvalidSelection", err)
	}
}

// ctxStore records the context carried by ability-sheet mirror writes.
type ctxStore struct {
	draft.SessionStore

	mu             sync.Mutex
	lastMirrorDone bool
	lastMirrorErr  error
}

func (s *ctxStore) Update(ctx context.Context, sessionID, path string, value any) error {
	s.mu.Lock()
	if path == draft.PlayerPath(0, "abilities") {
		s.lastMirrorDone = true
		s.lastMirrorErr = ctx.Err()
	}
	s.mu.Unlock()
	return s.SessionStore.Update(ctx, sessionID, path, value)
}

func TestMirrorWritesStopWithClient(t *testing.T) {
	st := store.NewMemoryStore()
	sess := draft.NewSession(draft.SessionOptions{
		Rounds:           3,
		Player1Abilities: testAbilities,
		Player2Abilities: testAbilities,
	})
	if err := st.Create(context.Background(), sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	recorder := &ctxStore{SessionStore: st}
	client, err := draft.NewClient(draft.ClientConfig{
		Store:      recorder,
		Cache:      cache.NewMemory(),
		Logger:     log.NewMemoryLogger(),
		SessionID:  sess.ID,
		PlayerSlot: 0,
		Catalog:    testCatalog(60, 30),
		Pool:       draft.PoolConfig{SlotCount: 4, CardsPerSlot: 3},
		Sleep:      func(time.Duration) {},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Join(context.Background()); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := client.RequestAbility(context.Background(), testAbilities[0]); err != nil {
		t.Fatalf("request: %v", err)
	}
	st.WaitIdle()

	got, err := st.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	pending := got.PendingRequests(0)
	if len(pending) != 1 {
		t.Fatalf("pending requests = %d, want 1", len(pending))
	}
	id := pending[0].ID

	// The decision lands after the client closed; the queued snapshot
	// still reconciles it, but the mirror write carries a dead context.
	client.Close()
	if err := st.Update(context.Background(), sess.ID, draft.RequestStatusPath(id), draft.RequestApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}
	decided, err := st.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	client.DeliverSnapshot(decided)

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if !recorder.lastMirrorDone {
		t.Fatal("approval did not trigger a mirror write")
	}
	if !errors.Is(recorder.lastMirrorErr, context.Canceled) {
		t.Errorf("mirror context err = %v, want context.Canceled", recorder.lastMirrorErr)
	}
}
