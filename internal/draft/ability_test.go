package draft_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/peterkuimelis/draftsync/internal/draft"
	"github.com/peterkuimelis/draftsync/internal/log"
)

var testAbilities = []string{
	"Peek at one face-down card",
	"Swap two hand positions",
}

func TestRequestAbilityOptimisticMark(t *testing.T) {
	h := newHarness(t, 3, testAbilities)

	if err := h.client.RequestAbility(context.Background(), testAbilities[0]); err != nil {
		t.Fatalf("request: %v", err)
	}
	// The mark flips before any moderator decision.
	if !h.abilityUsed(testAbilities[0]) {
		t.Error("ability not marked used optimistically")
	}
	if n := len(h.logger.EventsOfType(log.EventAbilityRequested)); n != 1 {
		t.Errorf("request events = %d, want 1", n)
	}

	h.sync()
	id := h.pendingRequestID()
	sess, err := h.store.Get(context.Background(), h.sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	req := sess.Requests[id]
	if req.Status != draft.RequestPending || req.AbilityText != testAbilities[0] || req.PlayerSlot != 0 {
		t.Errorf("request record = %+v", req)
	}
}

func TestRequestAbilityRejectsUnknownAndUsed(t *testing.T) {
	h := newHarness(t, 3, testAbilities)

	if err := h.client.RequestAbility(context.Background(), "no such ability"); err == nil {
		t.Error("unknown ability must be rejected")
	}

	if err := h.client.RequestAbility(context.Background(), testAbilities[0]); err != nil {
		t.Fatalf("request: %v", err)
	}
	h.resolveRequest(h.pendingRequestID(), draft.RequestApproved)
	if err := h.client.RequestAbility(context.Background(), testAbilities[0]); err == nil {
		t.Error("used ability must be rejected")
	}
}

func TestRequestAbilityPendingDedup(t *testing.T) {
	h := newHarness(t, 3, testAbilities)

	if err := h.client.RequestAbility(context.Background(), testAbilities[0]); err != nil {
		t.Fatalf("request: %v", err)
	}
	// Re-clicking while the moderator deliberates must not spam, and
	// must not trip over the optimistic used-mark.
	if err := h.client.RequestAbility(context.Background(), testAbilities[0]); err != nil {
		t.Fatalf("duplicate request: %v", err)
	}

	h.sync()
	sess, err := h.store.Get(context.Background(), h.sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if len(sess.Requests) != 1 {
		t.Errorf("request records = %d, want 1", len(sess.Requests))
	}
}

func TestRequestAbilityDedupsAcrossTabs(t *testing.T) {
	h := newHarness(t, 3, testAbilities)

	// Another tab of this player filed the request; this client has no
	// local record of it.
	req := draft.AbilityRequest{
		ID:          uuid.NewString(),
		PlayerSlot:  0,
		AbilityText: testAbilities[0],
		Status:      draft.RequestPending,
		Timestamp:   h.clock.Now(),
	}
	if err := h.store.Update(context.Background(), h.sess.ID, draft.RequestPath(req.ID), req); err != nil {
		t.Fatalf("seed request: %v", err)
	}

	if err := h.client.RequestAbility(context.Background(), testAbilities[0]); err != nil {
		t.Fatalf("request: %v", err)
	}
	// No second record, no new request event; the shared one is
	// adopted and the local mark aligns with it.
	h.sync()
	sess, err := h.store.Get(context.Background(), h.sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if len(sess.Requests) != 1 {
		t.Fatalf("request records = %d, want 1", len(sess.Requests))
	}
	if n := len(h.logger.EventsOfType(log.EventAbilityRequested)); n != 0 {
		t.Errorf("request events = %d, want 0", n)
	}
	if !h.abilityUsed(testAbilities[0]) {
		t.Error("adopted request did not mark the ability used")
	}

	// The adopted request reconciles like one filed here.
	h.resolveRequest(req.ID, draft.RequestRejected)
	if h.abilityUsed(testAbilities[0]) {
		t.Error("rejection of the adopted request not rolled back")
	}
}

func TestRequestAbilityWriteFailureRollsBack(t *testing.T) {
	h := newHarness(t, 3, testAbilities)

	h.flaky.FailUpdates("requests", 1)
	err := h.client.RequestAbility(context.Background(), testAbilities[0])
	if !errors.Is(err, draft.ErrRemoteWriteFailed) {
		t.Fatalf("err = %v, want ErrRemoteWriteFailed", err)
	}
	// No dangling optimistic state on a failed submission.
	if h.abilityUsed(testAbilities[0]) {
		t.Error("optimistic mark not rolled back after write failure")
	}
	if n := len(h.logger.EventsOfType(log.EventAbilityRollback)); n != 1 {
		t.Errorf("rollback events = %d, want 1", n)
	}

	// The ability is immediately requestable again.
	if err := h.client.RequestAbility(context.Background(), testAbilities[0]); err != nil {
		t.Fatalf("retry request: %v", err)
	}
	if !h.abilityUsed(testAbilities[0]) {
		t.Error("retry did not mark the ability used")
	}
}

func TestAbilityApprovalConfirmsMark(t *testing.T) {
	h := newHarness(t, 3, testAbilities)

	if err := h.client.RequestAbility(context.Background(), testAbilities[0]); err != nil {
		t.Fatalf("request: %v", err)
	}
	h.resolveRequest(h.pendingRequestID(), draft.RequestApproved)

	if !h.abilityUsed(testAbilities[0]) {
		t.Error("approved ability lost its mark")
	}
	if n := len(h.logger.EventsOfType(log.EventAbilityApproved)); n != 1 {
		t.Errorf("approval events = %d, want 1", n)
	}

	// The confirmed sheet converges to the store.
	sess, err := h.store.Get(context.Background(), h.sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	used := draft.UsedAbilitySet(sess.Players[0].Abilities)
	if !used[testAbilities[0]] {
		t.Error("approval not mirrored to the remote sheet")
	}
}

func TestAbilityRejectionRollsBackExactlyOne(t *testing.T) {
	h := newHarness(t, 3, testAbilities)

	var notified int
	h.client.OnAbilitiesChanged(func([]draft.AbilityRecord) { notified++ })

	if err := h.client.RequestAbility(context.Background(), testAbilities[0]); err != nil {
		t.Fatalf("request first: %v", err)
	}
	h.sync()
	first := h.pendingRequestID()
	if err := h.client.RequestAbility(context.Background(), testAbilities[1]); err != nil {
		t.Fatalf("request second: %v", err)
	}

	// The moderator blesses the second and shoots down the first.
	h.resolveRequest(first, draft.RequestRejected)

	if h.abilityUsed(testAbilities[0]) {
		t.Error("rejected ability still marked used")
	}
	if !h.abilityUsed(testAbilities[1]) {
		t.Error("rollback touched an unrelated ability")
	}
	if n := len(h.logger.EventsOfType(log.EventAbilityRejected)); n != 1 {
		t.Errorf("rejection events = %d, want 1", n)
	}
	if notified == 0 {
		t.Error("listeners not notified of the rollback")
	}

	// Rejection makes the ability requestable again.
	if err := h.client.RequestAbility(context.Background(), testAbilities[0]); err != nil {
		t.Fatalf("re-request after rejection: %v", err)
	}
}

func TestAbilityRejectionAfterSiblingApproval(t *testing.T) {
	// An approval mirrors the sheet while another request is still
	// pending, so the store briefly shows the pending ability as used.
	// The later rejection must still win.
	h := newHarness(t, 3, testAbilities)

	if err := h.client.RequestAbility(context.Background(), testAbilities[0]); err != nil {
		t.Fatalf("request first: %v", err)
	}
	h.sync()
	first := h.pendingRequestID()
	if err := h.client.RequestAbility(context.Background(), testAbilities[1]); err != nil {
		t.Fatalf("request second: %v", err)
	}
	h.sync()

	var second string
	sess, err := h.store.Get(context.Background(), h.sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	for id := range sess.Requests {
		if id != first {
			second = id
		}
	}

	h.resolveRequest(second, draft.RequestApproved)
	h.resolveRequest(first, draft.RequestRejected)

	if h.abilityUsed(testAbilities[0]) {
		t.Error("rejected ability still marked used")
	}
	if !h.abilityUsed(testAbilities[1]) {
		t.Error("approved ability lost its mark")
	}

	// Both decisions converge to the store.
	sess, err = h.store.Get(context.Background(), h.sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	used := draft.UsedAbilitySet(sess.Players[0].Abilities)
	if used[testAbilities[0]] || !used[testAbilities[1]] {
		t.Errorf("remote used set = %v", used)
	}
}

func TestAbilityRevocationReactivates(t *testing.T) {
	h := newHarness(t, 3, testAbilities)

	if err := h.client.RequestAbility(context.Background(), testAbilities[0]); err != nil {
		t.Fatalf("request: %v", err)
	}
	h.resolveRequest(h.pendingRequestID(), draft.RequestApproved)
	if !h.abilityUsed(testAbilities[0]) {
		t.Fatal("approved ability not marked used")
	}

	// The moderator later revokes the use by flipping the sheet back.
	sheet := []draft.AbilityRecord{
		{Text: testAbilities[0], Used: false},
		{Text: testAbilities[1], Used: false},
	}
	if err := h.store.Update(context.Background(), h.sess.ID, draft.PlayerPath(0, "abilities"), sheet); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	h.sync()

	if h.abilityUsed(testAbilities[0]) {
		t.Error("revoked ability still marked used")
	}
	if n := len(h.logger.EventsOfType(log.EventAbilityRevoked)); n != 1 {
		t.Errorf("revocation events = %d, want 1", n)
	}

	// And it can be spent again.
	if err := h.client.RequestAbility(context.Background(), testAbilities[0]); err != nil {
		t.Fatalf("re-request after revocation: %v", err)
	}
}

func TestStaleRequestPurgedFailOpen(t *testing.T) {
	h := newHarness(t, 3, testAbilities, withRequestTTL(time.Minute))

	if err := h.client.RequestAbility(context.Background(), testAbilities[0]); err != nil {
		t.Fatalf("request: %v", err)
	}
	h.sync()

	// The moderator never answers. Any later snapshot past the TTL
	// sweeps the pending request.
	h.clock.Advance(2 * time.Minute)
	h.setOpponentState(1, "name", "Blair")

	if n := len(h.logger.EventsOfType(log.EventRequestPurged)); n != 1 {
		t.Fatalf("purge events = %d, want 1", n)
	}
	// Fail open: the mark stays, the player is not suddenly handed the
	// ability back.
	if !h.abilityUsed(testAbilities[0]) {
		t.Error("purge cleared the optimistic mark")
	}
}

func TestVanishedRequestPurgedWithoutWaitingForTTL(t *testing.T) {
	h := newHarness(t, 3, testAbilities)

	if err := h.client.RequestAbility(context.Background(), testAbilities[0]); err != nil {
		t.Fatalf("request: %v", err)
	}
	h.sync()
	id := h.pendingRequestID()

	// The record was visible in a snapshot and then deleted outright,
	// no decision recorded. The next snapshot releases the pending
	// marker immediately; the clock never moves.
	sess, err := h.store.Get(context.Background(), h.sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	delete(sess.Requests, id)
	h.client.DeliverSnapshot(sess)

	if n := len(h.logger.EventsOfType(log.EventRequestPurged)); n != 1 {
		t.Fatalf("purge events = %d, want 1", n)
	}
	// Fail open, same as a TTL purge.
	if !h.abilityUsed(testAbilities[0]) {
		t.Error("purge cleared the optimistic mark")
	}
}
