package draft

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/peterkuimelis/draftsync/internal/log"
)

// RequestAbility invokes an unused ability: the local mark flips to used
// immediately (optimistic, the UI never waits on the round trip) and a
// pending request record is written for the moderator. A request for a
// text with one already pending, here or in another tab of this player,
// is a no-op; the pending scans therefore run before the used-mark
// rejection, since the optimistic mark is set while the request is still
// undecided. If the store write fails the optimistic mark is rolled back
// before the error is returned, so no optimistic state dangles on a
// failed submission.
func (c *Client) RequestAbility(ctx context.Context, text string) error {
	c.mu.Lock()

	idx := c.abilityIndex(text)
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("unknown ability %q", text)
	}
	for _, req := range c.pending {
		if req.AbilityText == text {
			// Already requested, waiting on the moderator.
			c.mu.Unlock()
			return nil
		}
	}

	// Another tab of this player may have filed the request already;
	// the shared request list is authoritative for de-dup.
	if sess, err := c.store.Get(ctx, c.sessionID); err == nil {
		for _, req := range sess.PendingRequests(c.slot) {
			if req.AbilityText != text {
				continue
			}
			c.pending[req.ID] = req
			var fire func()
			if !c.abilities[idx].Used {
				c.abilities[idx].Used = true
				_ = c.saveRecord()
				fire = c.notifyAbilities()
			}
			c.mu.Unlock()
			if fire != nil {
				fire()
			}
			return nil
		}
	}

	if c.abilities[idx].Used {
		c.mu.Unlock()
		return fmt.Errorf("ability %q already used", text)
	}

	// Optimistic mark, then the remote record.
	c.abilities[idx].Used = true
	_ = c.saveRecord()
	fire := c.notifyAbilities()

	req := AbilityRequest{
		ID:          uuid.NewString(),
		PlayerSlot:  c.slot,
		AbilityText: text,
		Status:      RequestPending,
		Timestamp:   c.now(),
	}

	if err := c.store.Update(ctx, c.sessionID, RequestPath(req.ID), req); err != nil {
		c.abilities[idx].Used = false
		_ = c.saveRecord()
		fire = c.notifyAbilities()
		c.logger.Log(log.NewAbilityRollbackEvent(c.sessionID, c.slot, text, "request write failed"))
		c.mu.Unlock()
		fire()
		return fmt.Errorf("request failed, try again: %w: %v", ErrRemoteWriteFailed, err)
	}

	c.pending[req.ID] = req
	c.logger.Log(log.NewAbilityRequestedEvent(c.sessionID, c.slot, text, req.ID))
	c.mu.Unlock()
	fire()
	return nil
}

// abilityIndex finds an ability by exact text. Must hold mu.
func (c *Client) abilityIndex(text string) int {
	for i, a := range c.abilities {
		if a.Text == text {
			return i
		}
	}
	return -1
}

// reconcileRequests handles moderator decisions on our outgoing
// requests: approved keeps the optimistic mark permanently and clears
// the pending marker; rejected rolls back exactly the one ability named
// by the request. A record that was present in an earlier snapshot and
// has since vanished was deleted without a decision; it is purged right
// away rather than waiting out the TTL. Stale pending requests past the
// TTL are purged too. Both purges leave the optimistic mark in place,
// trading a rare wrong mark for a stable UI. Must hold mu; returns
// whether the ability sheet changed and whether any decision landed
// (the caller mirrors the sheet then).
func (c *Client) reconcileRequests(sess *Session) (changed, resolved bool) {
	for id, local := range c.pending {
		remote, ok := sess.Requests[id]
		if !ok && c.seenRequests[id] {
			delete(c.pending, id)
			delete(c.seenRequests, id)
			c.approved[local.AbilityText] = true
			c.logger.Log(log.NewRequestPurgedEvent(c.sessionID, c.slot, id))
			continue
		}
		if !ok || remote.Status == RequestPending {
			if ok {
				c.seenRequests[id] = true
			}
			if c.now().Sub(local.Timestamp) > c.requestTTL {
				delete(c.pending, id)
				delete(c.seenRequests, id)
				// Fail open: the optimistic mark stays until a real
				// decision or a revocation says otherwise.
				c.approved[local.AbilityText] = true
				c.logger.Log(log.NewRequestPurgedEvent(c.sessionID, c.slot, id))
			}
			continue
		}

		delete(c.pending, id)
		delete(c.seenRequests, id)
		switch remote.Status {
		case RequestApproved:
			// Hold the mark until the remote sheet reflects it.
			c.approved[local.AbilityText] = true
			resolved = true
			c.logger.Log(log.NewAbilityApprovedEvent(c.sessionID, c.slot, local.AbilityText))
		case RequestRejected:
			if idx := c.abilityIndex(local.AbilityText); idx >= 0 && c.abilities[idx].Used {
				c.abilities[idx].Used = false
				changed = true
			}
			// Hold the rollback until the remote sheet reflects it,
			// in case an earlier mirror published the optimistic mark.
			c.rolledBack[local.AbilityText] = true
			resolved = true
			c.logger.Log(log.NewAbilityRejectedEvent(c.sessionID, c.slot, local.AbilityText))
		}
	}
	return changed, resolved
}

// pendingTexts is the set of ability texts with an outstanding request.
// Must hold mu.
func (c *Client) pendingTexts() map[string]bool {
	out := make(map[string]bool, len(c.pending))
	for _, req := range c.pending {
		out[req.AbilityText] = true
	}
	return out
}

// mergeAbilities adopts the remote ability sheet while keeping the
// optimistic used-marks of still-pending requests, then detects
// moderator revocations: any text used in the previous remote snapshot
// but not in this one is reactivated, exactly those and nothing else.
// Must hold mu; returns whether the ability sheet changed.
func (c *Client) mergeAbilities(remote []AbilityRecord) bool {
	pending := c.pendingTexts()
	remoteUsed := UsedAbilitySet(remote)

	// Approved marks are confirmed once the remote sheet shows them.
	for text := range c.approved {
		if remoteUsed[text] {
			delete(c.approved, text)
		}
	}

	merged := append([]AbilityRecord(nil), remote...)
	for i := range merged {
		if pending[merged[i].Text] || c.approved[merged[i].Text] {
			merged[i].Used = true
		}
		if c.rolledBack[merged[i].Text] {
			merged[i].Used = false
		}
	}

	for text := range c.prevUsed {
		if !remoteUsed[text] && !pending[text] && !c.approved[text] && !c.rolledBack[text] {
			c.logger.Log(log.NewAbilityRevokedEvent(c.sessionID, c.slot, text))
		}
	}
	c.prevUsed = remoteUsed

	// Rollbacks are confirmed once the remote sheet shows them unused.
	for text := range c.rolledBack {
		if !remoteUsed[text] {
			delete(c.rolledBack, text)
		}
	}

	if abilitiesEqual(c.abilities, merged) {
		return false
	}
	c.abilities = merged
	return true
}

func abilitiesEqual(a, b []AbilityRecord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
