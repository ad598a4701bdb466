package draft

import (
	"sort"

	"github.com/peterkuimelis/draftsync/internal/log"
)

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// handleSnapshot is the subscription callback: every inbound remote
// snapshot passes the gate before any of it is applied.
//
// Three filters, in order: (1) the snapshot must belong to the active
// session; (2) the opponent branch is only ever read, never written
// back; (3) while an ordering edit is open, the client's own branch is
// ignored entirely so a stale echo cannot clobber the in-flight
// arrangement. Request reconciliation and the revocation diff run on
// every accepted snapshot.
func (c *Client) handleSnapshot(sess *Session) {
	c.mu.Lock()

	if sess.ID != c.sessionID {
		c.logger.Log(log.NewSnapshotDiscardedEvent(c.sessionID, c.slot, sess.ID))
		c.mu.Unlock()
		return
	}

	if c.rounds == 0 {
		c.rounds = sess.Rounds
	}

	// Opponent branch: read-only, feeds the exclusion checks.
	c.opponent = sess.Players[Opponent(c.slot)]

	changed, resolved := c.reconcileRequests(sess)
	if resolved {
		for _, text := range sortedKeys(c.approved) {
			if idx := c.abilityIndex(text); idx >= 0 && !c.abilities[idx].Used {
				c.abilities[idx].Used = true
				changed = true
			}
		}
		// Mirror the decided sheet so the moderator and any other tab
		// of this player converge on the same marks.
		_ = c.store.Update(c.ctx, c.sessionID, PlayerPath(c.slot, "abilities"), c.abilities)
	}

	if c.edit == EditOrdering {
		c.logger.Log(log.NewSnapshotSuppressedEvent(c.sessionID, c.slot))
		var fire func()
		if changed {
			_ = c.saveRecord()
			fire = c.notifyAbilities()
		}
		c.mu.Unlock()
		if fire != nil {
			fire()
		}
		return
	}

	mine := sess.Players[c.slot]

	if c.mergeAbilities(mine.Abilities) {
		changed = true
	}

	if len(mine.Pool) > 0 && len(c.pool) == 0 {
		c.pool = mine.Pool
	}
	c.adoptSelections(mine.Selections)
	if mine.Ready && c.phase != PhaseSubmitted {
		c.phase = PhaseSubmitted
		c.committed = append([]CardID(nil), mine.CommittedCards...)
	}

	_ = c.saveRecord()
	c.logger.Log(log.NewSnapshotAppliedEvent(c.sessionID, c.slot))

	var fire func()
	if changed {
		fire = c.notifyAbilities()
	}
	c.mu.Unlock()
	if fire != nil {
		fire()
	}
}
