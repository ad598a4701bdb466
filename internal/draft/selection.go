package draft

import (
	"context"
	"fmt"

	"github.com/peterkuimelis/draftsync/internal/log"
)

// PickCard records one selection: the card taken from the given pool
// slot. The pick is rejected if the slot already has a selection, the
// card is already selected, or the opponent has claimed the card; the
// opponent check re-fetches the session at pick time so another tab of
// this player or the opponent's latest picks are observed. A successful
// pick persists to the cache and mirrors to the store immediately so the
// opponent's exclusion set stays fresh; the mirror is best effort.
func (c *Client) PickCard(ctx context.Context, slotIndex int, cardID CardID) error {
	c.mu.Lock()

	if c.phase != PhaseSelecting {
		c.mu.Unlock()
		return fmt.Errorf("selection phase is over: %w", ErrInvalidSelection)
	}
	if slotIndex < 0 || slotIndex >= len(c.pool) {
		c.mu.Unlock()
		return fmt.Errorf("slot %d out of range: %w", slotIndex, ErrInvalidSelection)
	}

	norm := NormalizeCardID(cardID)
	if !c.slotOffers(slotIndex, norm) {
		c.mu.Unlock()
		return fmt.Errorf("slot %d does not offer %s: %w", slotIndex, cardID, ErrInvalidSelection)
	}
	for _, sel := range c.selections {
		if sel.SlotIndex == slotIndex {
			c.mu.Unlock()
			return fmt.Errorf("slot %d already selected: %w", slotIndex, ErrInvalidSelection)
		}
		if NormalizeCardID(sel.CardID) == norm {
			c.mu.Unlock()
			return fmt.Errorf("%s already selected: %w", cardID, ErrInvalidSelection)
		}
	}

	// Read back before committing the pick. Another tab of this player
	// or the opponent may have moved since the last snapshot.
	sess, err := c.store.Get(ctx, c.sessionID)
	if err == nil {
		c.opponent = sess.Players[Opponent(c.slot)]
		for _, sel := range sess.Players[c.slot].Selections {
			if sel.SlotIndex == slotIndex || NormalizeCardID(sel.CardID) == norm {
				c.adoptSelections(sess.Players[c.slot].Selections)
				c.mu.Unlock()
				return fmt.Errorf("already selected in another tab: %w", ErrInvalidSelection)
			}
		}
	}
	if claimed := NormalizeCardSet(opponentClaims(c.opponent)); claimed[norm] {
		c.mu.Unlock()
		return fmt.Errorf("card taken by opponent, choose another: %w", ErrInvalidSelection)
	}

	c.selections = append(c.selections, Selection{SlotIndex: slotIndex, CardID: cardID})
	c.logger.Log(log.NewCardPickedEvent(c.sessionID, c.slot, slotIndex, string(cardID)))

	c.mirrorSelections(ctx)
	if len(c.selections) >= c.rounds {
		c.enterOrdering()
		_ = c.store.Update(ctx, c.sessionID, PlayerPath(c.slot, "cardsSelected"), true)
	}

	if err := c.saveRecord(); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("cache selection: %w", err)
	}
	c.mu.Unlock()
	return nil
}

// slotOffers reports whether the pool slot contains the normalized card.
// Must hold mu.
func (c *Client) slotOffers(slotIndex int, norm CardID) bool {
	for _, id := range c.pool[slotIndex] {
		if NormalizeCardID(id) == norm {
			return true
		}
	}
	return false
}

// opponentClaims is the set of cards the opponent has taken off the
// table: live selections and the committed hand. Pool candidates are
// not claims; only picks are.
func opponentClaims(opp PlayerState) []CardID {
	var out []CardID
	for _, sel := range opp.Selections {
		out = append(out, sel.CardID)
	}
	out = append(out, opp.CommittedCards...)
	return out
}

// adoptSelections replaces local selections with a longer remote set
// observed during read-back. Must hold mu.
func (c *Client) adoptSelections(remote []Selection) {
	if len(remote) > len(c.selections) {
		c.selections = append([]Selection(nil), remote...)
		if len(c.selections) >= c.rounds && c.phase == PhaseSelecting {
			c.enterOrdering()
		}
	}
}

// mirrorSelections pushes the current selections to the store. Best
// effort. Must hold mu.
func (c *Client) mirrorSelections(ctx context.Context) {
	_ = c.store.Update(ctx, c.sessionID, PlayerPath(c.slot, "selections"), c.selections)
}
