package draft

import (
	"context"
	"fmt"
	"slices"

	"github.com/peterkuimelis/draftsync/internal/log"
)

// BeginOrderingEdit marks an ordering arrangement as in progress. While
// the edit is open, inbound snapshots of this player's own branch are
// suppressed so a stale remote echo cannot clobber the arrangement.
func (c *Client) BeginOrderingEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseOrdering {
		return fmt.Errorf("not in ordering phase (%s): %w", c.phase, ErrInvalidOrder)
	}
	c.edit = EditOrdering
	return nil
}

// SubmitOrder commits the final hand. positions[i] is the 1-based final
// position of the i-th card in the working set; positions must be a
// permutation of 1..N. A second submit for the same session is a no-op.
// The edit suppression is lifted when the submission completes, whether
// the store write succeeded or not; a permutation failure keeps the edit
// open for correction.
func (c *Client) SubmitOrder(ctx context.Context, positions []int) error {
	c.mu.Lock()

	if c.phase == PhaseSubmitted {
		c.logger.Log(log.NewOrderRepeatEvent(c.sessionID, c.slot))
		c.mu.Unlock()
		return nil
	}
	if c.phase != PhaseOrdering {
		c.mu.Unlock()
		return fmt.Errorf("not in ordering phase (%s): %w", c.phase, ErrInvalidOrder)
	}

	ordered, err := applyOrder(c.committed, positions)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	// Submission is now in flight; the edit lock lifts on completion
	// regardless of outcome.
	if err := c.store.Update(ctx, c.sessionID, PlayerPath(c.slot, "committedCards"), ordered); err != nil {
		c.edit = EditIdle
		c.mu.Unlock()
		return fmt.Errorf("write order: %w: %v", ErrRemoteWriteFailed, err)
	}
	if err := c.store.Update(ctx, c.sessionID, PlayerPath(c.slot, "ready"), true); err != nil {
		c.edit = EditIdle
		c.mu.Unlock()
		return fmt.Errorf("write ready flag: %w: %v", ErrRemoteWriteFailed, err)
	}

	c.committed = ordered
	c.phase = PhaseSubmitted
	c.edit = EditIdle
	if err := c.saveRecord(); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("cache order: %w", err)
	}

	var names []string
	for _, id := range ordered {
		names = append(names, string(id))
	}
	c.logger.Log(log.NewOrderSubmittedEvent(c.sessionID, c.slot, names))

	final := append([]CardID(nil), ordered...)
	fns := slices.Clone(c.onOrderLocked)
	c.mu.Unlock()

	for _, fn := range fns {
		fn(final)
	}
	return nil
}

// applyOrder validates positions as a permutation of 1..N over the
// working set and returns the reordered hand.
func applyOrder(working []CardID, positions []int) ([]CardID, error) {
	n := len(working)
	if len(positions) != n {
		return nil, fmt.Errorf("got %d positions for %d cards: %w", len(positions), n, ErrInvalidOrder)
	}
	seen := make([]bool, n+1)
	for _, p := range positions {
		if p < 1 || p > n {
			return nil, fmt.Errorf("position %d out of range 1-%d: %w", p, n, ErrInvalidOrder)
		}
		if seen[p] {
			return nil, fmt.Errorf("position %d repeated: %w", p, ErrInvalidOrder)
		}
		seen[p] = true
	}

	ordered := make([]CardID, n)
	for i, p := range positions {
		ordered[p-1] = working[i]
	}
	return ordered, nil
}
