package draft

import (
	"context"
	"fmt"

	"github.com/peterkuimelis/draftsync/internal/log"
)

// ValidationResult reports whether a candidate pool is safe to commit.
type ValidationResult struct {
	Valid      bool
	Duplicates []CardID // normalized ids shared with the opponent
}

// ValidatePool checks a freshly generated pool against the opponent's
// current state: the intersection of normalized card sets must be empty,
// and the pool must contain no internal duplicates. The caller is
// expected to have re-fetched the opponent's branch immediately before
// calling, since the opponent may have allocated concurrently.
func ValidatePool(pool [][]CardID, opponent PlayerState) ValidationResult {
	theirs := NormalizeCardSet(ClaimedCards(opponent))

	var dups []CardID
	seen := make(map[CardID]bool)
	for _, id := range FlattenPool(pool) {
		norm := NormalizeCardID(id)
		if theirs[norm] && !seen[norm] {
			dups = append(dups, norm)
			seen[norm] = true
		}
	}

	dups = append(dups, InternalDuplicates(pool)...)
	return ValidationResult{Valid: len(dups) == 0, Duplicates: dups}
}

// Err returns nil for a valid result, or the overlap classified as
// ErrDuplicateAcrossPlayers.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("%v: %w", r.Duplicates, ErrDuplicateAcrossPlayers)
}

// AllocatePool generates, validates, and commits this player's pool.
// Each attempt re-fetches the opponent's branch both before generation
// (exclusion set) and after (overlap check), since the opponent may be
// allocating concurrently and the store offers no cross-player lock.
// After the attempt bound the last pool is committed anyway, flagged
// degraded, so setup always makes forward progress. The pool is
// write-once: a pool already in the store is returned as-is.
func (c *Client) AllocatePool(ctx context.Context) (pool [][]CardID, degraded bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, err := c.store.Get(ctx, c.sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("allocate: %w", err)
	}
	if existing := sess.Players[c.slot].Pool; len(existing) > 0 {
		c.pool = existing
		return existing, false, nil
	}

	var alloc Allocation
	for attempt := 1; attempt <= c.validateAttempts; attempt++ {
		if attempt > 1 {
			sess, err = c.store.Get(ctx, c.sessionID)
			if err != nil {
				return nil, false, fmt.Errorf("allocate: %w", err)
			}
		}
		opponent := sess.Players[Opponent(c.slot)]
		excluded := NormalizeCardSet(ClaimedCards(opponent))

		alloc, err = BuildPool(c.catalog, excluded, c.poolCfg)
		if err != nil {
			return nil, false, fmt.Errorf("allocate: %w", err)
		}
		for _, slot := range alloc.ShortSlots {
			c.logger.Log(log.NewPoolShortSlotEvent(c.sessionID, c.slot, slot, len(alloc.Pool[slot]), c.poolCfg.CardsPerSlot))
		}

		// Read back: the opponent may have allocated while we drew.
		sess, err = c.store.Get(ctx, c.sessionID)
		if err != nil {
			return nil, false, fmt.Errorf("allocate readback: %w", err)
		}
		c.opponent = sess.Players[Opponent(c.slot)]

		res := ValidatePool(alloc.Pool, c.opponent)
		if res.Valid {
			if err := c.commitPool(ctx, alloc.Pool); err != nil {
				return nil, false, err
			}
			return alloc.Pool, false, nil
		}

		var dups []string
		for _, d := range res.Duplicates {
			dups = append(dups, string(d))
		}
		c.logger.Log(log.NewPoolRetryEvent(c.sessionID, c.slot, attempt, dups))
		if attempt < c.validateAttempts {
			c.sleep(c.validateBackoff)
		}
	}

	c.logger.Log(log.NewPoolDegradedEvent(c.sessionID, c.slot, c.validateAttempts))
	if err := c.commitPool(ctx, alloc.Pool); err != nil {
		return nil, true, err
	}
	return alloc.Pool, true, nil
}

// commitPool writes the pool to the store and cache. Must hold mu.
func (c *Client) commitPool(ctx context.Context, pool [][]CardID) error {
	if err := c.store.Update(ctx, c.sessionID, PlayerPath(c.slot, "pool"), pool); err != nil {
		return fmt.Errorf("commit pool: %w: %v", ErrRemoteWriteFailed, err)
	}
	c.pool = pool
	if err := c.saveRecord(); err != nil {
		return fmt.Errorf("cache pool: %w", err)
	}
	c.logger.Log(log.NewPoolAllocatedEvent(c.sessionID, c.slot, len(pool), len(FlattenPool(pool))))
	return nil
}
