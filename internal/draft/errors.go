package draft

import "errors"

// Sentinel errors surfaced by the engine. Call sites wrap them with
// fmt.Errorf("...: %w", err) so errors.Is works at the boundary.
var (
	// ErrAllocationExhausted means the catalog, after excluding the
	// opponent's cards, cannot satisfy the requested pool size.
	ErrAllocationExhausted = errors.New("allocation exhausted: catalog cannot satisfy pool size")

	// ErrDuplicateAcrossPlayers means a freshly generated pool overlaps
	// the opponent's cards. Recoverable: the allocator regenerates up to
	// its retry bound.
	ErrDuplicateAcrossPlayers = errors.New("pool duplicates opponent's cards")

	// ErrInvalidSelection means a pick targeted an occupied slot, an
	// already-selected card, or a card the opponent has claimed.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrInvalidOrder means a submitted order is not a permutation of
	// the working set.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrRemoteWriteFailed means a store write failed and any optimistic
	// local change tied to it has been rolled back.
	ErrRemoteWriteFailed = errors.New("remote write failed")

	// ErrStaleSession classifies cached data belonging to a different
	// session. The client purges such records silently; this sentinel is
	// never returned from engine entry points.
	ErrStaleSession = errors.New("stale session cache")

	// ErrSessionNotFound means the store has no document for the id.
	ErrSessionNotFound = errors.New("session not found")
)
