package draft

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/peterkuimelis/draftsync/internal/log"
)

// ClientConfig configures a session client.
type ClientConfig struct {
	Store      SessionStore
	Cache      LocalCache
	Logger     log.EventLogger // defaults to a MemoryLogger
	SessionID  string
	PlayerSlot int // 0 or 1
	Catalog    Catalog

	Pool             PoolConfig
	ValidateAttempts int           // defaults to DefaultValidateAttempts
	ValidateBackoff  time.Duration // defaults to DefaultValidateBackoff
	RequestTTL       time.Duration // defaults to DefaultRequestTTL

	// Test seams. Production leaves these nil.
	Now   func() time.Time
	Sleep func(time.Duration)
}

// Client drives one player's side of session setup: pool allocation,
// card selection, ordering submission, and the ability request protocol.
// All entry points and the snapshot handler serialize on one mutex, so
// handlers never interleave within a client.
type Client struct {
	store   SessionStore
	cache   LocalCache
	logger  log.EventLogger
	catalog Catalog

	sessionID string
	slot      int

	// ctx spans the client's lifetime; Close cancels it so background
	// mirror writes stop with the client.
	ctx    context.Context
	cancel context.CancelFunc

	poolCfg          PoolConfig
	validateAttempts int
	validateBackoff  time.Duration
	requestTTL       time.Duration
	now              func() time.Time
	sleep            func(time.Duration)

	mu         sync.Mutex
	rounds     int
	phase      Phase
	edit       EditState
	pool       [][]CardID
	selections []Selection
	committed  []CardID
	abilities  []AbilityRecord
	opponent   PlayerState
	pending      map[string]AbilityRequest // own outgoing requests by id
	seenRequests map[string]bool           // pending ids observed in a snapshot
	prevUsed     map[string]bool           // last observed remote used-set
	approved     map[string]bool           // approved marks not yet visible remotely
	rolledBack   map[string]bool           // rejection rollbacks not yet visible remotely

	onAbilities   []func([]AbilityRecord)
	onOrderLocked []func([]CardID)
	unsubscribe   func()
}

// NewClient creates a client for one player slot of one session. Call
// Join before anything else.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("client requires a session store")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("client requires a local cache")
	}
	if cfg.SessionID == "" {
		return nil, fmt.Errorf("client requires a session id")
	}
	if cfg.PlayerSlot != 0 && cfg.PlayerSlot != 1 {
		return nil, fmt.Errorf("player slot must be 0 or 1, got %d", cfg.PlayerSlot)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewMemoryLogger()
	}
	attempts := cfg.ValidateAttempts
	if attempts <= 0 {
		attempts = DefaultValidateAttempts
	}
	backoff := cfg.ValidateBackoff
	if backoff <= 0 {
		backoff = DefaultValidateBackoff
	}
	ttl := cfg.RequestTTL
	if ttl <= 0 {
		ttl = DefaultRequestTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		store:            cfg.Store,
		ctx:              ctx,
		cancel:           cancel,
		cache:            cfg.Cache,
		logger:           logger,
		catalog:          cfg.Catalog,
		sessionID:        cfg.SessionID,
		slot:             cfg.PlayerSlot,
		poolCfg:          cfg.Pool.withDefaults(),
		validateAttempts: attempts,
		validateBackoff:  backoff,
		requestTTL:       ttl,
		now:              now,
		sleep:            sleep,
		phase:            PhaseSelecting,
		edit:             EditIdle,
		pending:          make(map[string]AbilityRequest),
		seenRequests:     make(map[string]bool),
		prevUsed:         make(map[string]bool),
		approved:         make(map[string]bool),
		rolledBack:       make(map[string]bool),
	}, nil
}

// Join purges stale cached sessions, restores any cached progress for
// this session, reconciles with the remote document, and subscribes to
// remote changes. Idempotent per client instance.
func (c *Client) Join(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.purgeStaleCache(); err != nil {
		return fmt.Errorf("purge stale cache: %w", err)
	}

	sess, err := c.store.Get(ctx, c.sessionID)
	if err != nil {
		return fmt.Errorf("join session: %w", err)
	}
	c.rounds = sess.Rounds
	c.opponent = sess.Players[Opponent(c.slot)]

	mine := sess.Players[c.slot]
	c.abilities = append([]AbilityRecord(nil), mine.Abilities...)
	c.prevUsed = UsedAbilitySet(mine.Abilities)

	c.restore(mine)

	if c.unsubscribe == nil {
		cancel, err := c.store.Subscribe(ctx, c.sessionID, c.handleSnapshot)
		if err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
		c.unsubscribe = cancel
	}
	return nil
}

// restore rebuilds selection progress from the cache and the remote
// branch, preferring whichever has advanced further. Must hold mu.
func (c *Client) restore(mine PlayerState) {
	if rec, ok, err := c.cache.Load(c.sessionID, c.slot); err == nil && ok {
		c.pool = rec.Pool
		c.selections = rec.Selections
		c.committed = rec.CommittedCards
		c.phase = rec.Phase
		c.logger.Log(log.NewCacheRestoredEvent(c.sessionID, c.slot, len(rec.Selections), rec.Phase.String()))
	}

	if len(mine.Pool) > 0 {
		c.pool = mine.Pool
	}
	if len(mine.Selections) > len(c.selections) {
		c.selections = append([]Selection(nil), mine.Selections...)
	}
	if mine.Ready {
		c.phase = PhaseSubmitted
		c.committed = append([]CardID(nil), mine.CommittedCards...)
	} else if c.rounds > 0 && len(c.selections) >= c.rounds && c.phase == PhaseSelecting {
		c.enterOrdering()
	}
}

// Close stops the remote subscription and cancels background writes.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.cancel()
}

// purgeStaleCache removes cached records belonging to other sessions.
// Stale data is purged silently, never surfaced. Must hold mu.
func (c *Client) purgeStaleCache() error {
	ids, err := c.cache.Sessions()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == c.sessionID {
			continue
		}
		if err := c.cache.Remove(id, c.slot); err != nil {
			return err
		}
		c.logger.Log(log.NewCachePurgedEvent(c.sessionID, c.slot, id))
	}
	return nil
}

// saveRecord persists the current view as one versioned record. Must
// hold mu. Cache failures are logged through the returned error by
// callers that care; selection flow treats them as best effort.
func (c *Client) saveRecord() error {
	return c.cache.Save(PlayerRecord{
		SessionID:      c.sessionID,
		PlayerSlot:     c.slot,
		Phase:          c.phase,
		Pool:           c.pool,
		Selections:     c.selections,
		CommittedCards: c.committed,
		Abilities:      c.abilities,
	})
}

// --- Accessors ---

// Phase returns the current setup phase.
func (c *Client) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// EditState returns the current edit-lock state.
func (c *Client) EditState() EditState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.edit
}

// Rounds returns the session's round count.
func (c *Client) Rounds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rounds
}

// Pool returns the allocated candidate pool.
func (c *Client) Pool() [][]CardID {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]CardID, len(c.pool))
	for i, slot := range c.pool {
		out[i] = append([]CardID(nil), slot...)
	}
	return out
}

// Selections returns the picks made so far.
func (c *Client) Selections() []Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Selection(nil), c.selections...)
}

// Committed returns the working set (ordering phase) or final hand
// (submitted phase).
func (c *Client) Committed() []CardID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CardID(nil), c.committed...)
}

// Abilities returns the player's ability sheet.
func (c *Client) Abilities() []AbilityRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]AbilityRecord(nil), c.abilities...)
}

// OnAbilitiesChanged registers a callback fired whenever the ability
// sheet changes, locally or remotely.
func (c *Client) OnAbilitiesChanged(fn func([]AbilityRecord)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAbilities = append(c.onAbilities, fn)
}

// OnOrderLocked registers a callback fired once when the final order is
// committed.
func (c *Client) OnOrderLocked(fn func([]CardID)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onOrderLocked = append(c.onOrderLocked, fn)
}

// notifyAbilities snapshots state and callbacks under mu and returns a
// closure to invoke after unlocking.
func (c *Client) notifyAbilities() func() {
	abilities := append([]AbilityRecord(nil), c.abilities...)
	fns := slices.Clone(c.onAbilities)
	return func() {
		for _, fn := range fns {
			fn(abilities)
		}
	}
}

// enterOrdering derives the working set from selections in slot order
// and moves to the ordering phase. Must hold mu.
func (c *Client) enterOrdering() {
	sels := append([]Selection(nil), c.selections...)
	sort.Slice(sels, func(i, j int) bool { return sels[i].SlotIndex < sels[j].SlotIndex })
	c.committed = c.committed[:0]
	for _, s := range sels {
		c.committed = append(c.committed, s.CardID)
	}
	c.phase = PhaseOrdering
	c.logger.Log(log.NewSelectionCompleteEvent(c.sessionID, c.slot, len(c.committed)))
}
