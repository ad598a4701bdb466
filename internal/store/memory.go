package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/peterkuimelis/draftsync/internal/draft"
)

// MemoryStore is an in-process draft.SessionStore. It backs the relay
// server and the engine tests. Snapshots are delivered to subscribers
// asynchronously, in order per subscriber, matching the contract that
// remote writes are eventually observed rather than immediately
// consistent.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*draft.Session
	subs     map[string]map[int]*subQueue
	nextSub  int
	inflight sync.WaitGroup
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*draft.Session),
		subs:     make(map[string]map[int]*subQueue),
	}
}

// Create implements draft.SessionStore.
func (m *MemoryStore) Create(ctx context.Context, sess *draft.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sess.ID]; ok {
		return fmt.Errorf("session %s already exists", sess.ID)
	}
	m.sessions[sess.ID] = sess.Clone()
	return nil
}

// Get implements draft.SessionStore.
func (m *MemoryStore) Get(ctx context.Context, sessionID string) (*draft.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", sessionID, draft.ErrSessionNotFound)
	}
	return sess.Clone(), nil
}

// Update implements draft.SessionStore.
func (m *MemoryStore) Update(ctx context.Context, sessionID, path string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("update %s: %w", sessionID, draft.ErrSessionNotFound)
	}
	if err := ApplyUpdate(sess, path, value); err != nil {
		return fmt.Errorf("update %s %s: %w", sessionID, path, err)
	}
	for _, q := range m.subs[sessionID] {
		m.inflight.Add(1)
		q.push(sess.Clone())
	}
	return nil
}

// Subscribe implements draft.SessionStore. The current snapshot is
// delivered first, then one snapshot per subsequent mutation.
func (m *MemoryStore) Subscribe(ctx context.Context, sessionID string, fn func(*draft.Session)) (func(), error) {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("subscribe %s: %w", sessionID, draft.ErrSessionNotFound)
	}
	if m.subs[sessionID] == nil {
		m.subs[sessionID] = make(map[int]*subQueue)
	}
	id := m.nextSub
	m.nextSub++
	q := newSubQueue(fn, &m.inflight)
	m.subs[sessionID][id] = q
	m.inflight.Add(1)
	q.push(sess.Clone())
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		delete(m.subs[sessionID], id)
		m.mu.Unlock()
		q.close()
	}
	return cancel, nil
}

// WaitIdle blocks until every queued notification has been handled.
// Test helper; production code relies on eventual delivery instead.
func (m *MemoryStore) WaitIdle() {
	m.inflight.Wait()
}

// --- subQueue: unbounded ordered delivery to one subscriber ---

type subQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*draft.Session
	closed bool
}

func newSubQueue(fn func(*draft.Session), inflight *sync.WaitGroup) *subQueue {
	q := &subQueue{}
	q.cond = sync.NewCond(&q.mu)
	go q.run(fn, inflight)
	return q
}

func (q *subQueue) push(snap *draft.Session) {
	q.mu.Lock()
	q.items = append(q.items, snap)
	q.mu.Unlock()
	q.cond.Signal()
}

func (q *subQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Signal()
}

func (q *subQueue) run(fn func(*draft.Session), inflight *sync.WaitGroup) {
	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.closed {
			// Cancelled: drop anything still queued.
			for range q.items {
				inflight.Done()
			}
			q.items = nil
			q.mu.Unlock()
			return
		}
		snap := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		fn(snap)
		inflight.Done()
	}
}
