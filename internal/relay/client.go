package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/peterkuimelis/draftsync/internal/draft"
)

// Client implements draft.SessionStore over a websocket connection to a
// relay, so the engine runs against a remote store the same way it runs
// against an in-memory one. Snapshots are delivered through one ordered
// queue per subscription, never on the read loop itself: subscriber
// callbacks issue store calls of their own, and those calls need the
// read loop free to receive their replies.
type Client struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan ServerMessage // request id → reply channel
	subs    map[string]map[int]*snapQueue
	nextSub int
	closed  bool
	readErr error
}

// Dial connects to a relay's /ws endpoint, e.g.
// "ws://localhost:8080/ws".
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}
	c := &Client{
		conn:    conn,
		pending: make(map[string]chan ServerMessage),
		subs:    make(map[string]map[int]*snapQueue),
	}
	go c.readLoop()
	return c, nil
}

// Close tears down the connection. Outstanding calls fail.
func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "client closed")
}

func (c *Client) readLoop() {
	for {
		_, data, err := c.conn.Read(context.Background())
		if err != nil {
			c.mu.Lock()
			c.closed = true
			c.readErr = err
			for id, ch := range c.pending {
				close(ch)
				delete(c.pending, id)
			}
			for _, queues := range c.subs {
				for _, q := range queues {
					q.close()
				}
			}
			c.subs = make(map[string]map[int]*snapQueue)
			c.mu.Unlock()
			return
		}

		var msg ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "snapshot":
			if msg.Session == nil {
				continue
			}
			c.mu.Lock()
			queues := make([]*snapQueue, 0, len(c.subs[msg.SessionID]))
			for _, q := range c.subs[msg.SessionID] {
				queues = append(queues, q)
			}
			c.mu.Unlock()
			for i, q := range queues {
				snap := msg.Session
				if i > 0 {
					snap = snap.Clone()
				}
				q.push(snap)
			}
		default:
			c.mu.Lock()
			ch, ok := c.pending[msg.ID]
			if ok {
				delete(c.pending, msg.ID)
			}
			c.mu.Unlock()
			if ok {
				ch <- msg
				close(ch)
			}
		}
	}
}

// call sends one request and waits for the correlated reply.
func (c *Client) call(ctx context.Context, msg ClientMessage) (ServerMessage, error) {
	msg.ID = uuid.NewString()
	ch := make(chan ServerMessage, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ServerMessage{}, fmt.Errorf("relay connection closed: %w", c.readErr)
	}
	c.pending[msg.ID] = ch
	c.mu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		return ServerMessage{}, fmt.Errorf("encode request: %w", err)
	}
	c.writeMu.Lock()
	err = c.conn.Write(ctx, websocket.MessageText, data)
	c.writeMu.Unlock()
	if err != nil {
		c.mu.Lock()
		delete(c.pending, msg.ID)
		c.mu.Unlock()
		return ServerMessage{}, fmt.Errorf("write request: %w", err)
	}

	select {
	case reply, ok := <-ch:
		if !ok {
			return ServerMessage{}, fmt.Errorf("relay connection closed")
		}
		if reply.Type == "error" {
			if reply.NotFound {
				return reply, fmt.Errorf("%s: %w", reply.Error, draft.ErrSessionNotFound)
			}
			return reply, fmt.Errorf("relay: %s", reply.Error)
		}
		return reply, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, msg.ID)
		c.mu.Unlock()
		return ServerMessage{}, ctx.Err()
	}
}

// Create implements draft.SessionStore.
func (c *Client) Create(ctx context.Context, sess *draft.Session) error {
	_, err := c.call(ctx, ClientMessage{Type: "create", Session: sess})
	return err
}

// Get implements draft.SessionStore.
func (c *Client) Get(ctx context.Context, sessionID string) (*draft.Session, error) {
	reply, err := c.call(ctx, ClientMessage{Type: "get", SessionID: sessionID})
	if err != nil {
		return nil, err
	}
	if reply.Session == nil {
		return nil, fmt.Errorf("get %s: empty reply", sessionID)
	}
	return reply.Session, nil
}

// Update implements draft.SessionStore.
func (c *Client) Update(ctx context.Context, sessionID, path string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode update value: %w", err)
	}
	_, err = c.call(ctx, ClientMessage{Type: "update", SessionID: sessionID, Path: path, Value: raw})
	return err
}

// Subscribe implements draft.SessionStore.
func (c *Client) Subscribe(ctx context.Context, sessionID string, fn func(*draft.Session)) (func(), error) {
	q := newSnapQueue(fn)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		q.close()
		return nil, fmt.Errorf("relay connection closed: %w", c.readErr)
	}
	first := len(c.subs[sessionID]) == 0
	if c.subs[sessionID] == nil {
		c.subs[sessionID] = make(map[int]*snapQueue)
	}
	id := c.nextSub
	c.nextSub++
	c.subs[sessionID][id] = q
	c.mu.Unlock()

	drop := func() {
		c.mu.Lock()
		delete(c.subs[sessionID], id)
		c.mu.Unlock()
		q.close()
	}

	if first {
		// The relay replays the current snapshot to the first
		// subscriber; it arrives through the read loop.
		if _, err := c.call(ctx, ClientMessage{Type: "subscribe", SessionID: sessionID}); err != nil {
			drop()
			return nil, err
		}
	} else {
		// Later subscribers fetch their initial snapshot themselves.
		sess, err := c.Get(ctx, sessionID)
		if err != nil {
			drop()
			return nil, err
		}
		q.push(sess)
	}

	cancel := func() {
		c.mu.Lock()
		delete(c.subs[sessionID], id)
		last := len(c.subs[sessionID]) == 0
		if last {
			delete(c.subs, sessionID)
		}
		c.mu.Unlock()
		q.close()
		if last {
			_, _ = c.call(context.Background(), ClientMessage{Type: "unsubscribe", SessionID: sessionID})
		}
	}
	return cancel, nil
}

// --- snapQueue: unbounded ordered delivery to one subscription ---

type snapQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*draft.Session
	closed bool
}

func newSnapQueue(fn func(*draft.Session)) *snapQueue {
	q := &snapQueue{}
	q.cond = sync.NewCond(&q.mu)
	go q.run(fn)
	return q
}

func (q *snapQueue) push(snap *draft.Session) {
	q.mu.Lock()
	q.items = append(q.items, snap)
	q.mu.Unlock()
	q.cond.Signal()
}

func (q *snapQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Signal()
}

func (q *snapQueue) run(fn func(*draft.Session)) {
	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.closed {
			q.items = nil
			q.mu.Unlock()
			return
		}
		snap := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		fn(snap)
	}
}
