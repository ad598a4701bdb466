package relay

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"sync"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"github.com/peterkuimelis/draftsync/internal/draft"
	"github.com/peterkuimelis/draftsync/internal/store"
)

// Server hosts session documents for both player clients and the
// moderator: REST for creation and one-shot reads, a websocket for the
// store protocol (get/update/subscribe over one connection).
type Server struct {
	store   *store.MemoryStore
	catalog draft.Catalog
	router  chi.Router
}

// NewServer creates a relay around a fresh in-memory store.
func NewServer(catalog draft.Catalog) *Server {
	s := &Server{
		store:   store.NewMemoryStore(),
		catalog: catalog,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// Store exposes the backing store, used by tests and embedded setups.
func (s *Server) Store() *store.MemoryStore {
	return s.store
}

func (s *Server) routes() {
	s.router.Post("/api/sessions", s.handleCreateSession)
	s.router.Get("/api/sessions/{id}", s.handleGetSession)
	s.router.Get("/api/catalog", s.handleCatalog)
	s.router.Get("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	sess := draft.NewSession(draft.SessionOptions{
		ID:               req.ID,
		Rounds:           req.Rounds,
		CreatorID:        req.CreatorID,
		AdvancedMode:     req.AdvancedMode,
		Player1Name:      req.Player1Name,
		Player2Name:      req.Player2Name,
		Player1Abilities: req.Player1Abilities,
		Player2Abilities: req.Player2Abilities,
	})
	if err := s.store.Create(r.Context(), sess); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sess)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	var cards []CardInfo
	for _, id := range s.catalog.Common {
		cards = append(cards, CardInfo{ID: string(id), Rarity: draft.RarityCommon.String()})
	}
	for _, id := range s.catalog.Epic {
		cards = append(cards, CardInfo{ID: string(id), Rarity: draft.RarityEpic.String()})
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cards)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow connections from any origin
	})
	if err != nil {
		log.Printf("WebSocket accept error: %v", err)
		return
	}
	defer wsConn.CloseNow()

	conn := &wsSession{
		server: s,
		conn:   wsConn,
		subs:   make(map[string]func()),
	}
	defer conn.cancelAll()

	ctx := r.Context()
	for {
		_, data, err := wsConn.Read(ctx)
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			conn.write(ctx, ServerMessage{Type: "error", Error: "malformed message"})
			continue
		}
		conn.handle(ctx, msg)
	}
}

// wsSession is one websocket connection's view of the store.
type wsSession struct {
	server *Server
	conn   *websocket.Conn

	mu   sync.Mutex
	subs map[string]func() // session id → unsubscribe
}

func (c *wsSession) handle(ctx context.Context, msg ClientMessage) {
	switch msg.Type {
	case "create":
		if msg.Session == nil {
			c.write(ctx, ServerMessage{Type: "error", ID: msg.ID, Error: "create requires a session"})
			return
		}
		if err := c.server.store.Create(ctx, msg.Session); err != nil {
			c.write(ctx, ServerMessage{Type: "error", ID: msg.ID, Error: err.Error()})
			return
		}
		c.write(ctx, ServerMessage{Type: "result", ID: msg.ID, SessionID: msg.Session.ID})

	case "get":
		sess, err := c.server.store.Get(ctx, msg.SessionID)
		if err != nil {
			c.write(ctx, ServerMessage{Type: "error", ID: msg.ID, Error: err.Error(), NotFound: true})
			return
		}
		c.write(ctx, ServerMessage{Type: "result", ID: msg.ID, SessionID: sess.ID, Session: sess})

	case "update":
		if err := c.server.store.Update(ctx, msg.SessionID, msg.Path, msg.Value); err != nil {
			c.write(ctx, ServerMessage{Type: "error", ID: msg.ID, Error: err.Error()})
			return
		}
		c.write(ctx, ServerMessage{Type: "result", ID: msg.ID, SessionID: msg.SessionID})

	case "subscribe":
		c.mu.Lock()
		_, already := c.subs[msg.SessionID]
		c.mu.Unlock()
		if already {
			c.write(ctx, ServerMessage{Type: "result", ID: msg.ID, SessionID: msg.SessionID})
			return
		}
		sessionID := msg.SessionID
		cancel, err := c.server.store.Subscribe(ctx, sessionID, func(sess *draft.Session) {
			c.write(context.Background(), ServerMessage{Type: "snapshot", SessionID: sessionID, Session: sess})
		})
		if err != nil {
			c.write(ctx, ServerMessage{Type: "error", ID: msg.ID, Error: err.Error(), NotFound: true})
			return
		}
		c.mu.Lock()
		c.subs[sessionID] = cancel
		c.mu.Unlock()
		c.write(ctx, ServerMessage{Type: "result", ID: msg.ID, SessionID: sessionID})

	case "unsubscribe":
		c.mu.Lock()
		cancel := c.subs[msg.SessionID]
		delete(c.subs, msg.SessionID)
		c.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		c.write(ctx, ServerMessage{Type: "result", ID: msg.ID, SessionID: msg.SessionID})

	default:
		c.write(ctx, ServerMessage{Type: "error", ID: msg.ID, Error: "unknown message type " + msg.Type})
	}
}

// write sends one message, serializing concurrent writers.
func (c *wsSession) write(ctx context.Context, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("relay: encode message: %v", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
		log.Printf("relay: websocket write: %v", err)
	}
}

func (c *wsSession) cancelAll() {
	c.mu.Lock()
	cancels := make([]func(), 0, len(c.subs))
	for _, fn := range c.subs {
		cancels = append(cancels, fn)
	}
	c.subs = make(map[string]func())
	c.mu.Unlock()
	for _, fn := range cancels {
		fn()
	}
}
