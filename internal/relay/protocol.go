package relay

import (
	"encoding/json"

	"github.com/peterkuimelis/draftsync/internal/draft"
)

// Message types for the JSON protocol over the websocket.

// --- Client → Server messages ---

// ClientMessage is the envelope for all client-to-relay messages. ID
// correlates a request with its result.
type ClientMessage struct {
	Type string `json:"type"` // "create", "get", "update", "subscribe", "unsubscribe"
	ID   string `json:"id,omitempty"`

	SessionID string `json:"session_id,omitempty"`

	// For "create"
	Session *draft.Session `json:"session,omitempty"`

	// For "update"
	Path  string          `json:"path,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// --- Server → Client messages ---

// ServerMessage is the envelope for all relay-to-client messages.
type ServerMessage struct {
	Type string `json:"type"` // "result", "error", "snapshot"
	ID   string `json:"id,omitempty"`

	SessionID string         `json:"session_id,omitempty"`
	Session   *draft.Session `json:"session,omitempty"`
	Error     string         `json:"error,omitempty"`
	NotFound  bool           `json:"not_found,omitempty"`
}

// CardInfo is the JSON representation of a card for the catalog
// endpoint.
type CardInfo struct {
	ID     string `json:"id"`
	Rarity string `json:"rarity"`
}

// CreateSessionRequest is the body of POST /api/sessions.
type CreateSessionRequest struct {
	ID               string   `json:"id,omitempty"`
	Rounds           int      `json:"rounds"`
	CreatorID        string   `json:"creatorId,omitempty"`
	AdvancedMode     bool     `json:"advancedMode,omitempty"`
	Player1Name      string   `json:"player1Name,omitempty"`
	Player2Name      string   `json:"player2Name,omitempty"`
	Player1Abilities []string `json:"player1Abilities,omitempty"`
	Player2Abilities []string `json:"player2Abilities,omitempty"`
}
