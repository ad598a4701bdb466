package draft

import (
	"context"
	"fmt"
)

// --- Update paths ---

// PlayerPath builds the update path for a field of one player's branch,
// e.g. PlayerPath(0, "selections") -> "players/0/selections".
func PlayerPath(slot int, field string) string {
	return fmt.Sprintf("players/%d/%s", slot, field)
}

// RequestPath builds the update path for a whole ability request record.
func RequestPath(id string) string {
	return "requests/" + id
}

// RequestStatusPath builds the update path for a request's status field.
func RequestStatusPath(id string) string {
	return "requests/" + id + "/status"
}

// SessionStore is the remote document store shared by both clients and
// the moderator. Update is a partial, path-scoped write; Subscribe
// delivers a snapshot on every remote mutation with no ordering
// guarantee beyond eventual delivery, and may redeliver the current
// snapshot immediately on subscribe.
type SessionStore interface {
	Create(ctx context.Context, sess *Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Update(ctx context.Context, sessionID, path string, value any) error
	Subscribe(ctx context.Context, sessionID string, fn func(*Session)) (cancel func(), err error)
}

// PlayerRecord is one player's durable view of one session: everything
// needed to reconstruct the client after a reload, held as a single
// versioned record rather than scattered keys.
type PlayerRecord struct {
	SessionID      string          `json:"sessionId"`
	PlayerSlot     int             `json:"playerSlot"`
	Phase          Phase           `json:"phase"`
	Pool           [][]CardID      `json:"pool,omitempty"`
	Selections     []Selection     `json:"selections,omitempty"`
	CommittedCards []CardID        `json:"committedCards,omitempty"`
	Abilities      []AbilityRecord `json:"abilities,omitempty"`
	Version        int64           `json:"version"`
}

// LocalCache is the client-side durable cache, keyed by session id and
// player slot. Load returns ok=false when no record exists.
type LocalCache interface {
	Load(sessionID string, slot int) (PlayerRecord, bool, error)
	Save(rec PlayerRecord) error
	Remove(sessionID string, slot int) error
	Sessions() ([]string, error)
}
