package draft

import "github.com/google/uuid"

// SessionOptions configures NewSession.
type SessionOptions struct {
	ID           string // preset id for tournament-style sessions; empty means generate
	Rounds       int
	CreatorID    string
	AdvancedMode bool
	Player1Name  string
	Player2Name  string
	// Moderator-authored ability sheets, one list per player.
	Player1Abilities []string
	Player2Abilities []string
}

// NewSession creates a fresh session document with empty player branches.
func NewSession(opts SessionOptions) *Session {
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	rounds := opts.Rounds
	if rounds <= 0 {
		rounds = DefaultSlotCount
	}
	s := &Session{
		ID:           id,
		Rounds:       rounds,
		Status:       StatusWaiting,
		CreatorID:    opts.CreatorID,
		AdvancedMode: opts.AdvancedMode,
		Requests:     make(map[string]AbilityRequest),
	}
	s.Players[0] = PlayerState{Name: opts.Player1Name, Abilities: abilitySheet(opts.Player1Abilities)}
	s.Players[1] = PlayerState{Name: opts.Player2Name, Abilities: abilitySheet(opts.Player2Abilities)}
	return s
}

func abilitySheet(texts []string) []AbilityRecord {
	var out []AbilityRecord
	for _, t := range texts {
		if rec, ok := NormalizeAbility(t); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Opponent returns the index of the other player slot.
func Opponent(slot int) int {
	return 1 - slot
}

// Player returns a pointer to the given player's branch.
func (s *Session) Player(slot int) *PlayerState {
	return &s.Players[slot]
}

// PendingRequests returns all pending ability requests for the given
// player slot.
func (s *Session) PendingRequests(slot int) []AbilityRequest {
	var out []AbilityRequest
	for _, r := range s.Requests {
		if r.PlayerSlot == slot && r.Status == RequestPending {
			out = append(out, r)
		}
	}
	return out
}

// Clone returns a deep copy of the session. Store implementations hand
// clones to subscribers so callbacks cannot alias store-owned state.
func (s *Session) Clone() *Session {
	out := *s
	for i := range s.Players {
		out.Players[i] = s.Players[i].clone()
	}
	if s.Requests != nil {
		out.Requests = make(map[string]AbilityRequest, len(s.Requests))
		for k, v := range s.Requests {
			out.Requests[k] = v
		}
	}
	return &out
}

func (ps PlayerState) clone() PlayerState {
	out := ps
	if ps.Pool != nil {
		out.Pool = make([][]CardID, len(ps.Pool))
		for i, slot := range ps.Pool {
			out.Pool[i] = append([]CardID(nil), slot...)
		}
	}
	out.Selections = append([]Selection(nil), ps.Selections...)
	out.CommittedCards = append([]CardID(nil), ps.CommittedCards...)
	out.Abilities = append([]AbilityRecord(nil), ps.Abilities...)
	return out
}
