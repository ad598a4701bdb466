package draft

import "time"

// --- Identifiers ---

// CardID identifies a card in the catalog. Comparisons between pools,
// selections, and committed hands always go through NormalizeCardID first.
type CardID string

// --- Rarity ---

// Rarity buckets the catalog into the two draw categories.
type Rarity int

const (
	RarityCommon Rarity = iota
	RarityEpic
)

func (r Rarity) String() string {
	switch r {
	case RarityCommon:
		return "common"
	case RarityEpic:
		return "epic"
	default:
		return "unknown"
	}
}

// ParseRarity parses a rarity name as it appears in catalog files.
func ParseRarity(s string) (Rarity, bool) {
	switch s {
	case "common":
		return RarityCommon, true
	case "epic":
		return RarityEpic, true
	default:
		return 0, false
	}
}

// --- Phase ---

// Phase is the setup-phase state of one player's client.
type Phase int

const (
	PhaseSelecting Phase = iota
	PhaseOrdering
	PhaseSubmitted
)

func (p Phase) String() string {
	switch p {
	case PhaseSelecting:
		return "Selecting"
	case PhaseOrdering:
		return "Ordering"
	case PhaseSubmitted:
		return "Submitted"
	default:
		return "Unknown"
	}
}

// --- EditState ---

// EditState tracks whether the client owns an in-flight ordering edit.
// While EditOrdering, inbound snapshots of the client's own branch are
// suppressed so a stale remote echo cannot clobber the arrangement.
type EditState int

const (
	EditIdle EditState = iota
	EditOrdering
)

func (e EditState) String() string {
	switch e {
	case EditIdle:
		return "Idle"
	case EditOrdering:
		return "Ordering"
	default:
		return "Unknown"
	}
}

// --- Session document ---

// SessionStatus is the lifecycle status of a session document.
type SessionStatus string

const (
	StatusWaiting SessionStatus = "waiting"
	StatusActive  SessionStatus = "active"
	StatusDone    SessionStatus = "done"
)

// Selection records one picked card: which pool slot it came from and
// which of the slot's candidates was taken.
type Selection struct {
	SlotIndex int    `json:"slotIndex"`
	CardID    CardID `json:"cardId"`
}

// AbilityRecord is one ability on a player's sheet. Used flips to true
// only through an approved request and back to false only through a
// moderator revocation.
type AbilityRecord struct {
	Text string `json:"text"`
	Used bool   `json:"used"`
}

// RequestStatus is the moderator-controlled status of an ability request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// AbilityRequest is the remote record created when a player invokes an
// unused ability. Only the moderator moves it out of pending.
type AbilityRequest struct {
	ID          string        `json:"id"`
	PlayerSlot  int           `json:"playerSlot"`
	PlayerName  string        `json:"playerName,omitempty"`
	AbilityText string        `json:"abilityText"`
	Status      RequestStatus `json:"status"`
	Timestamp   time.Time     `json:"timestamp"`
}

// PlayerState is one player's branch of the session document. Each client
// writes only its own branch and reads the opponent's.
type PlayerState struct {
	Name           string          `json:"name"`
	Pool           [][]CardID      `json:"pool,omitempty"`
	Selections     []Selection     `json:"selections,omitempty"`
	CommittedCards []CardID        `json:"committedCards,omitempty"`
	Abilities      []AbilityRecord `json:"abilities,omitempty"`
	CardsSelected  bool            `json:"cardsSelected,omitempty"`
	Ready          bool            `json:"ready,omitempty"`
}

// Session is the shared session document held by the remote store.
type Session struct {
	ID           string                    `json:"id"`
	Rounds       int                       `json:"rounds"`
	Status       SessionStatus             `json:"status"`
	CreatorID    string                    `json:"creatorId,omitempty"`
	AdvancedMode bool                      `json:"advancedMode,omitempty"`
	Players      [2]PlayerState            `json:"players"`
	Requests     map[string]AbilityRequest `json:"requests,omitempty"`
}

// --- Defaults ---

const (
	DefaultSlotCount    = 20
	DefaultCardsPerSlot = 3
	DefaultCommonRatio  = 0.7

	// Every third slot prefers an epic candidate.
	EpicSlotInterval = 3

	DefaultValidateAttempts = 5
	DefaultValidateBackoff  = 300 * time.Millisecond

	// Pending requests older than this are treated as abandoned.
	DefaultRequestTTL = 5 * time.Minute
)
