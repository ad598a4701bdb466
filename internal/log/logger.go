package log

import (
	"fmt"
	"io"
	"strings"
)

// EventLogger is the interface for logging engine events.
type EventLogger interface {
	Log(event Event)
	Events() []Event
}

// --- MemoryLogger: stores events in memory for test assertions ---

type MemoryLogger struct {
	events []Event
	seq    int
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (l *MemoryLogger) Log(event Event) {
	l.seq++
	event.Seq = l.seq
	l.events = append(l.events, event)
}

func (l *MemoryLogger) Events() []Event {
	return l.events
}

// EventsOfType returns all events matching the given type.
func (l *MemoryLogger) EventsOfType(t EventType) []Event {
	var result []Event
	for _, e := range l.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// LastEvent returns the most recent event, or a zero event if none.
func (l *MemoryLogger) LastEvent() Event {
	if len(l.events) == 0 {
		return Event{}
	}
	return l.events[len(l.events)-1]
}

// --- TextLogger: writes human-readable lines to an io.Writer ---

type TextLogger struct {
	MemoryLogger
	w io.Writer
}

func NewTextLogger(w io.Writer) *TextLogger {
	return &TextLogger{w: w}
}

func (l *TextLogger) Log(event Event) {
	l.MemoryLogger.Log(event)
	fmt.Fprintln(l.w, FormatEvent(event))
}

// --- Formatting ---

// playerName returns "P1" or "P2" for display, or "--" for no player.
func playerName(p int) string {
	if p < 0 {
		return "--"
	}
	return fmt.Sprintf("P%d", p+1)
}

// FormatEvent formats a single event as a human-readable line.
func FormatEvent(e Event) string {
	sess := e.Session
	if len(sess) > 8 {
		sess = sess[:8]
	}
	// Pad session to 8 chars for alignment
	for len(sess) < 8 {
		sess += " "
	}

	return fmt.Sprintf("%s %s %-18s| %s", sess, playerName(e.Player), e.Type, e.Details)
}

// FormatAll formats all events as a multi-line string.
func FormatAll(events []Event) string {
	var sb strings.Builder
	for _, e := range events {
		sb.WriteString(FormatEvent(e))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// --- Helper constructors for common events ---

func NewSessionCreatedEvent(session string, rounds int) Event {
	return Event{
		Session: session,
		Player:  -1,
		Type:    EventSessionCreated,
		Details: fmt.Sprintf("session created (%d rounds)", rounds),
	}
}

func NewPoolAllocatedEvent(session string, player, slots, cards int) Event {
	return Event{
		Session: session,
		Player:  player,
		Type:    EventPoolAllocated,
		Details: fmt.Sprintf("%s pool allocated: %d slots, %d cards", playerName(player), slots, cards),
	}
}

func NewPoolShortSlotEvent(session string, player, slot, got, want int) Event {
	return Event{
		Session: session,
		Player:  player,
		Type:    EventPoolShortSlot,
		Details: fmt.Sprintf("slot %d short: %d of %d candidates", slot, got, want),
	}
}

func NewPoolRetryEvent(session string, player, attempt int, duplicates []string) Event {
	return Event{
		Session: session,
		Player:  player,
		Type:    EventPoolRetry,
		Details: fmt.Sprintf("attempt %d overlaps opponent (%s), regenerating", attempt, strings.Join(duplicates, ", ")),
	}
}

func NewPoolDegradedEvent(session string, player, attempts int) Event {
	return Event{
		Session: session,
		Player:  player,
		Type:    EventPoolDegraded,
		Details: fmt.Sprintf("committing pool after %d failed validations", attempts),
	}
}

func NewCardPickedEvent(session string, player, slot int, card string) Event {
	return Event{
		Session: session,
		Player:  player,
		Type:    EventCardPicked,
		Card:    card,
		Details: fmt.Sprintf("%s picks %s from slot %d", playerName(player), card, slot),
	}
}

func NewSelectionCompleteEvent(session string, player, count int) Event {
	return Event{
		Session: session,
		Player:  player,
		Type:    EventSelectionComplete,
		Details: fmt.Sprintf("%s selected all %d cards, entering ordering", playerName(player), count),
	}
}

func NewOrderSubmittedEvent(session string, player int, order []string) Event {
	return Event{
		Session: session,
		Player:  player,
		Type:    EventOrderSubmitted,
		Details: fmt.Sprintf("%s locks order: %s", playerName(player), strings.Join(order, ", ")),
	}
}

func NewOrderRepeatEvent(session string, player int) Event {
	return Event{
		Session: session,
		Player:  player,
		Type:    EventOrderRepeat,
		Details: fmt.Sprintf("%s already submitted, ignoring repeat", playerName(player)),
	}
}

func NewAbilityRequestedEvent(session string, player int, ability, requestID string) Event {
	return Event{
		Session: session,
		Player:  player,
		Type:    EventAbilityRequested,
		Ability: ability,
		Details: fmt.Sprintf("%s requests %q (%s)", playerName(player), ability, requestID),
	}
}

func NewAbilityApprovedEvent(session string, player int, ability string) Event {
	return Event{
		Session: session,
		Player:  player,
		Type:    EventAbilityApproved,
		Ability: ability,
		Details: fmt.Sprintf("%q approved for %s", ability, playerName(player)),
	}
}

func NewAbilityRejectedEvent(session string, player int, ability string) Event {
	return Event{
		Session: session,
		Player:  player,
		Type:    EventAbilityRejected,
		Ability: ability,
		Details: fmt.Sprintf("%q rejected for %s, rolled back", ability, playerName(player)),
	}
}

func NewAbilityRevokedEvent(session string, player int, ability string) Event {
	return Event{
		Session: session,
		Player:  player,
		Type:    EventAbilityRevoked,
		Ability: ability,
		Details: fmt.Sprintf("%q revoked, available again for %s", ability, playerName(player)),
	}
}

func NewAbilityRollbackEvent(session string, player int, ability, reason string) Event {
	return Event{
		Session: session,
		Player:  player,
		Type:    EventAbilityRollback,
		Ability: ability,
		Details: fmt.Sprintf("%q rolled back (%s)", ability, reason),
	}
}

func NewRequestPurgedEvent(session string, player int, requestID string) Event {
	return Event{
		Session: session,
		Player:  player,
		Type:    EventRequestPurged,
		Details: fmt.Sprintf("stale pending request %s purged", requestID),
	}
}

func NewSnapshotAppliedEvent(session string, player int) Event {
	return Event{
		Session: session,
		Player:  player,
		Type:    EventSnapshotApplied,
		Details: "remote snapshot applied",
	}
}

func NewSnapshotSuppressedEvent(session string, player int) Event {
	return Event{
		Session: session,
		Player:  player,
		Type:    EventSnapshotSuppressed,
		Details: "own-branch snapshot suppressed during ordering edit",
	}
}

func NewSnapshotDiscardedEvent(session string, player int, got string) Event {
	return Event{
		Session: session,
		Player:  player,
		Type:    EventSnapshotDiscarded,
		Details: fmt.Sprintf("snapshot for session %s discarded", got),
	}
}

func NewCachePurgedEvent(session string, player int, stale string) Event {
	return Event{
		Session: session,
		Player:  player,
		Type:    EventCachePurged,
		Details: fmt.Sprintf("purged cache for stale session %s", stale),
	}
}

func NewCacheRestoredEvent(session string, player, selections int, phase string) Event {
	return Event{
		Session: session,
		Player:  player,
		Type:    EventCacheRestored,
		Details: fmt.Sprintf("%s restored from cache: %d selections, phase %s", playerName(player), selections, phase),
	}
}
