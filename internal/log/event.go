package log

// EventType enumerates all observable engine events.
type EventType int

const (
	EventSessionCreated EventType = iota
	EventPoolAllocated
	EventPoolShortSlot
	EventPoolRetry
	EventPoolDegraded
	EventCardPicked
	EventSelectionComplete
	EventOrderSubmitted
	EventOrderRepeat // second submit for the same session, ignored
	EventAbilityRequested
	EventAbilityApproved
	EventAbilityRejected
	EventAbilityRevoked
	EventAbilityRollback
	EventRequestPurged
	EventSnapshotApplied
	EventSnapshotSuppressed
	EventSnapshotDiscarded
	EventCachePurged
	EventCacheRestored
)

func (e EventType) String() string {
	switch e {
	case EventSessionCreated:
		return "SessionCreated"
	case EventPoolAllocated:
		return "PoolAllocated"
	case EventPoolShortSlot:
		return "PoolShortSlot"
	case EventPoolRetry:
		return "PoolRetry"
	case EventPoolDegraded:
		return "PoolDegraded"
	case EventCardPicked:
		return "CardPicked"
	case EventSelectionComplete:
		return "SelectionComplete"
	case EventOrderSubmitted:
		return "OrderSubmitted"
	case EventOrderRepeat:
		return "OrderRepeat"
	case EventAbilityRequested:
		return "AbilityRequested"
	case EventAbilityApproved:
		return "AbilityApproved"
	case EventAbilityRejected:
		return "AbilityRejected"
	case EventAbilityRevoked:
		return "AbilityRevoked"
	case EventAbilityRollback:
		return "AbilityRollback"
	case EventRequestPurged:
		return "RequestPurged"
	case EventSnapshotApplied:
		return "SnapshotApplied"
	case EventSnapshotSuppressed:
		return "SnapshotSuppressed"
	case EventSnapshotDiscarded:
		return "SnapshotDiscarded"
	case EventCachePurged:
		return "CachePurged"
	case EventCacheRestored:
		return "CacheRestored"
	default:
		return "Unknown"
	}
}

// Event represents a single observable event in a session client.
type Event struct {
	Seq     int       // monotonic sequence number
	Session string    // session id
	Player  int       // acting player slot (0 or 1, -1 if not applicable)
	Type    EventType // event type
	Card    string    // card id (if applicable)
	Ability string    // ability text (if applicable)
	Details string    // human-readable detail string
}
