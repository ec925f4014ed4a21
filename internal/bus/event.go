package bus

import "time"

// Event represents a state change published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Well-known event kinds published by the engine. Payloads are always
// copies; subscribers must never mutate them.
const (
	KindRosterChanged   = "chat.roster_changed"    // []protocol.Chat
	KindSelectedChanged = "chat.selected_changed"  // *protocol.Chat
	KindMessagesChanged = "chat.messages_changed"  // []protocol.Message
	KindSearchResults   = "user.search_results"    // []protocol.User
	KindStatusChanged   = "session.status_changed" // status.StatusChange
)
