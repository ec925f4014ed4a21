// Package roster holds the ordered list of chats the current user belongs
// to, with last-message preview text.
package roster

import "github.com/matheus3301/chatsync/internal/protocol"

// Roster is the ordered chat list. It is owned by the engine and mutated
// only on the engine's run loop; consumers receive copies via Snapshot.
type Roster struct {
	chats []protocol.Chat
}

// New returns an empty roster.
func New() *Roster {
	return &Roster{}
}

// SetAll replaces the roster with the given chats (initial snapshot).
func (r *Roster) SetAll(chats []protocol.Chat) {
	r.chats = append(r.chats[:0:0], chats...)
}

// Add appends a chat to the roster.
func (r *Roster) Add(chat protocol.Chat) {
	r.chats = append(r.chats, chat)
}

// Contains reports whether a chat with the given id is in the roster.
func (r *Roster) Contains(chatID string) bool {
	return r.find(chatID) >= 0
}

// Get returns the chat with the given id, or nil.
func (r *Roster) Get(chatID string) *protocol.Chat {
	i := r.find(chatID)
	if i < 0 {
		return nil
	}
	c := r.chats[i]
	return &c
}

// UpdatePreview sets a chat's last-message text. Returns false when the
// chat is not in the roster.
func (r *Roster) UpdatePreview(chatID, text string) bool {
	i := r.find(chatID)
	if i < 0 {
		return false
	}
	r.chats[i].LastMessageText = &text
	return true
}

// Snapshot returns a copy of the chat list safe to hand to other goroutines.
func (r *Roster) Snapshot() []protocol.Chat {
	return append([]protocol.Chat(nil), r.chats...)
}

// Len returns the number of chats.
func (r *Roster) Len() int {
	return len(r.chats)
}

func (r *Roster) find(chatID string) int {
	for i := range r.chats {
		if r.chats[i].ID == chatID {
			return i
		}
	}
	return -1
}
