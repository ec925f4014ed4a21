// Package directory caches user display names. The server pushes the
// current user's first circle — the users whose names are needed to render
// messages — either wholesale or incrementally; message sender names and
// system notification texts are resolved against the cache.
package directory

import (
	"fmt"

	"github.com/matheus3301/chatsync/internal/protocol"
)

// Directory maps user ids to display names.
type Directory struct {
	names map[string]string
}

// New returns an empty directory.
func New() *Directory {
	return &Directory{names: make(map[string]string)}
}

// Apply ingests a directory refresh: a full refresh replaces the cache
// wholesale, otherwise entries are merged in.
func (d *Directory) Apply(users []protocol.User, isFull bool) {
	if isFull {
		d.names = make(map[string]string, len(users))
	}
	for _, u := range users {
		d.names[u.ID] = u.Name
	}
}

// Name returns the display name for a user id, and whether it is cached.
func (d *Directory) Name(id string) (string, bool) {
	name, ok := d.names[id]
	return name, ok
}

// Len returns the number of cached entries.
func (d *Directory) Len() int {
	return len(d.names)
}

// ResolveSender fills msg.SenderName from the cache. The name is set at
// most once: an already-resolved message is left untouched so consumers
// that key re-renders on the field see exactly one transition. A cache miss
// leaves the name empty — the caller treats that as a loading state until a
// later refresh lands and a subsequent pass resolves it.
func (d *Directory) ResolveSender(msg *protocol.Message) {
	if msg.SenderID == "" || msg.SenderName != "" {
		return
	}
	if name, ok := d.names[msg.SenderID]; ok {
		msg.SenderName = name
	}
}

// NotificationText renders a system notification. The code vocabulary is
// fixed; unknown codes render a generic placeholder rather than failing so
// new server-side notification types degrade gracefully.
func (d *Directory) NotificationText(code, params string) string {
	switch code {
	case "USER_JOINED_CHAT_MSG":
		name := params
		if resolved, ok := d.names[params]; ok {
			name = resolved
		}
		return fmt.Sprintf("%s joined the chat", name)
	default:
		return "unknown event"
	}
}
