// Package window keeps the per-chat in-memory message buffers: ordered,
// gap-tolerant windows bounded by the lowest and highest message id loaded
// so far. Older pages are prepended, live events appended, and anything
// overlapping falls back to a sort-and-dedup pass.
package window

import (
	"math"
	"sort"

	"github.com/matheus3301/chatsync/internal/protocol"
)

// Window is the loaded slice of one chat's history. Messages are sorted
// ascending by numeric id. MinID/MaxID track the loaded bounds; an empty
// window has MinID=math.MaxInt64 and MaxID=0, which is distinct from a chat
// whose history is genuinely empty.
type Window struct {
	MinID    int64
	MaxID    int64
	Messages []protocol.Message
}

func newWindow() *Window {
	return &Window{MinID: math.MaxInt64, MaxID: 0}
}

// Snapshot returns a copy of the window's messages safe to hand out.
func (w *Window) Snapshot() []protocol.Message {
	return append([]protocol.Message(nil), w.Messages...)
}

// Replace swaps the stored message with the same id for the given one.
// Returns false when no message with that id is loaded.
func (w *Window) Replace(msg protocol.Message) bool {
	for i := range w.Messages {
		if w.Messages[i].ID == msg.ID {
			w.Messages[i] = msg
			return true
		}
	}
	return false
}

// MergeResult reports what a merge changed.
type MergeResult struct {
	// NewestChanged is true when the batch raised the window's MaxID.
	// Newest is then the message that set the new maximum — the chat's
	// new preview.
	NewestChanged bool
	Newest        protocol.Message
}

// Store holds one window per chat with at least one load attempt.
type Store struct {
	windows map[string]*Window
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{windows: make(map[string]*Window)}
}

// Get returns the chat's window, or nil when nothing was loaded yet.
func (s *Store) Get(chatID string) *Window {
	return s.windows[chatID]
}

// Has reports whether a window exists for the chat.
func (s *Store) Has(chatID string) bool {
	_, ok := s.windows[chatID]
	return ok
}

// Clear drops all windows.
func (s *Store) Clear() {
	s.windows = make(map[string]*Window)
}

// Merge inserts a batch of messages into the chat's window, creating the
// window if needed. Callers must pass batches sorted ascending by id —
// history pages arrive newest-first on the wire and have to be reversed
// before merging.
//
// Placement compares the batch bounds with the window bounds: a strictly
// older batch is prepended, a strictly newer one appended. Overlapping or
// interleaved batches take the slow path: append, re-sort the whole window
// and drop duplicate ids. That is O(n log n) and only triggers on
// out-of-order delivery or duplicated pagination.
func (s *Store) Merge(chatID string, incoming []protocol.Message) MergeResult {
	w, ok := s.windows[chatID]
	if !ok {
		w = newWindow()
		s.windows[chatID] = w
	}

	var result MergeResult
	if len(incoming) == 0 {
		return result
	}

	batchMin := int64(math.MaxInt64)
	batchMax := int64(0)
	var newest protocol.Message
	for _, msg := range incoming {
		id := msg.NumericID()
		if id < batchMin {
			batchMin = id
		}
		if id > batchMax {
			batchMax = id
			newest = msg
		}
	}

	switch {
	case batchMax < w.MinID:
		w.Messages = append(append([]protocol.Message(nil), incoming...), w.Messages...)
	case batchMin > w.MaxID:
		w.Messages = append(w.Messages, incoming...)
	default:
		w.Messages = append(w.Messages, incoming...)
		sort.SliceStable(w.Messages, func(i, j int) bool {
			return w.Messages[i].NumericID() < w.Messages[j].NumericID()
		})
		w.Messages = dedupe(w.Messages)
	}

	if w.MaxID < batchMax {
		result.NewestChanged = true
		result.Newest = newest
		w.MaxID = batchMax
	}
	if w.MinID > batchMin {
		w.MinID = batchMin
	}
	return result
}

// dedupe removes adjacent entries with equal ids from a sorted slice,
// keeping the earliest-stored copy.
func dedupe(msgs []protocol.Message) []protocol.Message {
	out := msgs[:0]
	for i, msg := range msgs {
		if i > 0 && msg.ID == out[len(out)-1].ID {
			continue
		}
		out = append(out, msg)
	}
	return out
}
