package window

import (
	"math"
	"testing"

	"github.com/matheus3301/chatsync/internal/protocol"
)

func msg(id, text string) protocol.Message {
	return protocol.Message{ID: id, ChatID: "c1", Text: text}
}

func ids(msgs []protocol.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func equalIDs(got []protocol.Message, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i, m := range got {
		if m.ID != want[i] {
			return false
		}
	}
	return true
}

func TestMergeIntoEmptyWindow(t *testing.T) {
	s := NewStore()
	res := s.Merge("c1", []protocol.Message{msg("10", "hi")})

	if !res.NewestChanged || res.Newest.Text != "hi" {
		t.Errorf("result = %+v, want newest hi", res)
	}
	w := s.Get("c1")
	if w.MinID != 10 || w.MaxID != 10 {
		t.Errorf("bounds = [%d, %d], want [10, 10]", w.MinID, w.MaxID)
	}
	if !equalIDs(w.Messages, "10") {
		t.Errorf("messages = %v", ids(w.Messages))
	}
}

// The three-step pagination scenario: newest page first, then an older page
// (prepend), then a gap-filling single message (slow path).
func TestMergePaginationScenario(t *testing.T) {
	s := NewStore()

	res := s.Merge("c1", []protocol.Message{msg("10", "hi")})
	if !res.NewestChanged || res.Newest.Text != "hi" {
		t.Fatalf("step 1 result = %+v", res)
	}

	// Older page, already ascending: strictly below MinID, prepended.
	res = s.Merge("c1", []protocol.Message{msg("7", "older"), msg("9", "older2")})
	if res.NewestChanged {
		t.Error("older page must not change the newest message")
	}
	w := s.Get("c1")
	if w.MinID != 7 || w.MaxID != 10 {
		t.Errorf("bounds = [%d, %d], want [7, 10]", w.MinID, w.MaxID)
	}
	if !equalIDs(w.Messages, "7", "9", "10") {
		t.Errorf("messages = %v", ids(w.Messages))
	}

	// Gap fill: overlaps the loaded range, takes the sort path.
	res = s.Merge("c1", []protocol.Message{msg("8", "gap")})
	if res.NewestChanged {
		t.Error("gap fill must not change the newest message")
	}
	w = s.Get("c1")
	if w.MinID != 7 || w.MaxID != 10 {
		t.Errorf("bounds = [%d, %d], want [7, 10]", w.MinID, w.MaxID)
	}
	if !equalIDs(w.Messages, "7", "8", "9", "10") {
		t.Errorf("messages = %v", ids(w.Messages))
	}
}

func TestMergeAppendsNewer(t *testing.T) {
	s := NewStore()
	s.Merge("c1", []protocol.Message{msg("3", "a"), msg("4", "b")})
	res := s.Merge("c1", []protocol.Message{msg("5", "c"), msg("6", "d")})

	if !res.NewestChanged || res.Newest.ID != "6" {
		t.Errorf("result = %+v, want newest id 6", res)
	}
	if !equalIDs(s.Get("c1").Messages, "3", "4", "5", "6") {
		t.Errorf("messages = %v", ids(s.Get("c1").Messages))
	}
}

func TestMergeDeduplicates(t *testing.T) {
	s := NewStore()
	s.Merge("c1", []protocol.Message{msg("3", "once")})
	res := s.Merge("c1", []protocol.Message{msg("3", "twice")})

	if res.NewestChanged {
		t.Error("duplicate must not change the newest message")
	}
	w := s.Get("c1")
	if !equalIDs(w.Messages, "3") {
		t.Fatalf("messages = %v, want single id 3", ids(w.Messages))
	}
	// The earliest-stored copy wins, so a resolved sender name survives.
	if w.Messages[0].Text != "once" {
		t.Errorf("text = %q, want once", w.Messages[0].Text)
	}
}

func TestMergeOutOfOrderPreservesNewestPreview(t *testing.T) {
	s := NewStore()
	res := s.Merge("c1", []protocol.Message{msg("5", "newest")})
	if !res.NewestChanged || res.Newest.Text != "newest" {
		t.Fatalf("result = %+v", res)
	}
	// A late older message must not become the preview.
	res = s.Merge("c1", []protocol.Message{msg("3", "stale")})
	if res.NewestChanged {
		t.Error("older message must not report a preview change")
	}
}

func TestMergeBoundsAreMonotonic(t *testing.T) {
	s := NewStore()
	batches := [][]protocol.Message{
		{msg("10", "a")},
		{msg("7", "b"), msg("9", "c")},
		{msg("8", "d")},
		{msg("15", "e")},
	}
	prevMin := int64(math.MaxInt64)
	prevMax := int64(0)
	for _, batch := range batches {
		s.Merge("c1", batch)
		w := s.Get("c1")
		if w.MinID > prevMin {
			t.Errorf("MinID grew: %d -> %d", prevMin, w.MinID)
		}
		if w.MaxID < prevMax {
			t.Errorf("MaxID shrank: %d -> %d", prevMax, w.MaxID)
		}
		prevMin, prevMax = w.MinID, w.MaxID
	}
}

func TestMergeEmptyBatchCreatesWindow(t *testing.T) {
	s := NewStore()
	res := s.Merge("c1", nil)
	if res.NewestChanged {
		t.Error("empty batch changed the newest message")
	}
	w := s.Get("c1")
	if w == nil {
		t.Fatal("window should exist after a load attempt")
	}
	if w.MinID != math.MaxInt64 || w.MaxID != 0 {
		t.Errorf("bounds = [%d, %d], want empty sentinel", w.MinID, w.MaxID)
	}
}

func TestMergeSortedAscendingAlways(t *testing.T) {
	s := NewStore()
	s.Merge("c1", []protocol.Message{msg("20", "a")})
	s.Merge("c1", []protocol.Message{msg("5", "b"), msg("12", "c")})
	s.Merge("c1", []protocol.Message{msg("12", "dup"), msg("18", "d")})

	w := s.Get("c1")
	seen := map[string]bool{}
	var prev int64 = -1
	for _, m := range w.Messages {
		if seen[m.ID] {
			t.Fatalf("duplicate id %s", m.ID)
		}
		seen[m.ID] = true
		if m.NumericID() <= prev {
			t.Fatalf("not strictly ascending: %v", ids(w.Messages))
		}
		prev = m.NumericID()
	}
}

func TestReplace(t *testing.T) {
	s := NewStore()
	s.Merge("c1", []protocol.Message{msg("3", "typo")})

	w := s.Get("c1")
	if !w.Replace(msg("3", "fixed")) {
		t.Fatal("Replace should find id 3")
	}
	if w.Messages[0].Text != "fixed" {
		t.Errorf("text = %q", w.Messages[0].Text)
	}
	if w.Replace(msg("99", "ghost")) {
		t.Error("Replace of unloaded id should report false")
	}
}

func TestClear(t *testing.T) {
	s := NewStore()
	s.Merge("c1", []protocol.Message{msg("3", "a")})
	s.Clear()
	if s.Has("c1") {
		t.Error("store should be empty after Clear")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewStore()
	s.Merge("c1", []protocol.Message{msg("3", "a")})

	snap := s.Get("c1").Snapshot()
	snap[0].Text = "mutated"
	if s.Get("c1").Messages[0].Text != "a" {
		t.Error("snapshot mutation leaked into the window")
	}
}
