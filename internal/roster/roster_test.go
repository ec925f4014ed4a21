package roster

import (
	"testing"

	"github.com/matheus3301/chatsync/internal/protocol"
)

func chat(id, title string) protocol.Chat {
	return protocol.Chat{ID: id, Title: title, OwnerID: "u1"}
}

func TestSetAllAndAdd(t *testing.T) {
	r := New()
	r.SetAll([]protocol.Chat{chat("c1", "general"), chat("c2", "random")})
	r.Add(chat("c3", "new"))

	if r.Len() != 3 {
		t.Fatalf("Len = %d, want 3", r.Len())
	}
	if !r.Contains("c3") || r.Contains("c9") {
		t.Error("Contains results wrong")
	}
	// Order is preserved: add appends.
	snap := r.Snapshot()
	if snap[0].ID != "c1" || snap[2].ID != "c3" {
		t.Errorf("order = %v", snap)
	}
}

func TestUpdatePreview(t *testing.T) {
	r := New()
	r.SetAll([]protocol.Chat{chat("c1", "general")})

	if !r.UpdatePreview("c1", "hello") {
		t.Fatal("UpdatePreview should find c1")
	}
	got := r.Get("c1")
	if got.LastMessageText == nil || *got.LastMessageText != "hello" {
		t.Errorf("preview = %v", got.LastMessageText)
	}
	if r.UpdatePreview("c9", "x") {
		t.Error("UpdatePreview of unknown chat should report false")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	r := New()
	r.SetAll([]protocol.Chat{chat("c1", "general")})

	snap := r.Snapshot()
	snap[0].Title = "mutated"
	if r.Get("c1").Title != "general" {
		t.Error("snapshot mutation leaked into the roster")
	}
}

func TestSetAllReplaces(t *testing.T) {
	r := New()
	r.SetAll([]protocol.Chat{chat("c1", "a"), chat("c2", "b")})
	r.SetAll([]protocol.Chat{chat("c3", "c")})
	if r.Len() != 1 || !r.Contains("c3") {
		t.Errorf("roster after SetAll = %v", r.Snapshot())
	}
}
