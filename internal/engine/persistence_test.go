package engine

import (
	"testing"
)

func TestPlayerStateUpdatesCopiesMarks(t *testing.T) {
	e := newTestEngine(t)
	createSession(t, e, "ROWS1")
	joinPlayer(t, e, "ROWS1", "Ada")
	startSession(t, e, "ROWS1")
	if err := e.MarkCell("ROWS1", "Ada", 3, true); err != nil {
		t.Fatalf("mark: %v", err)
	}

	// Build the row updates the way persistPlayerState does, then keep
	// mutating the live bitset. The captured bytes must not move.
	var updates map[string]any
	err := e.store.View("ROWS1", func(session *Session) {
		updates = playerStateUpdates(session, session.findPlayer("Ada"))
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if err := e.MarkCell("ROWS1", "Ada", 7, true); err != nil {
		t.Fatalf("mark: %v", err)
	}

	captured := Bitset(updates["marks"].([]byte))
	if !captured.Get(3) {
		t.Fatal("captured marks lost the bit set before the copy")
	}
	if captured.Get(7) {
		t.Fatal("captured marks alias the live bitset")
	}
	err = e.store.View("ROWS1", func(session *Session) {
		if !session.findPlayer("Ada").Marks.Get(7) {
			t.Error("live marks lost the later mark")
		}
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestBitsetCloneIsIndependent(t *testing.T) {
	original := NewBitset(BoardCells)
	original.Set(2, true)
	clone := original.Clone()
	original.Set(9, true)
	clone.Set(14, true)

	if !clone.Get(2) {
		t.Fatal("clone lost a bit set before cloning")
	}
	if clone.Get(9) {
		t.Fatal("clone observed a write to the original")
	}
	if original.Get(14) {
		t.Fatal("original observed a write to the clone")
	}
}
