package core

import (
	"fmt"
	"testing"
)

func TestHistoryUndoRedoRoundTrip(t *testing.T) {
	tab := metaTable()
	itemID := MakeItemID(tab.Rows[0].ID, "title")
	h := NewHistory(0)

	inverse, err := Apply(tab, Command{Kind: CmdSetItemValue, ItemID: itemID, Index: 0, Value: "Edited"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	h.Record(inverse)

	if !h.CanUndo() || h.CanRedo() {
		t.Fatal("after one edit: want CanUndo, not CanRedo")
	}

	if err := h.Undo(tab); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if got := tab.ItemByID(itemID).Joined(); got != "First Title" {
		t.Errorf("after undo = %q, want original", got)
	}
	if h.CanUndo() || !h.CanRedo() {
		t.Fatal("after undo: want CanRedo, not CanUndo")
	}

	if err := h.Redo(tab); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if got := tab.ItemByID(itemID).Joined(); got != "Edited" {
		t.Errorf("after redo = %q, want edited value", got)
	}
}

func TestHistoryLIFOOrder(t *testing.T) {
	tab := metaTable()
	itemID := MakeItemID(tab.Rows[0].ID, "title")
	h := NewHistory(0)

	for i := 1; i <= 3; i++ {
		inverse, err := Apply(tab, Command{Kind: CmdSetItemValue, ItemID: itemID, Index: 0, Value: fmt.Sprintf("v%d", i)})
		if err != nil {
			t.Fatalf("Apply %d: %v", i, err)
		}
		h.Record(inverse)
	}

	wantAfterUndo := []string{"v2", "v1", "First Title"}
	for _, want := range wantAfterUndo {
		if err := h.Undo(tab); err != nil {
			t.Fatalf("Undo: %v", err)
		}
		if got := tab.ItemByID(itemID).Joined(); got != want {
			t.Errorf("after undo = %q, want %q", got, want)
		}
	}
}

func TestHistoryRecordClearsRedo(t *testing.T) {
	tab := metaTable()
	itemID := MakeItemID(tab.Rows[0].ID, "title")
	h := NewHistory(0)

	inv, _ := Apply(tab, Command{Kind: CmdSetItemValue, ItemID: itemID, Index: 0, Value: "a"})
	h.Record(inv)
	if err := h.Undo(tab); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if !h.CanRedo() {
		t.Fatal("redo should be available after undo")
	}

	inv, _ = Apply(tab, Command{Kind: CmdSetItemValue, ItemID: itemID, Index: 0, Value: "b"})
	h.Record(inv)
	if h.CanRedo() {
		t.Error("recording a new edit must clear the redo branch")
	}
}

func TestHistoryDepthCapDropsOldest(t *testing.T) {
	tab := metaTable()
	itemID := MakeItemID(tab.Rows[0].ID, "title")
	h := NewHistory(20)

	for i := 1; i <= 25; i++ {
		inv, err := Apply(tab, Command{Kind: CmdSetItemValue, ItemID: itemID, Index: 0, Value: fmt.Sprintf("v%d", i)})
		if err != nil {
			t.Fatalf("Apply %d: %v", i, err)
		}
		h.Record(inv)
	}

	undone := 0
	for h.CanUndo() {
		if err := h.Undo(tab); err != nil {
			t.Fatalf("Undo: %v", err)
		}
		undone++
	}
	if undone != 20 {
		t.Errorf("undo steps = %d, want depth cap 20", undone)
	}
	// The five oldest entries were dropped, so undo bottoms out at v5.
	if got := tab.ItemByID(itemID).Joined(); got != "v5" {
		t.Errorf("fully undone value = %q, want v5", got)
	}
}

func TestHistoryEmptyBoundaries(t *testing.T) {
	tab := metaTable()
	h := NewHistory(0)

	if err := h.Undo(tab); err != ErrNothingToUndo {
		t.Errorf("Undo on empty = %v, want ErrNothingToUndo", err)
	}
	if err := h.Redo(tab); err != ErrNothingToRedo {
		t.Errorf("Redo on empty = %v, want ErrNothingToRedo", err)
	}
}

func TestHistoryStaleTargetIsNoOp(t *testing.T) {
	tab := metaTable()
	h := NewHistory(0)

	// An inverse whose row no longer exists degrades to a no-op.
	h.Record(Command{Kind: CmdSetItemValue, ItemID: "gone:title", Index: 0, Value: "x"})
	before := tab.Clone()

	if err := h.Undo(tab); err != nil {
		t.Fatalf("Undo of stale entry = %v, want nil", err)
	}
	if !tab.Equal(before) {
		t.Error("stale undo mutated the table")
	}
	if h.CanUndo() || h.CanRedo() {
		t.Error("stale entry should be discarded entirely")
	}
}

func TestHistoryFailedUndoKeepsEntry(t *testing.T) {
	tab := metaTable()
	itemID := MakeItemID(tab.Rows[0].ID, "title")
	h := NewHistory(0)

	// Out-of-range is a real failure, not staleness: the entry stays.
	h.Record(Command{Kind: CmdSetItemValue, ItemID: itemID, Index: 99, Value: "x"})
	if err := h.Undo(tab); err == nil {
		t.Fatal("expected undo failure")
	}
	if !h.CanUndo() {
		t.Error("failed undo should leave the entry on the stack")
	}
}
