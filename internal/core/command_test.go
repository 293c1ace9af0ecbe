package core

import (
	"errors"
	"testing"
)

func TestApplySetItemValue(t *testing.T) {
	tab := metaTable()
	itemID := MakeItemID(tab.Rows[0].ID, "title")

	inverse, err := Apply(tab, Command{Kind: CmdSetItemValue, ItemID: itemID, Index: 0, Value: "Renamed"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := tab.ItemByID(itemID).Joined(); got != "Renamed" {
		t.Errorf("value = %q, want Renamed", got)
	}
	if inverse.Kind != CmdSetItemValue || inverse.Value != "First Title" {
		t.Errorf("inverse = %+v, want set back to prior value", inverse)
	}
}

func TestApplySetItemValueAppendsAtLength(t *testing.T) {
	tab := metaTable()
	itemID := MakeItemID(tab.Rows[1].ID, "id")
	item := tab.ItemByID(itemID)
	n := len(item.Values)

	inverse, err := Apply(tab, Command{Kind: CmdSetItemValue, ItemID: itemID, Index: n, Value: "omid:br/9"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(item.Values) != n+1 || item.Values[n] != "omid:br/9" {
		t.Errorf("values = %v, want appended identifier", item.Values)
	}
	if inverse.Kind != CmdDeleteValue || inverse.Index != n {
		t.Errorf("inverse = %+v, want delete at appended index", inverse)
	}
}

func TestApplyAddAndDeleteValue(t *testing.T) {
	tab := metaTable()
	itemID := MakeItemID(tab.Rows[0].ID, "author")

	if _, err := Apply(tab, Command{Kind: CmdAddValue, ItemID: itemID, Index: 1, Value: "New, Author"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	item := tab.ItemByID(itemID)
	if !valuesEqual(item.Values, []string{"Doe, Jane", "New, Author", "Roe, Rick"}) {
		t.Fatalf("values after insert = %v", item.Values)
	}

	inverse, err := Apply(tab, Command{Kind: CmdDeleteValue, ItemID: itemID, Index: 1})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !valuesEqual(item.Values, []string{"Doe, Jane", "Roe, Rick"}) {
		t.Fatalf("values after delete = %v", item.Values)
	}
	if inverse.Kind != CmdAddValue || inverse.Value != "New, Author" || inverse.Index != 1 {
		t.Errorf("inverse = %+v, want add back at index 1", inverse)
	}
}

func TestApplyDeleteLastValueLeavesEmptyItem(t *testing.T) {
	tab := metaTable()
	itemID := MakeItemID(tab.Rows[1].ID, "title")

	if _, err := Apply(tab, Command{Kind: CmdDeleteValue, ItemID: itemID, Index: 0}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	item := tab.ItemByID(itemID)
	if len(item.Values) != 0 {
		t.Errorf("values = %v, want empty sequence", item.Values)
	}
	if item.Joined() != "" {
		t.Errorf("Joined() = %q, want empty cell", item.Joined())
	}
	// The row itself survives.
	if row, _ := tab.RowByID(tab.Rows[1].ID); row == nil {
		t.Error("emptying an item must not remove the row")
	}
}

func TestApplySingleValueColumnRejectsSecondValue(t *testing.T) {
	tab := metaTable()
	titleID := MakeItemID(tab.Rows[0].ID, "title")
	n := len(tab.ItemByID(titleID).Values)

	// The flat file has no way to separate two values in a title cell.
	if _, err := Apply(tab, Command{Kind: CmdAddValue, ItemID: titleID, Index: n, Value: "Another"}); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("add-value on single-value column = %v, want ErrInvalidCommand", err)
	}
	if _, err := Apply(tab, Command{Kind: CmdSetItemValue, ItemID: titleID, Index: n, Value: "Another"}); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("append via set-item-value = %v, want ErrInvalidCommand", err)
	}
	if got := len(tab.ItemByID(titleID).Values); got != n {
		t.Errorf("values = %d, want untouched %d", got, n)
	}

	// An emptied cell may still receive its one value back.
	if _, err := Apply(tab, Command{Kind: CmdClearItem, ItemID: titleID}); err != nil {
		t.Fatalf("clear-item: %v", err)
	}
	if _, err := Apply(tab, Command{Kind: CmdAddValue, ItemID: titleID, Index: 0, Value: "Back"}); err != nil {
		t.Errorf("add-value into empty single-value item = %v, want success", err)
	}

	// Multi-value columns keep accepting appends.
	authorID := MakeItemID(tab.Rows[0].ID, "author")
	an := len(tab.ItemByID(authorID).Values)
	if _, err := Apply(tab, Command{Kind: CmdAddValue, ItemID: authorID, Index: an, Value: "New, Author"}); err != nil {
		t.Errorf("add-value on multi-value column = %v, want success", err)
	}
}

func TestApplyClearAndRestoreItem(t *testing.T) {
	tab := metaTable()
	itemID := MakeItemID(tab.Rows[0].ID, "author")
	prior := append([]string(nil), tab.ItemByID(itemID).Values...)

	inverse, err := Apply(tab, Command{Kind: CmdClearItem, ItemID: itemID})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(tab.ItemByID(itemID).Values) != 0 {
		t.Fatal("clear should empty the value sequence")
	}
	if inverse.Kind != CmdRestoreItem || !valuesEqual(inverse.Values, prior) {
		t.Fatalf("inverse = %+v, want restore of full prior sequence", inverse)
	}

	if _, err := Apply(tab, inverse); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !valuesEqual(tab.ItemByID(itemID).Values, prior) {
		t.Errorf("values = %v, want restored sequence %v", tab.ItemByID(itemID).Values, prior)
	}
}

func TestApplyAddRow(t *testing.T) {
	tab := metaTable()
	n := len(tab.Rows)

	inverse, err := Apply(tab, Command{Kind: CmdAddRow, Position: 1})
	if err != nil {
		t.Fatalf("add-row: %v", err)
	}
	if len(tab.Rows) != n+1 {
		t.Fatalf("rows = %d, want %d", len(tab.Rows), n+1)
	}
	added := tab.Rows[1]
	if added.Origin != OriginAdded {
		t.Errorf("origin = %s, want added", added.Origin)
	}
	if len(added.Items) != len(tab.Columns) {
		t.Errorf("items = %d, want one per column", len(added.Items))
	}
	for _, item := range added.Items {
		if item.Origin != OriginAdded || len(item.Values) != 0 {
			t.Errorf("item %q = %+v, want empty added item", item.Column, item)
		}
	}
	if inverse.Kind != CmdDeleteRow || inverse.RowID != added.ID {
		t.Errorf("inverse = %+v, want delete of the new row", inverse)
	}
}

func TestApplyAddRowAppendsForNegativePosition(t *testing.T) {
	tab := metaTable()
	n := len(tab.Rows)

	if _, err := Apply(tab, Command{Kind: CmdAddRow, Position: -1}); err != nil {
		t.Fatalf("add-row: %v", err)
	}
	if tab.Rows[n].Origin != OriginAdded {
		t.Error("appended row should be last")
	}
}

func TestApplyDeleteRowInverseRestoresExactly(t *testing.T) {
	tab := metaTable()
	row := tab.Rows[1]
	want := tab.Clone()

	inverse, err := Apply(tab, Command{Kind: CmdDeleteRow, RowID: row.ID})
	if err != nil {
		t.Fatalf("delete-row: %v", err)
	}
	if len(tab.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(tab.Rows))
	}
	if r, _ := tab.RowByID(row.ID); r != nil {
		t.Fatal("deleted row still present")
	}

	if _, err := Apply(tab, inverse); err != nil {
		t.Fatalf("reinsert: %v", err)
	}
	if !tab.Equal(want) {
		t.Error("undo of delete-row should restore the exact prior table")
	}
	restored, pos := tab.RowByID(row.ID)
	if restored == nil || pos != 1 {
		t.Errorf("restored row at position %d, want 1 with original identity", pos)
	}
}

func TestApplyInverseLaw(t *testing.T) {
	// For every command kind: apply, then apply the inverse, and the table
	// is value-equal to the starting state.
	tab := metaTable()
	itemID := MakeItemID(tab.Rows[0].ID, "author")
	rowID := tab.Rows[2].ID

	commands := []Command{
		{Kind: CmdSetItemValue, ItemID: itemID, Index: 0, Value: "Changed"},
		{Kind: CmdAddValue, ItemID: itemID, Index: 0, Value: "Inserted"},
		{Kind: CmdDeleteValue, ItemID: itemID, Index: 1},
		{Kind: CmdClearItem, ItemID: itemID},
		{Kind: CmdAddRow, Position: 0},
		{Kind: CmdDeleteRow, RowID: rowID},
	}

	for _, cmd := range commands {
		t.Run(string(cmd.Kind), func(t *testing.T) {
			before := tab.Clone()
			inverse, err := Apply(tab, cmd)
			if err != nil {
				t.Fatalf("Apply(%s): %v", cmd.Kind, err)
			}
			if _, err := Apply(tab, inverse); err != nil {
				t.Fatalf("Apply(inverse of %s): %v", cmd.Kind, err)
			}
			if !tab.Equal(before) {
				t.Errorf("%s: inverse did not restore the prior state", cmd.Kind)
			}
		})
	}
}

func TestApplyFailuresLeaveTableUntouched(t *testing.T) {
	tab := metaTable()
	itemID := MakeItemID(tab.Rows[0].ID, "author")
	before := tab.Clone()

	tests := []struct {
		name string
		cmd  Command
		want error
	}{
		{"unknown kind", Command{Kind: "explode"}, ErrInvalidCommand},
		{"unknown item", Command{Kind: CmdSetItemValue, ItemID: "nope:title"}, ErrItemNotFound},
		{"set index past end", Command{Kind: CmdSetItemValue, ItemID: itemID, Index: 99, Value: "x"}, ErrIndexOutOfRange},
		{"negative index", Command{Kind: CmdAddValue, ItemID: itemID, Index: -1, Value: "x"}, ErrIndexOutOfRange},
		{"delete at length", Command{Kind: CmdDeleteValue, ItemID: itemID, Index: 2}, ErrIndexOutOfRange},
		{"unknown row", Command{Kind: CmdDeleteRow, RowID: "missing"}, ErrRowNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(tab, tt.cmd)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Apply error = %v, want %v", err, tt.want)
			}
			if !tab.Equal(before) {
				t.Error("failed command mutated the table")
			}
		})
	}
}
