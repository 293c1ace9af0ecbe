package core

import "testing"

func TestClassifyItemAgainstBaseline(t *testing.T) {
	tab := metaTable()
	baseline := tab.Clone()

	title := tab.Rows[0].Item("title")
	if got := ClassifyItem(baseline, title); got != StateUnmodified {
		t.Errorf("untouched item = %s, want unmodified", got)
	}

	title.Values = []string{"Changed"}
	if got := ClassifyItem(baseline, title); got != StateEdited {
		t.Errorf("edited item = %s, want edited", got)
	}

	// Reverting to the exact baseline value classifies as unmodified again.
	title.Values = []string{"First Title"}
	if got := ClassifyItem(baseline, title); got != StateUnmodified {
		t.Errorf("reverted item = %s, want unmodified", got)
	}
}

func TestClassifyItemOrderMatters(t *testing.T) {
	tab := metaTable()
	baseline := tab.Clone()

	authors := tab.Rows[0].Item("author")
	authors.Values = []string{"Roe, Rick", "Doe, Jane"} // same set, different order
	if got := ClassifyItem(baseline, authors); got != StateEdited {
		t.Errorf("reordered values = %s, want edited", got)
	}
}

func TestClassifyAddedRowAndItems(t *testing.T) {
	tab := metaTable()
	baseline := tab.Clone()

	if _, err := Apply(tab, Command{Kind: CmdAddRow, Position: -1}); err != nil {
		t.Fatalf("add-row: %v", err)
	}
	added := tab.Rows[len(tab.Rows)-1]

	if got := ClassifyRow(baseline, added); got != StateAdded {
		t.Errorf("added row = %s, want added", got)
	}
	for _, item := range added.Items {
		if got := ClassifyItem(baseline, item); got != StateAdded {
			t.Errorf("item %q in added row = %s, want added", item.Column, got)
		}
	}

	// Editing an item in an added row keeps it classified as added.
	itemID := MakeItemID(added.ID, "title")
	if _, err := Apply(tab, Command{Kind: CmdSetItemValue, ItemID: itemID, Index: 0, Value: "New"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := ClassifyItem(baseline, tab.ItemByID(itemID)); got != StateAdded {
		t.Errorf("edited item in added row = %s, want added", got)
	}
}

func TestClassifyRowIgnoresItemEdits(t *testing.T) {
	tab := metaTable()
	baseline := tab.Clone()

	tab.Rows[0].Item("title").Values = []string{"Changed"}
	if got := ClassifyRow(baseline, tab.Rows[0]); got != StateUnmodified {
		t.Errorf("row with edited item = %s, want unmodified", got)
	}
	if !RowHasChanges(baseline, tab.Rows[0]) {
		t.Error("RowHasChanges should report the edited item")
	}
	if RowHasChanges(baseline, tab.Rows[1]) {
		t.Error("untouched row should report no changes")
	}
}

func TestClassifyItemNilBaseline(t *testing.T) {
	tab := metaTable()
	if got := ClassifyItem(nil, tab.Rows[0].Item("title")); got != StateUnmodified {
		t.Errorf("nil baseline = %s, want unmodified", got)
	}
}

func TestChangesListing(t *testing.T) {
	tab := metaTable()
	baseline := tab.Clone()

	tab.Rows[1].Item("title").Values = []string{"Renamed"}
	if _, err := Apply(tab, Command{Kind: CmdAddRow, Position: -1}); err != nil {
		t.Fatalf("add-row: %v", err)
	}

	changes := Changes(baseline, tab)
	// One edited item plus one added item per column of the new row.
	want := 1 + len(tab.Columns)
	if len(changes) != want {
		t.Fatalf("changes = %d, want %d", len(changes), want)
	}

	first := changes[0]
	if first.State != StateEdited || first.Column != "title" || first.RowIndex != 1 {
		t.Errorf("first change = %+v, want edited title in row 1", first)
	}
	if !valuesEqual(first.Baseline, []string{"Second Title"}) {
		t.Errorf("baseline values = %v, want prior title", first.Baseline)
	}
	if !valuesEqual(first.Current, []string{"Renamed"}) {
		t.Errorf("current values = %v, want new title", first.Current)
	}

	for _, c := range changes[1:] {
		if c.State != StateAdded || c.RowIndex != 3 {
			t.Errorf("change %+v, want added item in the new row", c)
		}
	}
}
