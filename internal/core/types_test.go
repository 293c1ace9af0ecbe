package core

import "testing"

func TestSplitValues(t *testing.T) {
	tests := []struct {
		name   string
		column string
		raw    string
		want   []string
	}{
		{"identifier column splits on space", "id", "doi:10.1/a omid:br/1", []string{"doi:10.1/a", "omid:br/1"}},
		{"citing identifiers", "citing_id", "doi:10.1/a doi:10.1/b", []string{"doi:10.1/a", "doi:10.1/b"}},
		{"agent column splits on semicolon-space", "author", "Doe, Jane; Roe, Rick", []string{"Doe, Jane", "Roe, Rick"}},
		{"single-value column never splits", "title", "A; B and C", []string{"A; B and C"}},
		{"empty single value", "title", "", []string{""}},
		{"single entry in multi-value column", "publisher", "ACME Press", []string{"ACME Press"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitValues(tt.column, tt.raw)
			if !valuesEqual(got, tt.want) {
				t.Errorf("SplitValues(%q, %q) = %v, want %v", tt.column, tt.raw, got, tt.want)
			}
		})
	}
}

func TestJoinedRoundTrip(t *testing.T) {
	columns := []string{"id", "author", "title", "editor"}
	raws := []string{"doi:10.1/a omid:br/1", "Doe, Jane; Roe, Rick", "Plain Title", ""}

	for i, col := range columns {
		item := &Item{Column: col, Values: SplitValues(col, raws[i])}
		if got := item.Joined(); got != raws[i] {
			t.Errorf("column %q: Joined() = %q, want %q", col, got, raws[i])
		}
	}
}

func TestItemIDSplit(t *testing.T) {
	rowID := NewRowID()
	id := MakeItemID(rowID, "title")

	gotRow, gotCol, ok := id.Split()
	if !ok {
		t.Fatalf("Split(%q) not ok", id)
	}
	if gotRow != rowID || gotCol != "title" {
		t.Errorf("Split(%q) = (%q, %q), want (%q, %q)", id, gotRow, gotCol, rowID, "title")
	}

	for _, bad := range []ItemID{"", "noseparator", ":leading", "trailing:"} {
		if _, _, ok := bad.Split(); ok {
			t.Errorf("Split(%q) ok, want failure", bad)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := metaTable()
	clone := orig.Clone()

	if !orig.Equal(clone) {
		t.Fatal("clone should be value-equal to the original")
	}
	if clone.Rows[0].ID != orig.Rows[0].ID {
		t.Error("clone should preserve row identities")
	}

	clone.Rows[0].Items[1].Values[0] = "mutated"
	if orig.Rows[0].Items[1].Values[0] == "mutated" {
		t.Error("mutating the clone leaked into the original")
	}
}

func TestTableLookups(t *testing.T) {
	tab := metaTable()
	row := tab.Rows[1]

	gotRow, pos := tab.RowByID(row.ID)
	if gotRow != row || pos != 1 {
		t.Errorf("RowByID = (%v, %d), want row at position 1", gotRow, pos)
	}

	item := tab.ItemByID(MakeItemID(row.ID, "title"))
	if item == nil || item.Joined() != "Second Title" {
		t.Errorf("ItemByID returned %v, want the title item", item)
	}

	if got, _ := tab.RowByID("missing"); got != nil {
		t.Error("RowByID should return nil for an unknown identity")
	}
	if got := tab.ItemByID(MakeItemID(row.ID, "missing")); got != nil {
		t.Error("ItemByID should return nil for an unknown column")
	}
	if got := tab.ItemByID("malformed"); got != nil {
		t.Error("ItemByID should return nil for a malformed identity")
	}
}
