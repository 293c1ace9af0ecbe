package core

// diff.go is the change tracker. It classifies rows and items of the
// current table against the immutable baseline snapshot taken at load time.
// Only this file reads the baseline; the command executor never touches it.

// ChangeState classifies a row or item relative to the baseline.
type ChangeState string

const (
	StateUnmodified ChangeState = "unmodified"
	StateEdited     ChangeState = "edited"
	StateAdded      ChangeState = "added"

	// StateDeleted is reserved for tombstone tracking alongside
	// OriginDeleted. Nothing produces it yet.
	StateDeleted ChangeState = "deleted"
)

// ClassifyItem returns the change state of one item: added if it (or its
// owning row) was created during this session, edited if its value sequence
// differs from the baseline item with the same identity, unmodified
// otherwise. Difference is exact sequence inequality, order included.
func ClassifyItem(baseline *Table, item *Item) ChangeState {
	if item.Origin == OriginAdded {
		return StateAdded
	}
	if item.Origin == OriginDeleted {
		return StateDeleted
	}
	if baseline == nil {
		return StateUnmodified
	}
	base := baseline.ItemByID(item.ID())
	if base == nil {
		// Existing item with no baseline counterpart: identity was
		// reassigned across a reparse, treat as added.
		return StateAdded
	}
	if !valuesEqual(base.Values, item.Values) {
		return StateEdited
	}
	return StateUnmodified
}

// ClassifyRow returns the change state of a row based on its own origin,
// independent of its items: a row stays unmodified even when it contains
// edited items.
func ClassifyRow(baseline *Table, row *Row) ChangeState {
	switch row.Origin {
	case OriginAdded:
		return StateAdded
	case OriginDeleted:
		return StateDeleted
	}
	return StateUnmodified
}

// RowHasChanges reports whether a row would appear under a "Show Changes"
// filter: its own classification or any item's is not unmodified.
func RowHasChanges(baseline *Table, row *Row) bool {
	if ClassifyRow(baseline, row) != StateUnmodified {
		return true
	}
	for _, item := range row.Items {
		if ClassifyItem(baseline, item) != StateUnmodified {
			return true
		}
	}
	return false
}

// ItemChange describes one non-unmodified item for change listings.
type ItemChange struct {
	ItemID   ItemID      `json:"itemId"`
	RowIndex int         `json:"rowIndex"`
	Column   string      `json:"column"`
	State    ChangeState `json:"state"`
	Baseline []string    `json:"baseline,omitempty"`
	Current  []string    `json:"current"`
}

// Changes lists every edited or added item in the current table, in
// document order.
func Changes(baseline, current *Table) []ItemChange {
	var out []ItemChange
	for i, row := range current.Rows {
		for _, item := range row.Items {
			state := ClassifyItem(baseline, item)
			if state == StateUnmodified {
				continue
			}
			change := ItemChange{
				ItemID:   item.ID(),
				RowIndex: i,
				Column:   item.Column,
				State:    state,
				Current:  append([]string(nil), item.Values...),
			}
			if baseline != nil {
				if base := baseline.ItemByID(item.ID()); base != nil {
					change.Baseline = append([]string(nil), base.Values...)
				}
			}
			out = append(out, change)
		}
	}
	return out
}
