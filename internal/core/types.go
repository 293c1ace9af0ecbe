// Package core provides the edit/session engine for validated tabular data.
// This package has no UI dependencies and can be used by any frontend.
package core

import (
	"strings"

	"github.com/google/uuid"
)

// TableKind identifies which of the two supported table schemas a Table holds.
type TableKind string

const (
	KindMeta TableKind = "meta"
	KindCits TableKind = "cits"
)

// Valid reports whether k is one of the supported table kinds.
func (k TableKind) Valid() bool {
	return k == KindMeta || k == KindCits
}

// Origin records how a row or item came to exist in the table.
type Origin string

const (
	OriginExisting Origin = "existing"
	OriginAdded    Origin = "added"

	// OriginDeleted is reserved for tombstone tracking. No command produces
	// it today; deleting a row removes it outright, recoverable via undo.
	OriginDeleted Origin = "deleted"
)

// RowID is a stable row identity assigned at creation and never reused,
// independent of the row's current position.
type RowID string

// NewRowID returns a fresh, never-before-used row identity.
func NewRowID() RowID {
	return RowID(uuid.New().String())
}

// ItemID is a stable cell identity: row identity plus column name.
type ItemID string

// MakeItemID builds the identity for the item in the given row and column.
func MakeItemID(rowID RowID, column string) ItemID {
	return ItemID(string(rowID) + ":" + column)
}

// Split returns the row identity and column name encoded in the item ID.
// ok is false if the ID is not in rowID:column form.
func (id ItemID) Split() (RowID, string, bool) {
	i := strings.LastIndex(string(id), ":")
	if i <= 0 || i == len(id)-1 {
		return "", "", false
	}
	return RowID(id[:i]), string(id[i+1:]), true
}

// Item is one editable cell holding an ordered sequence of values.
// Multi-value columns join their values with the column's separator.
type Item struct {
	Column string
	RowID  RowID
	Origin Origin
	Values []string
	Issues []string // issue identifiers referencing this item, in document order
}

// ID returns the item's stable identity.
func (it *Item) ID() ItemID {
	return MakeItemID(it.RowID, it.Column)
}

// Joined returns the values joined with the column's separator, which is
// also the flat-file representation of the cell.
func (it *Item) Joined() string {
	return strings.Join(it.Values, SeparatorFor(it.Column))
}

// Row is an ordered sequence of items with a stable identity.
type Row struct {
	ID     RowID
	Origin Origin
	Items  []*Item
}

// Item returns the row's item for the given column, or nil.
func (r *Row) Item(column string) *Item {
	for _, it := range r.Items {
		if it.Column == column {
			return it
		}
	}
	return nil
}

// Table is the single source of truth for one validated flat file: an
// ordered sequence of rows under a fixed header, plus the column delimiter
// detected at load time so export reproduces the original format.
type Table struct {
	Kind      TableKind
	Columns   []string
	Delimiter rune
	Rows      []*Row
}

// RowByID returns the row with the given identity and its position, or
// (nil, -1) if absent.
func (t *Table) RowByID(id RowID) (*Row, int) {
	for i, r := range t.Rows {
		if r.ID == id {
			return r, i
		}
	}
	return nil, -1
}

// ItemByID resolves an item identity against the table.
func (t *Table) ItemByID(id ItemID) *Item {
	rowID, column, ok := id.Split()
	if !ok {
		return nil
	}
	row, _ := t.RowByID(rowID)
	if row == nil {
		return nil
	}
	return row.Item(column)
}

// Clone returns a deep copy of the table. Used to snapshot the baseline;
// identities are preserved so the copy diffs cleanly against the original.
func (t *Table) Clone() *Table {
	c := &Table{
		Kind:      t.Kind,
		Columns:   append([]string(nil), t.Columns...),
		Delimiter: t.Delimiter,
		Rows:      make([]*Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		c.Rows[i] = cloneRow(r)
	}
	return c
}

func cloneRow(r *Row) *Row {
	cr := &Row{ID: r.ID, Origin: r.Origin, Items: make([]*Item, len(r.Items))}
	for j, it := range r.Items {
		cr.Items[j] = &Item{
			Column: it.Column,
			RowID:  it.RowID,
			Origin: it.Origin,
			Values: append([]string(nil), it.Values...),
			Issues: append([]string(nil), it.Issues...),
		}
	}
	return cr
}

// Equal reports value equality of two tables: same kind, header, row order
// and per-item value sequences. Identities and issues are ignored so a
// table can be compared against a re-parsed rendering of itself.
func (t *Table) Equal(o *Table) bool {
	if t.Kind != o.Kind || len(t.Columns) != len(o.Columns) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i := range t.Columns {
		if t.Columns[i] != o.Columns[i] {
			return false
		}
	}
	for i := range t.Rows {
		a, b := t.Rows[i], o.Rows[i]
		if len(a.Items) != len(b.Items) {
			return false
		}
		for j := range a.Items {
			if a.Items[j].Column != b.Items[j].Column {
				return false
			}
			if !valuesEqual(a.Items[j].Values, b.Items[j].Values) {
				return false
			}
		}
	}
	return true
}

func valuesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// multiValueSeparators maps multi-value columns to their in-field
// separator, distinct from the column delimiter. Identifier columns use a
// space; responsible-agent columns use "; ". All other columns hold a
// single value.
var multiValueSeparators = map[string]string{
	"id":        " ",
	"citing_id": " ",
	"cited_id":  " ",
	"author":    "; ",
	"publisher": "; ",
	"editor":    "; ",
}

// SeparatorFor returns the in-field separator for a column. Single-value
// columns report a space so Joined never concatenates values unseparated,
// but such columns always hold exactly one value.
func SeparatorFor(column string) string {
	if sep, ok := multiValueSeparators[column]; ok {
		return sep
	}
	return " "
}

// MultiValue reports whether the column may hold more than one value.
func MultiValue(column string) bool {
	_, ok := multiValueSeparators[column]
	return ok
}

// SplitValues splits a flat-file cell into its ordered value sequence.
// Single-value columns yield exactly one value, unsplit.
func SplitValues(column, raw string) []string {
	if !MultiValue(column) {
		return []string{raw}
	}
	return strings.Split(raw, SeparatorFor(column))
}

// IssueSeverity classifies a validation finding.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// Issue is one validation finding carried over from the annotated rendering.
type Issue struct {
	ID       string // stable identifier, e.g. "meta-0"
	Severity IssueSeverity
	Message  string
	Color    string // rendering color/class supplied by the validator
}

// IssueEntry binds an issue to the rows it implicates, in document order.
type IssueEntry struct {
	Issue  Issue
	RowIDs []RowID
}

// IssueIndex maps issue identifiers to the rows they implicate. Rebuilt
// whenever a fresh annotated rendering is parsed.
type IssueIndex map[string]*IssueEntry

// CommandKind identifies one reversible mutation.
type CommandKind string

const (
	CmdSetItemValue CommandKind = "set-item-value"
	CmdAddValue     CommandKind = "add-value-to-item"
	CmdDeleteValue  CommandKind = "delete-item-value"
	CmdClearItem    CommandKind = "clear-item"
	CmdRestoreItem  CommandKind = "restore-item" // inverse of clear-item only
	CmdAddRow       CommandKind = "add-row"
	CmdDeleteRow    CommandKind = "delete-row"
)

// Command is a reversible description of one mutation. Only the fields
// relevant to Kind are populated; Apply validates the rest.
type Command struct {
	Kind CommandKind

	// Item-level targets.
	ItemID ItemID
	Index  int
	Value  string
	Values []string // full prior sequence, for restore-item

	// Row-level targets.
	RowID    RowID
	Position int  // insertion position for add-row; -1 appends
	Row      *Row // snapshot to reinsert, for the inverse of delete-row
}
