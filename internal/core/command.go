package core

import "fmt"

// command.go is the command executor: it applies a single structural or
// content mutation to a Table and produces the inverse command for the
// history log. Every operation is atomic: all validation happens before the
// first write, so a failed command leaves the table untouched.
//
// The executor does not record history. The caller decides whether a
// successful command should be recorded, which keeps replay during redo
// from re-recording itself.

// Apply executes cmd against t and returns the inverse command. Applying
// the inverse immediately afterwards restores a table value-equal to the
// state before cmd.
func Apply(t *Table, cmd Command) (Command, error) {
	switch cmd.Kind {
	case CmdSetItemValue:
		return applySetItemValue(t, cmd)
	case CmdAddValue:
		return applyAddValue(t, cmd)
	case CmdDeleteValue:
		return applyDeleteValue(t, cmd)
	case CmdClearItem:
		return applyClearItem(t, cmd)
	case CmdRestoreItem:
		return applyRestoreItem(t, cmd)
	case CmdAddRow:
		return applyAddRow(t, cmd)
	case CmdDeleteRow:
		return applyDeleteRow(t, cmd)
	default:
		return Command{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidCommand, cmd.Kind)
	}
}

// applySetItemValue replaces one value, or appends when the index equals
// the current length. Appending is only valid where the column can hold
// more than one value.
func applySetItemValue(t *Table, cmd Command) (Command, error) {
	item := t.ItemByID(cmd.ItemID)
	if item == nil {
		return Command{}, fmt.Errorf("%w: %s", ErrItemNotFound, cmd.ItemID)
	}
	if cmd.Index < 0 || cmd.Index > len(item.Values) {
		return Command{}, fmt.Errorf("%w: index %d, item has %d values", ErrIndexOutOfRange, cmd.Index, len(item.Values))
	}

	if cmd.Index == len(item.Values) {
		if len(item.Values) > 0 && !MultiValue(item.Column) {
			return Command{}, fmt.Errorf("%w: column %q holds a single value", ErrInvalidCommand, item.Column)
		}
		item.Values = append(item.Values, cmd.Value)
		return Command{Kind: CmdDeleteValue, ItemID: cmd.ItemID, Index: cmd.Index}, nil
	}

	prior := item.Values[cmd.Index]
	item.Values[cmd.Index] = cmd.Value
	return Command{Kind: CmdSetItemValue, ItemID: cmd.ItemID, Index: cmd.Index, Value: prior}, nil
}

// applyAddValue inserts one value into a multi-value item at the given
// index (0..len).
func applyAddValue(t *Table, cmd Command) (Command, error) {
	item := t.ItemByID(cmd.ItemID)
	if item == nil {
		return Command{}, fmt.Errorf("%w: %s", ErrItemNotFound, cmd.ItemID)
	}
	if cmd.Index < 0 || cmd.Index > len(item.Values) {
		return Command{}, fmt.Errorf("%w: index %d, item has %d values", ErrIndexOutOfRange, cmd.Index, len(item.Values))
	}
	if len(item.Values) > 0 && !MultiValue(item.Column) {
		return Command{}, fmt.Errorf("%w: column %q holds a single value", ErrInvalidCommand, item.Column)
	}

	item.Values = append(item.Values, "")
	copy(item.Values[cmd.Index+1:], item.Values[cmd.Index:])
	item.Values[cmd.Index] = cmd.Value
	return Command{Kind: CmdDeleteValue, ItemID: cmd.ItemID, Index: cmd.Index}, nil
}

// applyDeleteValue removes one value from an item. Removing the last
// remaining value is permitted and renders as an empty cell, distinct from
// row deletion.
func applyDeleteValue(t *Table, cmd Command) (Command, error) {
	item := t.ItemByID(cmd.ItemID)
	if item == nil {
		return Command{}, fmt.Errorf("%w: %s", ErrItemNotFound, cmd.ItemID)
	}
	if cmd.Index < 0 || cmd.Index >= len(item.Values) {
		return Command{}, fmt.Errorf("%w: index %d, item has %d values", ErrIndexOutOfRange, cmd.Index, len(item.Values))
	}

	prior := item.Values[cmd.Index]
	item.Values = append(item.Values[:cmd.Index], item.Values[cmd.Index+1:]...)
	return Command{Kind: CmdAddValue, ItemID: cmd.ItemID, Index: cmd.Index, Value: prior}, nil
}

// applyClearItem empties the item's value sequence.
func applyClearItem(t *Table, cmd Command) (Command, error) {
	item := t.ItemByID(cmd.ItemID)
	if item == nil {
		return Command{}, fmt.Errorf("%w: %s", ErrItemNotFound, cmd.ItemID)
	}

	prior := item.Values
	item.Values = nil
	return Command{Kind: CmdRestoreItem, ItemID: cmd.ItemID, Values: prior}, nil
}

// applyRestoreItem reinstates a full value sequence. Produced only as the
// inverse of clear-item.
func applyRestoreItem(t *Table, cmd Command) (Command, error) {
	item := t.ItemByID(cmd.ItemID)
	if item == nil {
		return Command{}, fmt.Errorf("%w: %s", ErrItemNotFound, cmd.ItemID)
	}

	prior := item.Values
	item.Values = append([]string(nil), cmd.Values...)
	return Command{Kind: CmdRestoreItem, ItemID: cmd.ItemID, Values: prior}, nil
}

// applyAddRow inserts a row at cmd.Position (append when -1 or past the
// end). With no snapshot it creates a fresh row, one empty added item per
// column; with a snapshot (the inverse of delete-row) it reinserts the row
// exactly as it was, identity included.
func applyAddRow(t *Table, cmd Command) (Command, error) {
	pos := cmd.Position
	if pos < 0 || pos > len(t.Rows) {
		pos = len(t.Rows)
	}

	var row *Row
	if cmd.Row != nil {
		row = cloneRow(cmd.Row)
	} else {
		row = &Row{ID: NewRowID(), Origin: OriginAdded}
		for _, col := range t.Columns {
			row.Items = append(row.Items, &Item{Column: col, RowID: row.ID, Origin: OriginAdded})
		}
	}

	t.Rows = append(t.Rows, nil)
	copy(t.Rows[pos+1:], t.Rows[pos:])
	t.Rows[pos] = row
	return Command{Kind: CmdDeleteRow, RowID: row.ID}, nil
}

// applyDeleteRow removes a row outright. The inverse reinserts it with its
// exact prior item contents at its prior position.
func applyDeleteRow(t *Table, cmd Command) (Command, error) {
	row, pos := t.RowByID(cmd.RowID)
	if row == nil {
		return Command{}, fmt.Errorf("%w: %s", ErrRowNotFound, cmd.RowID)
	}

	snapshot := cloneRow(row)
	t.Rows = append(t.Rows[:pos], t.Rows[pos+1:]...)
	return Command{Kind: CmdAddRow, Position: pos, Row: snapshot}, nil
}
