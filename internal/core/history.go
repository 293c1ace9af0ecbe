package core

import "errors"

// DefaultMaxUndoDepth caps how many undo steps a session retains. Oldest
// entries are dropped once the cap is reached.
const DefaultMaxUndoDepth = 20

// History is the undo/redo log for one editing session: two ordered stacks
// of inverse commands. Recording a new edit clears the redo branch; there
// is no tree-structured history, and no coalescing of adjacent edits (each
// executed command is one undo step).
//
// History is not safe for concurrent use; the owning session serializes
// access.
type History struct {
	applied  []Command // inverses of applied commands, available to undo
	redoable []Command // inverses of undone commands, available to redo
	maxDepth int
}

// NewHistory returns an empty history capped at maxDepth undo steps.
// A non-positive depth falls back to DefaultMaxUndoDepth.
func NewHistory(maxDepth int) *History {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxUndoDepth
	}
	return &History{maxDepth: maxDepth}
}

// Record pushes the inverse of a freshly applied command onto the undo
// stack and invalidates the redo branch.
func (h *History) Record(inverse Command) {
	h.applied = append(h.applied, inverse)
	h.redoable = nil
	if len(h.applied) > h.maxDepth {
		h.applied = h.applied[len(h.applied)-h.maxDepth:]
	}
}

// Undo applies the most recent inverse to t and moves its own inverse onto
// the redo stack. Returns ErrNothingToUndo when the undo stack is empty.
//
// An inverse whose target no longer exists (its row was unmatched during a
// re-validation reparse) is discarded as a no-op rather than failing.
func (h *History) Undo(t *Table) error {
	if len(h.applied) == 0 {
		return ErrNothingToUndo
	}

	inverse := h.applied[len(h.applied)-1]
	h.applied = h.applied[:len(h.applied)-1]

	redo, err := Apply(t, inverse)
	if err != nil {
		if isStaleTarget(err) {
			return nil
		}
		// Put the entry back; the table was not mutated.
		h.applied = append(h.applied, inverse)
		return err
	}

	h.redoable = append(h.redoable, redo)
	return nil
}

// Redo applies the most recent undone command and moves its inverse back
// onto the undo stack. Returns ErrNothingToRedo when the redo stack is
// empty.
func (h *History) Redo(t *Table) error {
	if len(h.redoable) == 0 {
		return ErrNothingToRedo
	}

	cmd := h.redoable[len(h.redoable)-1]
	h.redoable = h.redoable[:len(h.redoable)-1]

	undo, err := Apply(t, cmd)
	if err != nil {
		if isStaleTarget(err) {
			return nil
		}
		h.redoable = append(h.redoable, cmd)
		return err
	}

	h.applied = append(h.applied, undo)
	return nil
}

// CanUndo reports whether an undo step is available.
func (h *History) CanUndo() bool { return len(h.applied) > 0 }

// CanRedo reports whether a redo step is available.
func (h *History) CanRedo() bool { return len(h.redoable) > 0 }

// isStaleTarget reports whether a command failed because its target
// identity no longer exists in the table. Such entries come from rows that
// could not be matched across a re-validation reparse, a documented
// degradation handled as a no-op.
func isStaleTarget(err error) bool {
	return errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrRowNotFound)
}
