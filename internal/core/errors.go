package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the edit engine. The web layer maps these to HTTP
// status codes; MapError produces the user-facing message.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrRowNotFound     = errors.New("row not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrUnknownIssue    = errors.New("unknown issue")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidCommand  = errors.New("invalid command")
	ErrDraftNotFound   = errors.New("draft not found")

	// Benign no-op boundaries, reported rather than surfaced as failures.
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// ParseError reports a structurally malformed annotated rendering. This is
// an integration bug in the producing side, surfaced fatally and never
// retried.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse annotated view: " + e.Reason
}

func parseErrorf(format string, args ...any) error {
	return &ParseError{Reason: fmt.Sprintf(format, args...)}
}

// SerializationError reports an internal invariant violation during export.
// Every in-memory value is representable in the flat-file format, so this
// is unreachable for a well-formed table.
type SerializationError struct {
	Reason string
}

func (e *SerializationError) Error() string {
	return "serialize table: " + e.Reason
}
