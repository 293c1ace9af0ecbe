// Package core provides the edit/session engine for validated tabular data.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. When users encounter errors, they can quote the error code for
// faster diagnosis.
//
// Error codes are grouped by category:
//
//	SES001  - Session not found or expired
//	EDT001  - Item not found (stale or invalid cell identifier)
//	EDT002  - Row not found (stale or invalid row identifier)
//	EDT003  - Value index out of range
//	EDT004  - Invalid edit command
//	ISS001  - Unknown issue identifier
//	HIS001  - Nothing to undo (benign no-op)
//	HIS002  - Nothing to redo (benign no-op)
//	PAR001  - Malformed annotated rendering from the validator
//	CSV001  - Export failed on an internal invariant violation
//	VAL001  - Validation service unavailable or failed
//	FIL001  - File too large
//	FIL002  - Not a valid CSV file
//	FIL003  - No file provided
//	FIL004  - Empty file
//	DRA001  - Draft not found
//	DB001   - Database unavailable
//	DB002   - Database operation timed out
//	ERR000  - Fallback for unrecognized errors
//
// Patterns are matched case-insensitively using strings.Contains; the first
// match wins, so specific patterns come before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable
// guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Session and identifier errors. These are recoverable: the caller
	// reloads state and retries.
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "This editing session no longer exists",
			Action:  "It may have expired. Upload the file again to start over",
			Code:    "SES001",
		},
	},
	{
		pattern: "item not found",
		msg: UserMessage{
			Message: "The cell you edited no longer exists",
			Action:  "Reload the table view and try again",
			Code:    "EDT001",
		},
	},
	{
		pattern: "row not found",
		msg: UserMessage{
			Message: "The row you targeted no longer exists",
			Action:  "Reload the table view and try again",
			Code:    "EDT002",
		},
	},
	{
		pattern: "index out of range",
		msg: UserMessage{
			Message: "The value position is out of range for this cell",
			Action:  "Reload the table view and try again",
			Code:    "EDT003",
		},
	},
	{
		pattern: "invalid command",
		msg: UserMessage{
			Message: "The edit request was not understood",
			Action:  "Reload the editor page and try again",
			Code:    "EDT004",
		},
	},
	{
		pattern: "unknown issue",
		msg: UserMessage{
			Message: "That validation issue no longer exists",
			Action:  "Re-run validation to refresh the issue list",
			Code:    "ISS001",
		},
	},
	{
		pattern: "draft not found",
		msg: UserMessage{
			Message: "The requested draft does not exist",
			Action:  "Refresh the draft list",
			Code:    "DRA001",
		},
	},

	// Benign no-op boundaries.
	{
		pattern: "nothing to undo",
		msg: UserMessage{
			Message: "There is nothing to undo",
			Action:  "",
			Code:    "HIS001",
		},
	},
	{
		pattern: "nothing to redo",
		msg: UserMessage{
			Message: "There is nothing to redo",
			Action:  "",
			Code:    "HIS002",
		},
	},

	// Integration failures.
	{
		pattern: "parse annotated view",
		msg: UserMessage{
			Message: "The validation service returned an unreadable table view",
			Action:  "Please try again or contact support",
			Code:    "PAR001",
		},
	},
	{
		pattern: "serialize table",
		msg: UserMessage{
			Message: "The table could not be exported",
			Action:  "Please contact support with this code",
			Code:    "CSV001",
		},
	},
	{
		pattern: "validator",
		msg: UserMessage{
			Message: "The validation service is unavailable",
			Action:  "Please try again in a few moments",
			Code:    "VAL001",
		},
	},

	// File errors.
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller chunks",
			Code:    "FIL001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file uses consistent delimiters and columns",
			Code:    "FIL002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FIL003",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a CSV file with data rows",
			Code:    "FIL004",
		},
	},

	// Database errors (draft store).
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the draft store",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The operation timed out",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error into a user-friendly message with an
// error code. The original error should still be logged server-side.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{Message: "OK", Code: ""}
	}

	errLower := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(errLower, p.pattern) {
			return p.msg
		}
	}

	msg := defaultMessage
	msg.Message = fmt.Sprintf("%s (%s)", msg.Message, truncateError(err.Error(), 120))
	return msg
}

// truncateError shortens a technical error so the fallback message stays
// readable.
func truncateError(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
