package grid

// errors.go defines the engine error taxonomy and the user-facing messages
// support staff can look up by code.
//
// # Error Codes Reference
//
//	GRID001 - Unknown row: The row does not exist in the grid
//	          Action: Refresh the grid and try again
//	GRID002 - Unknown column: The column does not exist in the grid
//	          Action: Check the column identifier against the schema
//	GRID003 - Not editable: The column is read-only
//	          Action: Only editable columns can be changed
//	GRID004 - Invalid schema: The column schema is malformed
//	          Action: Fix the schema file and restart
//	GRID005 - Duplicate row: Two records share the same row id
//	          Action: Make the row id field unique in the dataset
//	GRID006 - No rows: A bulk edit named no rows
//	          Action: Select at least one row
//	ERR000  - Unknown error: An unexpected error occurred
//	          Action: Please try again or contact support
//
// Validation failures are not errors: an out-of-specification value is
// stored and flagged on the cell, so no code exists for them.

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownRow    = errors.New("unknown row")
	ErrUnknownColumn = errors.New("unknown column")
	ErrNotEditable   = errors.New("column is not editable")
	ErrInvalidSchema = errors.New("invalid schema")
	ErrDuplicateRow  = errors.New("duplicate row id")
	ErrNoRows        = errors.New("no rows specified")
)

// EditError describes a rejected edit. It wraps one of the sentinel errors
// so callers can use errors.Is.
type EditError struct {
	Err      error
	RowID    string
	ColumnID string
}

func (e *EditError) Error() string {
	switch {
	case errors.Is(e.Err, ErrUnknownRow):
		return fmt.Sprintf("%v: %s", e.Err, e.RowID)
	case errors.Is(e.Err, ErrUnknownColumn), errors.Is(e.Err, ErrNotEditable):
		return fmt.Sprintf("%v: %s", e.Err, e.ColumnID)
	default:
		return e.Err.Error()
	}
}

func (e *EditError) Unwrap() error { return e.Err }

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorMapping pairs a sentinel error with its user message.
// The first matching entry wins.
type errorMapping struct {
	target error
	msg    UserMessage
}

var errorMappings = []errorMapping{
	{ErrUnknownRow, UserMessage{
		Message: "The row does not exist in the grid",
		Action:  "Refresh the grid and try again",
		Code:    "GRID001",
	}},
	{ErrUnknownColumn, UserMessage{
		Message: "The column does not exist in the grid",
		Action:  "Check the column identifier against the schema",
		Code:    "GRID002",
	}},
	{ErrNotEditable, UserMessage{
		Message: "The column is read-only",
		Action:  "Only editable columns can be changed",
		Code:    "GRID003",
	}},
	{ErrInvalidSchema, UserMessage{
		Message: "The column schema is malformed",
		Action:  "Fix the schema file and restart",
		Code:    "GRID004",
	}},
	{ErrDuplicateRow, UserMessage{
		Message: "Two records share the same row id",
		Action:  "Make the row id field unique in the dataset",
		Code:    "GRID005",
	}},
	{ErrNoRows, UserMessage{
		Message: "No rows were selected",
		Action:  "Select at least one row",
		Code:    "GRID006",
	}},
}

// defaultMessage is returned when no mapping matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error into a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.msg
		}
	}
	return defaultMessage
}
