package model

import "fmt"

// ValidationError rejects caller input: empty title, unknown enum value,
// malformed time or date key, or a store document that breaks invariants.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an update/delete/move that references an event or
// day that is not in the store.
type NotFoundError struct {
	DateKey string
	ID      string
}

func (e *NotFoundError) Error() string {
	if e.DateKey == "" {
		return fmt.Sprintf("event %q not found", e.ID)
	}
	return fmt.Sprintf("event %q not found on %s", e.ID, e.DateKey)
}

// PersistenceError wraps a durable-storage read or write failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
