// Package domain provides shared domain-level errors and the error taxonomy
// used by all services: validation, conflict, transient-store, and
// partial-failure classes.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates the requested entity does not exist or is soft-deleted.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent modification conflict (optimistic locking).
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrForbidden indicates the acting user is not allowed to perform the operation.
var ErrForbidden = errors.New("forbidden")

// ValidationError reports invalid caller input: missing required parent id,
// invalid UUID, invalid enum value. Never retried automatically.
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

// Validationf builds a ValidationError for the given field.
func Validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ConflictError reports an invariant violation, e.g. attempting to set two
// primary contacts. The caller must resolve the conflict and re-issue.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return "conflict: " + e.Reason }

func (e *ConflictError) Unwrap() error { return ErrConflict }

// TransientError reports a store-level timeout or connection loss. Safe to
// retry with backoff for idempotent reads and operations documented as
// idempotent; never auto-retried for other writes.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// PartialFailure reports a multi-step operation that failed after some steps
// committed. Succeeded and Failed carry the entity ids on each side so the
// caller can decide repair versus rollback.
type PartialFailure struct {
	Op        string
	Succeeded []string
	Failed    []string
	Err       error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("%s: partial failure: %d applied, %d not applied (%v): %v",
		e.Op, len(e.Succeeded), len(e.Failed), e.Failed, e.Err)
}

func (e *PartialFailure) Unwrap() error { return e.Err }

// IsTransient reports whether err looks like a recoverable store failure.
// pgx surfaces timeouts and broken connections as wrapped net/context errors,
// so the check is by classification rather than a single sentinel.
func IsTransient(err error) bool {
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "timeout")
}

// FormatDisplayID renders a human-readable sequential id, e.g. PH-0042.
func FormatDisplayID(prefix string, n int64) string {
	return fmt.Sprintf("%s-%04d", prefix, n)
}
