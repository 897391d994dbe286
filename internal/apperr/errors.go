// Package apperr defines the error taxonomy for the consignment ledger.
// Every mutating operation either fully commits or fails with one of these
// kinds; nothing is silently swallowed.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel kinds, matched with errors.Is.
var (
	// ErrValidation is returned for malformed or out-of-range input,
	// rejected before any write.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientStock is returned when a sale quantity exceeds the
	// pieces remaining on the consignment line.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidState is returned for an illegal state transition; the
	// message carries the current state for diagnosis.
	ErrInvalidState = errors.New("invalid state")

	// ErrConflict is returned after losing a race on a conditional
	// update. Safe to retry once.
	ErrConflict = errors.New("concurrency conflict")

	// ErrNotFound is returned for missing ids.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the actor's role does not allow the
	// operation.
	ErrForbidden = errors.New("forbidden")
)

// Error carries the kind plus the entity and detail context services attach.
type Error struct {
	Kind   error  // one of the sentinels above
	Entity string // e.g. "consignment", "sale"
	Detail string
}

func (e *Error) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("%s: %v: %s", e.Entity, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Kind }

// Validation builds a pre-write input rejection.
func Validation(entity, format string, args ...interface{}) error {
	return &Error{Kind: ErrValidation, Entity: entity, Detail: fmt.Sprintf(format, args...)}
}

// InsufficientStock reports a sale quantity larger than the line's remainder.
func InsufficientStock(lineID string, requested, remaining int) error {
	return &Error{
		Kind:   ErrInsufficientStock,
		Entity: "consignment_line",
		Detail: fmt.Sprintf("line %s has %d pieces remaining, requested %d", lineID, remaining, requested),
	}
}

// InvalidState reports an illegal transition, including the current state.
func InvalidState(entity, id, current, attempted string) error {
	return &Error{
		Kind:   ErrInvalidState,
		Entity: entity,
		Detail: fmt.Sprintf("%s is %q, cannot %s", id, current, attempted),
	}
}

// Conflict reports a lost race on a conditional update.
func Conflict(entity, detail string) error {
	return &Error{Kind: ErrConflict, Entity: entity, Detail: detail}
}

// NotFound reports a missing id.
func NotFound(entity, id string) error {
	return &Error{Kind: ErrNotFound, Entity: entity, Detail: id}
}

// Forbidden reports a role check failure.
func Forbidden(role, operation string) error {
	return &Error{Kind: ErrForbidden, Entity: "actor", Detail: fmt.Sprintf("role %q may not %s", role, operation)}
}
