package shared

import (
	"errors"
	"fmt"
)

// Kind classifies an error for boundary handling. Every service-level
// failure is converted to one of these kinds before it reaches a handler.
type Kind string

const (
	KindUnauthorized     Kind = "unauthorized"
	KindForbidden        Kind = "forbidden"
	KindInsufficientRole Kind = "insufficient_permissions"
	KindNotFound         Kind = "not_found"
	KindValidation       Kind = "validation"
	KindInvalidOperation Kind = "invalid_operation"
	KindConflict         Kind = "conflict"
	KindInternal         Kind = "internal"
)

// Error is a classified error with optional structured detail rendered in
// API responses.
type Error struct {
	Kind    Kind
	Message string
	Detail  map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two classified errors by kind and message so sentinel
// comparisons with errors.Is keep working.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind && e.Message == other.Message
}

// E builds a classified error.
func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// EDetail builds a classified error carrying structured detail.
func EDetail(kind Kind, message string, detail map[string]any) *Error {
	return &Error{Kind: kind, Message: message, Detail: detail}
}

// Wrap attaches a cause to a classified error without losing the kind.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind of err, defaulting to KindInternal for
// unclassified failures such as raw store errors.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return KindInternal
}

// DetailOf returns the structured detail of err, if any.
func DetailOf(err error) map[string]any {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Detail
	}
	return nil
}

var (
	// ErrUnauthorized indicates no authenticated principal.
	ErrUnauthorized = E(KindUnauthorized, "authentication required")
	// ErrForbidden indicates the principal is not a member of the organization.
	ErrForbidden = E(KindForbidden, "not a member of this organization")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = E(KindUnauthorized, "invalid credentials")
	// ErrNotFound indicates the resource does not exist in the organization.
	ErrNotFound = E(KindNotFound, "not found")
	// ErrVersionConflict indicates a stale optimistic concurrency token.
	ErrVersionConflict = E(KindConflict, "record was modified by another request")
)
