package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a referenced post, comment, reply, or category
	// does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the actor fails the ownership check.
	ErrForbidden = errors.New("forbidden")
	// ErrSlugTaken means another post already owns the derived slug.
	ErrSlugTaken = errors.New("slug already in use")
	// ErrStaleAggregate means the aggregate changed between load and save;
	// the caller must reload and retry.
	ErrStaleAggregate = errors.New("aggregate version is stale")
)

// ValidationError reports a missing or over-length field on create/update.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
