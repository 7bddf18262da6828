package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by errors.Is for unknown or foreign resources.
var ErrNotFound = errors.New("not found")

// ErrInsufficientCredits signals a zero or negative balance at the
// pre-generation check. No charge has occurred when this is returned.
var ErrInsufficientCredits = errors.New("insufficient credits")

// ValidationError reports malformed input. Surfaced immediately with no
// state change.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an unknown or foreign resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
