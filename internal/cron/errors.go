package cron

import (
	"errors"
	"fmt"
)

var (
	// ErrDeclined is returned when the user declines a confirmation prompt.
	ErrDeclined = errors.New("cron: declined by user")
	// ErrJobNotFound is returned when an id is not in the local collection.
	ErrJobNotFound = errors.New("cron: job not found")
)

// ValidationError is a local, pre-call failure on one form field.
// Key is the message identifier shown to the user.
type ValidationError struct {
	Field string
	Key   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cron: invalid %s (%s)", e.Field, e.Key)
}

// RejectedError is a store answer with success=false.
type RejectedError struct {
	Op      string
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("cron: %s rejected: %s", e.Op, e.Message)
}

// TransportError wraps a store call that failed outright.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("cron: %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
