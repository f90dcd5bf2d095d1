package booking

import (
	"errors"
	"fmt"
)

// Booking-affecting failures.  Callers tell them apart with errors.Is;
// the wrapped message carries the detail.
var (
	// ErrBadInput marks a missing field, an unknown room, a malformed
	// date or time, or a start that is not before the end.
	ErrBadInput = errors.New("bad input")

	// ErrConflict marks a candidate interval that overlaps an existing
	// booking for the same room and date.
	ErrConflict = errors.New("booking conflict")

	// ErrNotFound marks an update or lookup of a booking that does not
	// exist.  Cancel reports a missing booking through its result instead.
	ErrNotFound = errors.New("booking not found")

	// ErrPersistence marks a store failure other than a uniqueness
	// violation.
	ErrPersistence = errors.New("booking store failure")
)

func badInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadInput, fmt.Sprintf(format, args...))
}

// ConflictError carries the booking that blocked a create or update.
type ConflictError struct {
	With Booking
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s %s %s-%s is already booked", ErrConflict, e.With.Room, e.With.Date, e.With.StartTime, e.With.EndTime)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
