// Package services holds the chat core: context assembly, message
// classification, the student and admin chat flows, and schedule command
// validation. This file centralizes service-level error values so handlers
// can map them to HTTP results consistently.
package services

import (
	"errors"
	"strings"
)

// Request errors.
var (
	// ErrEmptyPrompt is returned when a chat message is blank.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrTooLong is returned when a chat message exceeds the configured
	// maximum length.
	ErrTooLong = errors.New("prompt too long")

	// ErrDataUnavailable is returned when facts needed for a prompt could not
	// be read from the store.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrUnknownStudent is returned when the caller has no student profile,
	// e.g. an admin token on a student route.
	ErrUnknownStudent = errors.New("unknown student")

	// ErrScheduleNotFound is returned when a delete matched no schedule.
	ErrScheduleNotFound = errors.New("schedule not found")
)

// Schedule validation kinds. A *ValidationError wraps exactly one of them.
var (
	ErrMissingFields    = errors.New("missing fields")
	ErrInvalidWeekday   = errors.New("invalid weekday")
	ErrInvalidPeriod    = errors.New("invalid period")
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrScheduleConflict = errors.New("schedule conflict")
	ErrUnknownReference = errors.New("unknown reference")
)

// ValidationError reports why a schedule command was rejected. Reason is
// the user-facing text; Fields names the offending wire fields, if any.
type ValidationError struct {
	Kind   error
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Kind.Error() + ": " + e.Reason
	}
	return e.Kind.Error() + " (" + strings.Join(e.Fields, ", ") + "): " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Kind }

func invalid(kind error, reason string, fields ...string) *ValidationError {
	return &ValidationError{Kind: kind, Fields: fields, Reason: reason}
}
