/*
errors.go - Business error taxonomy for the vacation engine

PURPOSE:
  Every rejection the engine can produce is either a sentinel (for errors.Is)
  or a structured error that unwraps to one. Hosts map categories to their
  own surface (HTTP status, CLI exit code) without string matching.

ERROR CATEGORIES:
  1. Validation      - bad input, wrong state for the operation
  2. BridgeNotAllowed- the day after the computed end is a holiday
  3. Balance         - not enough entitlement left
  4. Overlap         - dates collide with another active period
  5. TypeLimit       - second 7 or 8 day period in the same year
  6. NotFound / PermissionDenied

SEE ALSO:
  - validator.go, calculator.go, planner.go: produce most of these
  - api/handlers.go: maps them to HTTP status codes
*/
package vacation

import (
	"errors"
	"fmt"

	"github.com/warp/vacation-engine/calendar"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrValidation          = errors.New("validation failed")
	ErrInvalidPeriodType   = errors.New("invalid period type")
	ErrInvalidTransition   = errors.New("operation not allowed in current state")
	ErrBridgeNotAllowed    = errors.New("bridge to holiday not allowed")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrOverlap             = errors.New("period overlaps an existing period")
	ErrTypeLimitExceeded   = errors.New("period type limit exceeded")
	ErrNotFound            = errors.New("not found")
	ErrPermissionDenied    = errors.New("permission denied")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError is a rejected input. Cause, when set, is a more specific
// sentinel such as ErrInvalidPeriodType.
type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Cause}
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// BridgeError reports a period whose next day is a holiday.
type BridgeError struct {
	End         calendar.Date
	Holiday     calendar.Date
	HolidayName string
}

func (e *BridgeError) Error() string {
	return fmt.Sprintf("the period ends on %s and %s (%s) is a holiday; "+
		"leave may not bridge into a holiday, choose another start date",
		e.End, e.Holiday, e.HolidayName)
}

func (e *BridgeError) Unwrap() error { return ErrBridgeNotAllowed }

type InsufficientBalanceError struct {
	EmployeeID string
	Available  int
	Requested  int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: %d days available, %d requested", e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// OverlapError names the first period that collides.
type OverlapError struct {
	Conflicting Period
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("dates overlap period %s %s (%s)",
		e.Conflicting.ID, e.Conflicting.Range(), e.Conflicting.Status)
}

func (e *OverlapError) Unwrap() error { return ErrOverlap }

type TypeLimitError struct {
	TypePeriod PeriodType
	Year       int
	ExistingID string
}

func (e *TypeLimitError) Error() string {
	return fmt.Sprintf("only one %d-day period is allowed per year; %d already has one (%s)",
		e.TypePeriod, e.Year, e.ExistingID)
}

func (e *TypeLimitError) Unwrap() error { return ErrTypeLimitExceeded }

// TransitionError is an operation attempted from a state that does not allow it.
type TransitionError struct {
	Entity    string
	ID        string
	From      string
	Operation string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s %s %s in state %q", e.Operation, e.Entity, e.ID, e.From)
}

func (e *TransitionError) Unwrap() []error {
	return []error{ErrInvalidTransition, ErrValidation}
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

type PermissionError struct {
	ActorID   string
	Operation string
	Target    string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s may not %s %s", e.ActorID, e.Operation, e.Target)
}

func (e *PermissionError) Unwrap() error { return ErrPermissionDenied }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsBusinessError reports whether err is a rule rejection the caller can fix,
// as opposed to an infrastructure failure.
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrBridgeNotAllowed) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrOverlap) ||
		errors.Is(err, ErrTypeLimitExceeded)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}
