package blotter

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no case row exists for the provided identifier.
	ErrNotFound = errors.New("blotter: case not found")
	// ErrInvalidTransition signals the requested status is not reachable from the current one.
	ErrInvalidTransition = errors.New("blotter: invalid transition")
	// ErrMissingDecision signals a decision-point status was left without an outcome.
	ErrMissingDecision = errors.New("blotter: missing decision")
	// ErrValidation signals a required field is absent or malformed.
	ErrValidation = errors.New("blotter: validation failed")
	// ErrConflict signals the case moved on since the caller last read it.
	ErrConflict = errors.New("blotter: concurrent modification")
	// ErrDuplicateCaseNumber signals the case number guardrail was hit on insert.
	ErrDuplicateCaseNumber = errors.New("blotter: duplicate case number")
	// ErrCaseTerminal is returned for administrative actions on a finished case.
	ErrCaseTerminal = errors.New("blotter: case is no longer active")
)

type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("blotter: invalid transition %s -> %s", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

type MissingDecisionError struct {
	Status Status
	Field  Field
	// Value is the rejected outcome, empty when none was given.
	Value string
}

func (e *MissingDecisionError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("blotter: %s requires %s of RESOLVED or UNRESOLVED, got %q", e.Status, e.Field, e.Value)
	}
	return fmt.Sprintf("blotter: %s requires %s", e.Status, e.Field)
}

func (e *MissingDecisionError) Unwrap() error { return ErrMissingDecision }

type ValidationError struct {
	Field  Field
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("blotter: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConflictError reports a write that lost to a concurrent one. The statuses
// may be equal when the winner was a self-transition or a payment; the
// versions then tell the two reads apart.
type ConflictError struct {
	CaseID          string
	Expected        Status
	Actual          Status
	ExpectedVersion int
	ActualVersion   int
}

func (e *ConflictError) Error() string {
	if e.Expected == e.Actual {
		return fmt.Sprintf("blotter: case %s changed since it was read (version %d, now %d)", e.CaseID, e.ExpectedVersion, e.ActualVersion)
	}
	return fmt.Sprintf("blotter: case %s is %s, expected %s", e.CaseID, e.Actual, e.Expected)
}

func conflict(c Case, seen Observed) *ConflictError {
	return &ConflictError{
		CaseID:          c.ID,
		Expected:        seen.Status,
		Actual:          c.Status,
		ExpectedVersion: seen.Version,
		ActualVersion:   c.Version,
	}
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// ErrorKind names the error class of err for API consumers, or "" for
// errors outside the workflow taxonomy.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrMissingDecision):
		return "missing_decision"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return ""
	}
}
