package domain

import (
	"errors"
	"fmt"
)

var (
	ErrTimelineNotFound    = errors.New("timeline not found")
	ErrEventNotFound       = errors.New("event not found")
	ErrInvalidTimelineID   = errors.New("invalid timeline id")
	ErrInvalidDistribution = errors.New("invalid distribution")
	ErrRecordGone          = errors.New("record no longer exists")
	ErrNoRecalculation     = errors.New("timeline has not been recalculated")
)

// ErrorKind classifies why a recalculation was aborted.
type ErrorKind string

const (
	ErrorKindInvalid  ErrorKind = "invalid"
	ErrorKindNotFound ErrorKind = "not_found"
	ErrorKindLoad     ErrorKind = "load"
	ErrorKindInternal ErrorKind = "internal"
)

// RecalculationError is returned when a run aborts before writing anything.
type RecalculationError struct {
	Kind  ErrorKind
	Phase Phase
	Err   error
}

func (e *RecalculationError) Error() string {
	return fmt.Sprintf("recalculate (%s): %v", e.Phase, e.Err)
}

func (e *RecalculationError) Unwrap() error {
	return e.Err
}

// NewLoadError classifies err from the loading phase. Missing timeline or
// event records are not_found, anything else is a load failure.
func NewLoadError(err error) *RecalculationError {
	kind := ErrorKindLoad
	if errors.Is(err, ErrTimelineNotFound) || errors.Is(err, ErrEventNotFound) {
		kind = ErrorKindNotFound
	}
	return &RecalculationError{Kind: kind, Phase: PhaseLoading, Err: err}
}

// NewInvalidInputError wraps a rejected request parameter.
func NewInvalidInputError(err error) *RecalculationError {
	return &RecalculationError{Kind: ErrorKindInvalid, Phase: PhaseIdle, Err: err}
}

// KindOf returns the kind of a RecalculationError anywhere in err's chain.
// Bare sentinel errors are classified too; anything else is internal.
func KindOf(err error) ErrorKind {
	var rerr *RecalculationError
	switch {
	case errors.As(err, &rerr):
		return rerr.Kind
	case errors.Is(err, ErrInvalidTimelineID), errors.Is(err, ErrInvalidDistribution):
		return ErrorKindInvalid
	case errors.Is(err, ErrTimelineNotFound), errors.Is(err, ErrEventNotFound), errors.Is(err, ErrNoRecalculation):
		return ErrorKindNotFound
	default:
		return ErrorKindInternal
	}
}
