package domain

import "errors"

var (
	ErrUnknownTimeZone   = errors.New("unknown time zone")
	ErrDayClosed         = errors.New("menu day is closed")
	ErrCutoffPassed      = errors.New("cutoff has passed")
	ErrTerminalState     = errors.New("order is in a terminal state")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidSlot       = errors.New("invalid dish slot")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("concurrent update")

	// ErrDuplicateKey is returned by document stores when a write would
	// violate a declared unique index.
	ErrDuplicateKey = errors.New("duplicate key")
)

// IsBusinessRule reports whether err is an expected rejection that callers
// surface as a normal failure result.
func IsBusinessRule(err error) bool {
	return errors.Is(err, ErrDayClosed) || errors.Is(err, ErrCutoffPassed)
}
