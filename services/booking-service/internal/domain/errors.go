package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("not_found")
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrMissingSecret    = errors.New("missing_secret")
	ErrAlreadyCancelled = errors.New("already_cancelled")
	ErrAlreadyRefunded  = errors.New("already_refunded")
	ErrTerminal         = errors.New("booking_terminal")
	ErrStoreUnavailable = errors.New("store_unavailable")
)

// InvalidValueError reports a value outside its enumerated set.
type InvalidValueError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid %s %q (allowed: %s)", e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// TransitionError reports a lifecycle move the table does not allow.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move booking from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrTerminal && e.From.Terminal()
}
