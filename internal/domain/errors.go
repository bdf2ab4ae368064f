package domain

import "fmt"

// ValidationError covers everything a caller did wrong: missing legs, bad
// card/SHEBA formats, out-of-bounds rates, insufficient balance, missing
// receipts. It is surfaced, never retried, and never partially applied.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IllegalTransitionError means the requested workflow transition is not
// permitted for the role or current state; no state change occurs.
type IllegalTransitionError struct {
	From TransactionState
	To   TransactionState
	Role Role
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("transition %s -> %s is not permitted for role %s", e.From, e.To, e.Role)
}
