package commons

import "errors"

var ErrRecordNotFound = errors.New("record not found")
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrDuplicateCode is returned when a transaction code collides with an
// existing one; the caller regenerates the sequence and retries.
var ErrDuplicateCode = errors.New("duplicate transaction code")
