package domain

import "time"

// TransactionStateLog is the append-only audit trail: one entry per workflow
// transition, including the nil -> initial entry written on first save.
type TransactionStateLog struct {
	ID            string
	TransactionID string
	FromState     *TransactionState
	ToState       TransactionState
	ChangedBy     string
	ChangedAt     time.Time
	Notes         string
}
