package service_interfaces

import "context"

// ProfitService accrues time-weighted profit from daily balance snapshots.
// Accruals are idempotent: re-running them never double-credits.
type ProfitService interface {
	// AccrueAccountIfDue returns the created profit transaction id, or ""
	// when the account is not due (or another accrual won the race).
	AccrueAccountIfDue(ctx context.Context, accountID string) (string, error)
	AccrueDepositIfDue(ctx context.Context, depositID string) (string, error)
	SnapshotAccountToday(ctx context.Context, accountID string) (bool, error)
	SnapshotDepositToday(ctx context.Context, depositID string) (bool, error)
}
