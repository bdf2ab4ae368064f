package repo_interfaces

import (
	"context"
	"time"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
)

type TransactionRepository interface {
	// Create inserts the transaction and assigns its code by appending the
	// next two-digit sequence for codeStem, counted inside the same
	// transaction boundary as the insert. A code collision surfaces as
	// commons.ErrDuplicateCode so the caller can retry with a fresh count.
	// The nil -> initial state log entry is written in the same unit.
	Create(ctx context.Context, txn domain.Transaction, codeStem string) (domain.Transaction, error)
	GetByID(ctx context.Context, id string) (domain.Transaction, error)

	// MarkApplied flips applied to true if and only if it is currently
	// false, and reports whether the flip happened.
	MarkApplied(ctx context.Context, id string) (bool, error)
	MarkReverted(ctx context.Context, id string) (bool, error)

	// UpdateState moves the transaction from -> to and appends the state
	// log entry in one unit; it is a compare-and-set, returning false when
	// the stored state no longer equals from.
	UpdateState(ctx context.Context, id string, from, to domain.TransactionState, changedBy, notes string) (bool, error)

	// SetReceipt records the payout receipt reference on a withdrawal.
	SetReceipt(ctx context.Context, id, receipt string) error

	// ApplyProfitAccrual inserts an already-done, already-applied profit
	// transaction and advances the entity's last_profit_accrual_at in one
	// unit. The timestamp update is guarded: if the entity accrued after
	// dueBefore the whole unit is abandoned and ok is false, so a
	// concurrent or re-run accrual can never double-credit.
	ApplyProfitAccrual(ctx context.Context, txn domain.Transaction, codeStem string, entity domain.ProfitEntityRef, accruedAt, dueBefore time.Time) (domain.Transaction, bool, error)

	ListScheduledDue(ctx context.Context, now time.Time, limit int) ([]domain.Transaction, error)
	ListStateLogs(ctx context.Context, transactionID string) ([]domain.TransactionStateLog, error)
}
