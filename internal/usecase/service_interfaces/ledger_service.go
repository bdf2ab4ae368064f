package service_interfaces

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
)

type CreateTransactionInput struct {
	UserID string
	Kind   domain.TransactionKind
	Amount decimal.Decimal

	ExchangeRate   *decimal.Decimal
	SourcePriceIRR *decimal.Decimal
	DestPriceIRR   *decimal.Decimal

	SourceAccountID      string
	DestinationAccountID string
	DestinationDepositID string

	WithdrawalCardNumber  string
	WithdrawalShebaNumber string

	UserComment  string
	ScheduledFor *time.Time
}

func (in CreateTransactionInput) Validate() error {
	if in.UserID == "" {
		return domain.NewValidationError("userId is required")
	}
	if !in.Kind.Valid() {
		return domain.NewValidationError("invalid transaction kind %q", in.Kind)
	}
	if !in.Amount.IsPositive() {
		return domain.NewValidationError("amount must be greater than zero")
	}
	return nil
}

// LedgerService owns the transaction lifecycle: it is the only writer of the
// applied flag, and the only reader callers should use for derived balances.
type LedgerService interface {
	CreateTransaction(ctx context.Context, in CreateTransactionInput) (domain.Transaction, error)
	GetTransaction(ctx context.Context, id string) (domain.Transaction, error)
	Validate(ctx context.Context, txn domain.Transaction) error
	Apply(ctx context.Context, id string) error
	Revert(ctx context.Context, id string) error
	Balance(ctx context.Context, accountID string) (decimal.Decimal, error)
	DepositBalance(ctx context.Context, depositID string) (decimal.Decimal, error)
}
