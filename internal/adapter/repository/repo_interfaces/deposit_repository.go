package repo_interfaces

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
)

type DepositRepository interface {
	Create(ctx context.Context, deposit domain.Deposit) (domain.Deposit, error)
	GetByID(ctx context.Context, id string) (domain.Deposit, error)
	// Balance is the one-sided aggregation: deposits have no outgoing leg.
	Balance(ctx context.Context, id string) (decimal.Decimal, error)
	List(ctx context.Context) ([]domain.Deposit, error)
	ListProfitDue(ctx context.Context, asOf time.Time, limit int) ([]domain.Deposit, error)
}
