package repo_interfaces

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
)

type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) (domain.Account, error)
	GetByID(ctx context.Context, id string) (domain.Account, error)
	// GetBaseAccount returns the user's oldest rial account, the default
	// destination for deposit profit.
	GetBaseAccount(ctx context.Context, userID string) (domain.Account, error)
	// Balance is a single read-only aggregation over applied transactions;
	// there is no stored balance to drift from it.
	Balance(ctx context.Context, id string) (decimal.Decimal, error)
	List(ctx context.Context) ([]domain.Account, error)
	ListProfitDue(ctx context.Context, asOf time.Time, limit int) ([]domain.Account, error)
}
