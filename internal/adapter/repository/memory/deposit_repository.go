package memory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/adapter/repository/repo_interfaces"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/commons"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
)

var _ repo_interfaces.DepositRepository = (*DepositRepository)(nil)

type DepositRepository struct {
	store *Store
}

func NewDepositRepository(store *Store) *DepositRepository {
	return &DepositRepository{store: store}
}

func (r *DepositRepository) Create(_ context.Context, deposit domain.Deposit) (domain.Deposit, error) {
	if deposit.ProfitKind == "" {
		deposit.ProfitKind = domain.ProfitKindMonthly
	}
	if err := deposit.Validate(); err != nil {
		return domain.Deposit{}, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if deposit.ID == "" {
		deposit.ID = newID()
	}
	now := time.Now().UTC()
	if deposit.CreatedAt.IsZero() {
		deposit.CreatedAt = now
	}
	deposit.UpdatedAt = now

	r.store.deposits[deposit.ID] = deposit
	r.store.depositOrder = append(r.store.depositOrder, deposit.ID)

	return deposit, nil
}

func (r *DepositRepository) GetByID(_ context.Context, id string) (domain.Deposit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	deposit, ok := r.store.deposits[id]
	if !ok {
		return domain.Deposit{}, commons.ErrRecordNotFound
	}
	return deposit, nil
}

func (r *DepositRepository) Balance(_ context.Context, id string) (decimal.Decimal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.deposits[id]; !ok {
		return decimal.Decimal{}, commons.ErrRecordNotFound
	}
	return r.store.depositBalanceLocked(id), nil
}

func (r *DepositRepository) List(_ context.Context) ([]domain.Deposit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make([]domain.Deposit, 0, len(r.store.depositOrder))
	for _, id := range r.store.depositOrder {
		out = append(out, r.store.deposits[id])
	}
	return out, nil
}

func (r *DepositRepository) ListProfitDue(_ context.Context, asOf time.Time, limit int) ([]domain.Deposit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make([]domain.Deposit, 0)
	for _, id := range r.store.depositOrder {
		if limit > 0 && len(out) >= limit {
			break
		}
		deposit := r.store.deposits[id]
		if !deposit.MonthlyProfitRate.IsPositive() {
			continue
		}
		anchor := deposit.CreatedAt
		if deposit.LastProfitAccrualAt != nil {
			anchor = *deposit.LastProfitAccrualAt
		}
		threshold := asOf.AddDate(0, 0, -deposit.ProfitKind.WindowDays())
		if !anchor.After(threshold) {
			out = append(out, deposit)
		}
	}
	return out, nil
}
