package memory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/adapter/repository/repo_interfaces"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/commons"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
)

var _ repo_interfaces.AccountRepository = (*AccountRepository)(nil)

type AccountRepository struct {
	store *Store
}

func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

func (r *AccountRepository) Create(_ context.Context, account domain.Account) (domain.Account, error) {
	if err := account.Validate(); err != nil {
		return domain.Account{}, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if account.ID == "" {
		account.ID = newID()
	}
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	r.store.accounts[account.ID] = account
	r.store.accountOrder = append(r.store.accountOrder, account.ID)

	return account, nil
}

func (r *AccountRepository) GetByID(_ context.Context, id string) (domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	account, ok := r.store.accounts[id]
	if !ok {
		return domain.Account{}, commons.ErrRecordNotFound
	}
	return account, nil
}

func (r *AccountRepository) GetBaseAccount(_ context.Context, userID string) (domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, id := range r.store.accountOrder {
		account := r.store.accounts[id]
		if account.UserID == userID && account.Kind.IsRial() {
			return account, nil
		}
	}
	return domain.Account{}, commons.ErrRecordNotFound
}

func (r *AccountRepository) Balance(_ context.Context, id string) (decimal.Decimal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.accounts[id]; !ok {
		return decimal.Decimal{}, commons.ErrRecordNotFound
	}
	return r.store.accountBalanceLocked(id), nil
}

func (r *AccountRepository) List(_ context.Context) ([]domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make([]domain.Account, 0, len(r.store.accountOrder))
	for _, id := range r.store.accountOrder {
		out = append(out, r.store.accounts[id])
	}
	return out, nil
}

func (r *AccountRepository) ListProfitDue(_ context.Context, asOf time.Time, limit int) ([]domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	threshold := asOf.AddDate(0, 0, -30)
	out := make([]domain.Account, 0)
	for _, id := range r.store.accountOrder {
		if limit > 0 && len(out) >= limit {
			break
		}
		account := r.store.accounts[id]
		if !account.MonthlyProfitRate.IsPositive() {
			continue
		}
		anchor := account.CreatedAt
		if account.LastProfitAccrualAt != nil {
			anchor = *account.LastProfitAccrualAt
		}
		if !anchor.After(threshold) {
			out = append(out, account)
		}
	}
	return out, nil
}
