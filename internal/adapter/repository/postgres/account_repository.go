package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/adapter/repository/repo_interfaces"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/commons"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
)

var _ repo_interfaces.AccountRepository = (*AccountRepository)(nil)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `
	id,
	user_id,
	name,
	kind,
	initial_balance,
	monthly_profit_rate,
	last_profit_accrual_at,
	created_at,
	updated_at`

func (r *AccountRepository) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	const query = `
INSERT INTO accounts (
	user_id,
	name,
	kind,
	initial_balance,
	monthly_profit_rate
) VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at, updated_at`

	var id string
	var createdAt time.Time
	var updatedAt time.Time

	if err := r.db.QueryRowContext(
		ctx,
		query,
		account.UserID,
		account.Name,
		account.Kind,
		account.InitialBalance,
		account.MonthlyProfitRate,
	).Scan(&id, &createdAt, &updatedAt); err != nil {
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	account.ID = id
	account.CreatedAt = createdAt
	account.UpdatedAt = updatedAt

	return account, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (domain.Account, error) {
	query := `SELECT` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *AccountRepository) GetBaseAccount(ctx context.Context, userID string) (domain.Account, error) {
	query := `SELECT` + accountColumns + `
FROM accounts
WHERE user_id = $1 AND kind = $2
ORDER BY created_at ASC
LIMIT 1`
	return scanAccount(r.db.QueryRowContext(ctx, query, userID, domain.CurrencyRial))
}

// Balance derives the current balance in one aggregate read: the opening
// balance plus every applied incoming leg minus every applied outgoing leg.
// Cross-account transfers land with their converted destination amount.
func (r *AccountRepository) Balance(ctx context.Context, id string) (decimal.Decimal, error) {
	const query = `
SELECT a.initial_balance
	+ COALESCE((
		SELECT SUM(CASE
			WHEN t.kind = 'account_to_account' AND t.destination_amount IS NOT NULL THEN t.destination_amount
			ELSE t.amount
		END)
		FROM transactions t
		WHERE t.applied AND t.destination_account_id = a.id
	), 0)
	- COALESCE((
		SELECT SUM(t.amount)
		FROM transactions t
		WHERE t.applied AND t.source_account_id = a.id
	), 0)
FROM accounts a
WHERE a.id = $1`

	var balance decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Decimal{}, commons.ErrRecordNotFound
		}
		return decimal.Decimal{}, fmt.Errorf("derive account balance: %w", err)
	}
	return balance, nil
}

func (r *AccountRepository) List(ctx context.Context) ([]domain.Account, error) {
	query := `SELECT` + accountColumns + ` FROM accounts ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	return collectAccounts(rows)
}

func (r *AccountRepository) ListProfitDue(ctx context.Context, asOf time.Time, limit int) ([]domain.Account, error) {
	query := `SELECT` + accountColumns + `
FROM accounts
WHERE monthly_profit_rate > 0
  AND COALESCE(last_profit_accrual_at, created_at) <= $1 - INTERVAL '30 days'
ORDER BY COALESCE(last_profit_accrual_at, created_at) ASC
LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, asOf, limit)
	if err != nil {
		return nil, fmt.Errorf("list profit-due accounts: %w", err)
	}
	defer rows.Close()

	return collectAccounts(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var account domain.Account
	var lastAccrual sql.NullTime

	if err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.Name,
		&account.Kind,
		&account.InitialBalance,
		&account.MonthlyProfitRate,
		&lastAccrual,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, commons.ErrRecordNotFound
		}
		return domain.Account{}, fmt.Errorf("scan account: %w", err)
	}

	if lastAccrual.Valid {
		value := lastAccrual.Time
		account.LastProfitAccrualAt = &value
	}
	return account, nil
}

func collectAccounts(rows *sql.Rows) ([]domain.Account, error) {
	accounts := make([]domain.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}
