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

var _ repo_interfaces.DepositRepository = (*DepositRepository)(nil)

type DepositRepository struct {
	db *sql.DB
}

func NewDepositRepository(db *sql.DB) *DepositRepository {
	return &DepositRepository{db: db}
}

const depositColumns = `
	id,
	user_id,
	initial_balance,
	monthly_profit_rate,
	profit_kind,
	breakage_coefficient,
	last_profit_accrual_at,
	created_at,
	updated_at`

func (r *DepositRepository) Create(ctx context.Context, deposit domain.Deposit) (domain.Deposit, error) {
	const query = `
INSERT INTO deposits (
	user_id,
	initial_balance,
	monthly_profit_rate,
	profit_kind,
	breakage_coefficient
) VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at, updated_at`

	var id string
	var createdAt time.Time
	var updatedAt time.Time

	if err := r.db.QueryRowContext(
		ctx,
		query,
		deposit.UserID,
		deposit.InitialBalance,
		deposit.MonthlyProfitRate,
		deposit.ProfitKind,
		deposit.BreakageCoefficient,
	).Scan(&id, &createdAt, &updatedAt); err != nil {
		return domain.Deposit{}, fmt.Errorf("create deposit: %w", err)
	}

	deposit.ID = id
	deposit.CreatedAt = createdAt
	deposit.UpdatedAt = updatedAt

	return deposit, nil
}

func (r *DepositRepository) GetByID(ctx context.Context, id string) (domain.Deposit, error) {
	query := `SELECT` + depositColumns + ` FROM deposits WHERE id = $1`
	return scanDeposit(r.db.QueryRowContext(ctx, query, id))
}

// Balance is one-sided: deposits only receive funds.
func (r *DepositRepository) Balance(ctx context.Context, id string) (decimal.Decimal, error) {
	const query = `
SELECT d.initial_balance
	+ COALESCE((
		SELECT SUM(t.amount)
		FROM transactions t
		WHERE t.applied AND t.destination_deposit_id = d.id
	), 0)
FROM deposits d
WHERE d.id = $1`

	var balance decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Decimal{}, commons.ErrRecordNotFound
		}
		return decimal.Decimal{}, fmt.Errorf("derive deposit balance: %w", err)
	}
	return balance, nil
}

func (r *DepositRepository) List(ctx context.Context) ([]domain.Deposit, error) {
	query := `SELECT` + depositColumns + ` FROM deposits ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list deposits: %w", err)
	}
	defer rows.Close()

	return collectDeposits(rows)
}

func (r *DepositRepository) ListProfitDue(ctx context.Context, asOf time.Time, limit int) ([]domain.Deposit, error) {
	query := `SELECT` + depositColumns + `
FROM deposits
WHERE monthly_profit_rate > 0
  AND COALESCE(last_profit_accrual_at, created_at) <= $1 - make_interval(days => CASE profit_kind
		WHEN 'semiannual' THEN 180
		WHEN 'yearly' THEN 365
		ELSE 30
	END)
ORDER BY COALESCE(last_profit_accrual_at, created_at) ASC
LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, asOf, limit)
	if err != nil {
		return nil, fmt.Errorf("list profit-due deposits: %w", err)
	}
	defer rows.Close()

	return collectDeposits(rows)
}

func scanDeposit(row rowScanner) (domain.Deposit, error) {
	var deposit domain.Deposit
	var lastAccrual sql.NullTime

	if err := row.Scan(
		&deposit.ID,
		&deposit.UserID,
		&deposit.InitialBalance,
		&deposit.MonthlyProfitRate,
		&deposit.ProfitKind,
		&deposit.BreakageCoefficient,
		&lastAccrual,
		&deposit.CreatedAt,
		&deposit.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Deposit{}, commons.ErrRecordNotFound
		}
		return domain.Deposit{}, fmt.Errorf("scan deposit: %w", err)
	}

	if lastAccrual.Valid {
		value := lastAccrual.Time
		deposit.LastProfitAccrualAt = &value
	}
	return deposit, nil
}

func collectDeposits(rows *sql.Rows) ([]domain.Deposit, error) {
	deposits := make([]domain.Deposit, 0)
	for rows.Next() {
		deposit, err := scanDeposit(rows)
		if err != nil {
			return nil, err
		}
		deposits = append(deposits, deposit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deposits: %w", err)
	}
	return deposits, nil
}
