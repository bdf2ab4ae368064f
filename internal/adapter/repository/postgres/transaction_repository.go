package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/adapter/repository/repo_interfaces"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/commons"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/logger"
)

var _ repo_interfaces.TransactionRepository = (*TransactionRepository)(nil)

const uniqueViolationCode = "23505"

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `
	id,
	user_id,
	kind,
	amount,
	exchange_rate,
	destination_amount,
	source_price_irr,
	dest_price_irr,
	source_account_id,
	destination_account_id,
	destination_deposit_id,
	state,
	applied,
	transaction_code,
	withdrawal_card_number,
	withdrawal_sheba_number,
	receipt,
	user_comment,
	finance_manager_opinion,
	treasurer_opinion,
	admin_opinion,
	issued_at,
	scheduled_for,
	created_at,
	updated_at`

func (r *TransactionRepository) Create(ctx context.Context, txn domain.Transaction, codeStem string) (created domain.Transaction, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("begin create transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	code, err := nextTransactionCode(ctx, tx, codeStem)
	if err != nil {
		return domain.Transaction{}, err
	}
	txn.TransactionCode = code

	const query = `
INSERT INTO transactions (
	user_id,
	kind,
	amount,
	exchange_rate,
	destination_amount,
	source_price_irr,
	dest_price_irr,
	source_account_id,
	destination_account_id,
	destination_deposit_id,
	state,
	applied,
	transaction_code,
	withdrawal_card_number,
	withdrawal_sheba_number,
	receipt,
	user_comment,
	issued_at,
	scheduled_for
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
)
RETURNING id, issued_at, created_at, updated_at`

	if err = tx.QueryRowContext(
		ctx,
		query,
		txn.UserID,
		txn.Kind,
		txn.Amount,
		nullDecimal(txn.ExchangeRate),
		nullDecimal(txn.DestinationAmount),
		nullDecimal(txn.SourcePriceIRR),
		nullDecimal(txn.DestPriceIRR),
		nullString(txn.SourceAccountID),
		nullString(txn.DestinationAccountID),
		nullString(txn.DestinationDepositID),
		txn.State,
		txn.Applied,
		txn.TransactionCode,
		txn.WithdrawalCardNumber,
		txn.WithdrawalShebaNumber,
		txn.Receipt,
		txn.UserComment,
		issuedAtOrNow(txn.IssuedAt),
		nullTime(txn.ScheduledFor),
	).Scan(&txn.ID, &txn.IssuedAt, &txn.CreatedAt, &txn.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			err = commons.ErrDuplicateCode
			return domain.Transaction{}, err
		}
		err = fmt.Errorf("create transaction: %w", err)
		return domain.Transaction{}, err
	}

	if err = insertStateLog(ctx, tx, txn.ID, nil, txn.State, txn.UserID, ""); err != nil {
		return domain.Transaction{}, err
	}

	if err = tx.Commit(); err != nil {
		return domain.Transaction{}, fmt.Errorf("commit create transaction: %w", err)
	}
	return txn, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (domain.Transaction, error) {
	query := `SELECT` + transactionColumns + ` FROM transactions WHERE id = $1`
	return scanTransaction(r.db.QueryRowContext(ctx, query, id))
}

func (r *TransactionRepository) MarkApplied(ctx context.Context, id string) (bool, error) {
	const query = `
UPDATE transactions
SET applied = TRUE,
    updated_at = NOW()
WHERE id = $1 AND applied = FALSE`
	return r.casUpdate(ctx, query, id)
}

func (r *TransactionRepository) MarkReverted(ctx context.Context, id string) (bool, error) {
	const query = `
UPDATE transactions
SET applied = FALSE,
    updated_at = NOW()
WHERE id = $1 AND applied = TRUE`
	return r.casUpdate(ctx, query, id)
}

func (r *TransactionRepository) casUpdate(ctx context.Context, query, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("update transaction applied flag: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("applied flag rows affected: %w", err)
	}
	if rows > 0 {
		return true, nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM transactions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check transaction exists: %w", err)
	}
	if !exists {
		return false, commons.ErrRecordNotFound
	}
	return false, nil
}

func (r *TransactionRepository) UpdateState(ctx context.Context, id string, from, to domain.TransactionState, changedBy, notes string) (moved bool, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin state update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `
UPDATE transactions
SET state = $3,
    updated_at = NOW()
WHERE id = $1 AND state = $2`

	result, execErr := tx.ExecContext(ctx, query, id, from, to)
	if execErr != nil {
		err = fmt.Errorf("update transaction state: %w", execErr)
		return false, err
	}
	rows, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		err = fmt.Errorf("state update rows affected: %w", rowsErr)
		return false, err
	}
	if rows == 0 {
		_ = tx.Rollback()
		var exists bool
		if scanErr := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM transactions WHERE id = $1)`, id).Scan(&exists); scanErr != nil {
			return false, fmt.Errorf("check transaction exists: %w", scanErr)
		}
		if !exists {
			return false, commons.ErrRecordNotFound
		}
		return false, nil
	}

	if err = insertStateLog(ctx, tx, id, &from, to, changedBy, notes); err != nil {
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit state update: %w", err)
	}
	return true, nil
}

func (r *TransactionRepository) SetReceipt(ctx context.Context, id, receipt string) error {
	const query = `
UPDATE transactions
SET receipt = $2,
    updated_at = NOW()
WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, receipt)
	if err != nil {
		return fmt.Errorf("set transaction receipt: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("receipt rows affected: %w", err)
	}
	if rows == 0 {
		return commons.ErrRecordNotFound
	}
	return nil
}

func (r *TransactionRepository) ApplyProfitAccrual(ctx context.Context, txn domain.Transaction, codeStem string, entity domain.ProfitEntityRef, accruedAt, dueBefore time.Time) (created domain.Transaction, ok bool, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Transaction{}, false, fmt.Errorf("begin profit accrual: %w", err)
	}
	defer func() {
		if err != nil || !ok {
			_ = tx.Rollback()
		}
	}()

	// Advancing the accrual anchor is the guard: if someone else accrued
	// after dueBefore, zero rows move and the whole unit is abandoned.
	var guardQuery string
	switch entity.Kind {
	case domain.SnapshotEntityAccount:
		guardQuery = `
UPDATE accounts
SET last_profit_accrual_at = $2,
    updated_at = NOW()
WHERE id = $1
  AND (last_profit_accrual_at IS NULL OR last_profit_accrual_at <= $3)`
	case domain.SnapshotEntityDeposit:
		guardQuery = `
UPDATE deposits
SET last_profit_accrual_at = $2,
    updated_at = NOW()
WHERE id = $1
  AND (last_profit_accrual_at IS NULL OR last_profit_accrual_at <= $3)`
	default:
		err = fmt.Errorf("unknown profit entity kind %q", entity.Kind)
		return domain.Transaction{}, false, err
	}

	result, execErr := tx.ExecContext(ctx, guardQuery, entity.ID, accruedAt, dueBefore)
	if execErr != nil {
		err = fmt.Errorf("advance profit accrual anchor: %w", execErr)
		return domain.Transaction{}, false, err
	}
	rows, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		err = fmt.Errorf("accrual anchor rows affected: %w", rowsErr)
		return domain.Transaction{}, false, err
	}
	if rows == 0 {
		return domain.Transaction{}, false, nil
	}

	code, err := nextTransactionCode(ctx, tx, codeStem)
	if err != nil {
		return domain.Transaction{}, false, err
	}
	txn.TransactionCode = code
	txn.State = domain.StateDone
	txn.Applied = true

	const query = `
INSERT INTO transactions (
	user_id,
	kind,
	amount,
	destination_account_id,
	state,
	applied,
	transaction_code,
	issued_at
) VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7)
RETURNING id, issued_at, created_at, updated_at`

	if err = tx.QueryRowContext(
		ctx,
		query,
		txn.UserID,
		txn.Kind,
		txn.Amount,
		nullString(txn.DestinationAccountID),
		txn.State,
		txn.TransactionCode,
		accruedAt,
	).Scan(&txn.ID, &txn.IssuedAt, &txn.CreatedAt, &txn.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			err = commons.ErrDuplicateCode
			return domain.Transaction{}, false, err
		}
		err = fmt.Errorf("create profit transaction: %w", err)
		return domain.Transaction{}, false, err
	}

	if err = insertStateLog(ctx, tx, txn.ID, nil, domain.StateDone, txn.UserID, ""); err != nil {
		return domain.Transaction{}, false, err
	}

	if err = tx.Commit(); err != nil {
		return domain.Transaction{}, false, fmt.Errorf("commit profit accrual: %w", err)
	}

	logger.Info("transaction repository profit accrual committed", logger.Fields{
		"transactionId":   txn.ID,
		"transactionCode": txn.TransactionCode,
		"entityKind":      entity.Kind,
		"entityId":        entity.ID,
	})
	return txn, true, nil
}

func (r *TransactionRepository) ListScheduledDue(ctx context.Context, now time.Time, limit int) ([]domain.Transaction, error) {
	query := `SELECT` + transactionColumns + `
FROM transactions
WHERE applied = FALSE
  AND state = $1
  AND scheduled_for IS NOT NULL
  AND scheduled_for <= $2
ORDER BY scheduled_for ASC
LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, domain.StateDone, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list scheduled transactions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Transaction, 0)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scheduled transactions: %w", err)
	}
	return out, nil
}

func (r *TransactionRepository) ListStateLogs(ctx context.Context, transactionID string) ([]domain.TransactionStateLog, error) {
	const query = `
SELECT id, transaction_id, from_state, to_state, changed_by, changed_at, notes
FROM transaction_state_logs
WHERE transaction_id = $1
ORDER BY changed_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list state logs: %w", err)
	}
	defer rows.Close()

	out := make([]domain.TransactionStateLog, 0)
	for rows.Next() {
		var entry domain.TransactionStateLog
		var fromState sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.TransactionID,
			&fromState,
			&entry.ToState,
			&entry.ChangedBy,
			&entry.ChangedAt,
			&entry.Notes,
		); err != nil {
			return nil, fmt.Errorf("scan state log: %w", err)
		}
		if fromState.Valid {
			value := domain.TransactionState(fromState.String)
			entry.FromState = &value
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate state logs: %w", err)
	}
	return out, nil
}

// nextTransactionCode counts existing codes for the stem inside the caller's
// transaction; the unique constraint on transaction_code backstops the count
// against a concurrent insert of the same stem.
func nextTransactionCode(ctx context.Context, tx *sql.Tx, codeStem string) (string, error) {
	var count int
	if err := tx.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM transactions WHERE transaction_code LIKE $1 || '%'`,
		codeStem,
	).Scan(&count); err != nil {
		return "", fmt.Errorf("count transaction codes: %w", err)
	}
	return fmt.Sprintf("%s%02d", codeStem, count+1), nil
}

func insertStateLog(ctx context.Context, tx *sql.Tx, transactionID string, from *domain.TransactionState, to domain.TransactionState, changedBy, notes string) error {
	const query = `
INSERT INTO transaction_state_logs (transaction_id, from_state, to_state, changed_by, notes)
VALUES ($1, $2, $3, $4, $5)`

	var fromValue any
	if from != nil {
		fromValue = string(*from)
	}
	if _, err := tx.ExecContext(ctx, query, transactionID, fromValue, to, changedBy, notes); err != nil {
		return fmt.Errorf("insert state log: %w", err)
	}
	return nil
}

func scanTransaction(row rowScanner) (domain.Transaction, error) {
	var txn domain.Transaction
	var (
		exchangeRate  decimal.NullDecimal
		destAmount    decimal.NullDecimal
		sourcePrice   decimal.NullDecimal
		destPrice     decimal.NullDecimal
		sourceAccount sql.NullString
		destAccount   sql.NullString
		destDeposit   sql.NullString
		scheduledFor  sql.NullTime
	)

	if err := row.Scan(
		&txn.ID,
		&txn.UserID,
		&txn.Kind,
		&txn.Amount,
		&exchangeRate,
		&destAmount,
		&sourcePrice,
		&destPrice,
		&sourceAccount,
		&destAccount,
		&destDeposit,
		&txn.State,
		&txn.Applied,
		&txn.TransactionCode,
		&txn.WithdrawalCardNumber,
		&txn.WithdrawalShebaNumber,
		&txn.Receipt,
		&txn.UserComment,
		&txn.FinanceManagerOpinion,
		&txn.TreasurerOpinion,
		&txn.AdminOpinion,
		&txn.IssuedAt,
		&scheduledFor,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Transaction{}, commons.ErrRecordNotFound
		}
		return domain.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	if exchangeRate.Valid {
		value := exchangeRate.Decimal
		txn.ExchangeRate = &value
	}
	if destAmount.Valid {
		value := destAmount.Decimal
		txn.DestinationAmount = &value
	}
	if sourcePrice.Valid {
		value := sourcePrice.Decimal
		txn.SourcePriceIRR = &value
	}
	if destPrice.Valid {
		value := destPrice.Decimal
		txn.DestPriceIRR = &value
	}
	if sourceAccount.Valid {
		value := sourceAccount.String
		txn.SourceAccountID = &value
	}
	if destAccount.Valid {
		value := destAccount.String
		txn.DestinationAccountID = &value
	}
	if destDeposit.Valid {
		value := destDeposit.String
		txn.DestinationDepositID = &value
	}
	if scheduledFor.Valid {
		value := scheduledFor.Time
		txn.ScheduledFor = &value
	}
	return txn, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode
}

func nullDecimal(value *decimal.Decimal) decimal.NullDecimal {
	if value == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *value, Valid: true}
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}

func issuedAtOrNow(issuedAt time.Time) time.Time {
	if issuedAt.IsZero() {
		return time.Now().UTC()
	}
	return issuedAt
}
