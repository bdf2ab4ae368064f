package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/adapter/repository/repo_interfaces"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/commons"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
)

var _ repo_interfaces.TransactionRepository = (*TransactionRepository)(nil)

type TransactionRepository struct {
	store *Store
}

func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

func (r *TransactionRepository) Create(_ context.Context, txn domain.Transaction, codeStem string) (domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	seq := r.store.countCodeStemLocked(codeStem) + 1
	code := fmt.Sprintf("%s%02d", codeStem, seq)
	for _, existing := range r.store.transactions {
		if existing.TransactionCode == code {
			return domain.Transaction{}, commons.ErrDuplicateCode
		}
	}

	if txn.ID == "" {
		txn.ID = newID()
	}
	now := time.Now().UTC()
	txn.TransactionCode = code
	if txn.IssuedAt.IsZero() {
		txn.IssuedAt = now
	}
	txn.CreatedAt = now
	txn.UpdatedAt = now

	r.store.transactions[txn.ID] = txn
	r.store.transactionOrder = append(r.store.transactionOrder, txn.ID)
	r.store.appendStateLogLocked(txn.ID, nil, txn.State, txn.UserID, "")

	return txn, nil
}

func (r *TransactionRepository) GetByID(_ context.Context, id string) (domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	txn, ok := r.store.transactions[id]
	if !ok {
		return domain.Transaction{}, commons.ErrRecordNotFound
	}
	return txn, nil
}

func (r *TransactionRepository) MarkApplied(_ context.Context, id string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	txn, ok := r.store.transactions[id]
	if !ok {
		return false, commons.ErrRecordNotFound
	}
	if txn.Applied {
		return false, nil
	}
	txn.Applied = true
	txn.UpdatedAt = time.Now().UTC()
	r.store.transactions[id] = txn
	return true, nil
}

func (r *TransactionRepository) MarkReverted(_ context.Context, id string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	txn, ok := r.store.transactions[id]
	if !ok {
		return false, commons.ErrRecordNotFound
	}
	if !txn.Applied {
		return false, nil
	}
	txn.Applied = false
	txn.UpdatedAt = time.Now().UTC()
	r.store.transactions[id] = txn
	return true, nil
}

func (r *TransactionRepository) UpdateState(_ context.Context, id string, from, to domain.TransactionState, changedBy, notes string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	txn, ok := r.store.transactions[id]
	if !ok {
		return false, commons.ErrRecordNotFound
	}
	if txn.State != from {
		return false, nil
	}
	txn.State = to
	txn.UpdatedAt = time.Now().UTC()
	r.store.transactions[id] = txn
	r.store.appendStateLogLocked(id, &from, to, changedBy, notes)
	return true, nil
}

func (r *TransactionRepository) SetReceipt(_ context.Context, id, receipt string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	txn, ok := r.store.transactions[id]
	if !ok {
		return commons.ErrRecordNotFound
	}
	txn.Receipt = receipt
	txn.UpdatedAt = time.Now().UTC()
	r.store.transactions[id] = txn
	return nil
}

func (r *TransactionRepository) ApplyProfitAccrual(_ context.Context, txn domain.Transaction, codeStem string, entity domain.ProfitEntityRef, accruedAt, dueBefore time.Time) (domain.Transaction, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	switch entity.Kind {
	case domain.SnapshotEntityAccount:
		account, ok := r.store.accounts[entity.ID]
		if !ok {
			return domain.Transaction{}, false, commons.ErrRecordNotFound
		}
		if account.LastProfitAccrualAt != nil && account.LastProfitAccrualAt.After(dueBefore) {
			return domain.Transaction{}, false, nil
		}
		at := accruedAt
		account.LastProfitAccrualAt = &at
		account.UpdatedAt = time.Now().UTC()
		r.store.accounts[entity.ID] = account
	case domain.SnapshotEntityDeposit:
		deposit, ok := r.store.deposits[entity.ID]
		if !ok {
			return domain.Transaction{}, false, commons.ErrRecordNotFound
		}
		if deposit.LastProfitAccrualAt != nil && deposit.LastProfitAccrualAt.After(dueBefore) {
			return domain.Transaction{}, false, nil
		}
		at := accruedAt
		deposit.LastProfitAccrualAt = &at
		deposit.UpdatedAt = time.Now().UTC()
		r.store.deposits[entity.ID] = deposit
	default:
		return domain.Transaction{}, false, fmt.Errorf("unknown profit entity kind %q", entity.Kind)
	}

	seq := r.store.countCodeStemLocked(codeStem) + 1
	txn.TransactionCode = fmt.Sprintf("%s%02d", codeStem, seq)
	if txn.ID == "" {
		txn.ID = newID()
	}
	now := time.Now().UTC()
	txn.State = domain.StateDone
	txn.Applied = true
	if txn.IssuedAt.IsZero() {
		txn.IssuedAt = accruedAt
	}
	txn.CreatedAt = now
	txn.UpdatedAt = now

	r.store.transactions[txn.ID] = txn
	r.store.transactionOrder = append(r.store.transactionOrder, txn.ID)
	r.store.appendStateLogLocked(txn.ID, nil, domain.StateDone, txn.UserID, "")

	return txn, true, nil
}

func (r *TransactionRepository) ListScheduledDue(_ context.Context, now time.Time, limit int) ([]domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make([]domain.Transaction, 0)
	for _, id := range r.store.transactionOrder {
		if limit > 0 && len(out) >= limit {
			break
		}
		txn := r.store.transactions[id]
		if txn.Applied || txn.State != domain.StateDone || txn.ScheduledFor == nil {
			continue
		}
		if !txn.ScheduledFor.After(now) {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (r *TransactionRepository) ListStateLogs(_ context.Context, transactionID string) ([]domain.TransactionStateLog, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	// Newest first, matching the audit-trail read order.
	out := make([]domain.TransactionStateLog, 0)
	for i := len(r.store.stateLogs) - 1; i >= 0; i-- {
		entry := r.store.stateLogs[i]
		if entry.TransactionID == transactionID {
			out = append(out, entry)
		}
	}
	return out, nil
}
