package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
)

// Store backs every memory repository with one mutex, so each repository
// method is the same serialized unit of work a database transaction gives the
// postgres implementations.
type Store struct {
	mu sync.Mutex

	users        map[string]domain.User
	accounts     map[string]domain.Account
	deposits     map[string]domain.Deposit
	transactions map[string]domain.Transaction
	snapshots    map[string]domain.DailyBalanceSnapshot
	stateLogs    []domain.TransactionStateLog

	accountOrder     []string
	depositOrder     []string
	transactionOrder []string
}

func NewStore() *Store {
	return &Store{
		users:        make(map[string]domain.User),
		accounts:     make(map[string]domain.Account),
		deposits:     make(map[string]domain.Deposit),
		transactions: make(map[string]domain.Transaction),
		snapshots:    make(map[string]domain.DailyBalanceSnapshot),
	}
}

func newID() string {
	return uuid.NewString()
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func snapshotKey(kind domain.SnapshotEntityKind, entityID string, date time.Time) string {
	return string(kind) + "|" + entityID + "|" + dateOnly(date).Format("2006-01-02")
}

// incomingAmount mirrors the balance-derivation rule: cross-account transfers
// land with their converted destination amount, everything else with the
// source-leg amount.
func incomingAmount(txn domain.Transaction) decimal.Decimal {
	if txn.Kind == domain.KindAccountToAccount && txn.DestinationAmount != nil {
		return *txn.DestinationAmount
	}
	return txn.Amount
}

func (s *Store) accountBalanceLocked(id string) decimal.Decimal {
	acc := s.accounts[id]
	balance := acc.InitialBalance
	for _, txnID := range s.transactionOrder {
		txn := s.transactions[txnID]
		if !txn.Applied {
			continue
		}
		if txn.DestinationAccountID != nil && *txn.DestinationAccountID == id {
			balance = balance.Add(incomingAmount(txn))
		}
		if txn.SourceAccountID != nil && *txn.SourceAccountID == id {
			balance = balance.Sub(txn.Amount)
		}
	}
	return balance
}

func (s *Store) depositBalanceLocked(id string) decimal.Decimal {
	dep := s.deposits[id]
	balance := dep.InitialBalance
	for _, txnID := range s.transactionOrder {
		txn := s.transactions[txnID]
		if !txn.Applied {
			continue
		}
		if txn.DestinationDepositID != nil && *txn.DestinationDepositID == id {
			balance = balance.Add(txn.Amount)
		}
	}
	return balance
}

func (s *Store) countCodeStemLocked(stem string) int {
	count := 0
	for _, txn := range s.transactions {
		if strings.HasPrefix(txn.TransactionCode, stem) {
			count++
		}
	}
	return count
}

func (s *Store) appendStateLogLocked(txnID string, from *domain.TransactionState, to domain.TransactionState, changedBy, notes string) {
	s.stateLogs = append(s.stateLogs, domain.TransactionStateLog{
		ID:            newID(),
		TransactionID: txnID,
		FromState:     from,
		ToState:       to,
		ChangedBy:     changedBy,
		ChangedAt:     time.Now().UTC(),
		Notes:         notes,
	})
}
