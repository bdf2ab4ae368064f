package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/adapter/repository/repo_interfaces"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/commons"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/logger"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/usecase/service_interfaces"
)

// Verify that ProfitService implements the service_interfaces.ProfitService interface
var _ service_interfaces.ProfitService = (*ProfitService)(nil)

const (
	accountWindowDays = 30
	profitScale       = 2
	baseAccountName   = "Default Rial Account"
)

var oneHundred = decimal.NewFromInt(100)

type ProfitService struct {
	txnRepo     repo_interfaces.TransactionRepository
	accountRepo repo_interfaces.AccountRepository
	depositRepo repo_interfaces.DepositRepository
	snapRepo    repo_interfaces.SnapshotRepository
	codeGen     *CodeGenerator
	clock       Clock
}

func NewProfitService(
	txnRepo repo_interfaces.TransactionRepository,
	accountRepo repo_interfaces.AccountRepository,
	depositRepo repo_interfaces.DepositRepository,
	snapRepo repo_interfaces.SnapshotRepository,
	codeGen *CodeGenerator,
	clock Clock,
) *ProfitService {
	return &ProfitService{
		txnRepo:     txnRepo,
		accountRepo: accountRepo,
		depositRepo: depositRepo,
		snapRepo:    snapRepo,
		codeGen:     codeGen,
		clock:       clock,
	}
}

func (s *ProfitService) AccrueAccountIfDue(ctx context.Context, accountID string) (string, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	if !account.MonthlyProfitRate.IsPositive() {
		return "", nil
	}

	now := s.clock.Now()
	if !accrualDue(account.LastProfitAccrualAt, account.CreatedAt, accountWindowDays, now) {
		return "", nil
	}

	average, err := s.averageBalance(ctx, domain.SnapshotEntityAccount, account.ID, account.InitialBalance, accountWindowDays, now)
	if err != nil {
		return "", err
	}

	profit := average.Mul(account.MonthlyProfitRate).Div(oneHundred).RoundBank(profitScale)
	if !profit.IsPositive() {
		return "", nil
	}

	txn := domain.Transaction{
		UserID:               account.UserID,
		Kind:                 domain.KindProfitAccount,
		Amount:               profit,
		DestinationAccountID: &account.ID,
		State:                domain.StateDone,
		Applied:              true,
		IssuedAt:             now,
	}
	entity := domain.ProfitEntityRef{Kind: domain.SnapshotEntityAccount, ID: account.ID}

	created, ok, err := s.insertAccrual(ctx, txn, entity, now, accountWindowDays)
	if err != nil || !ok {
		return "", err
	}

	logger.Info("profit service account accrual", logger.Fields{
		"accountId":       account.ID,
		"transactionId":   created.ID,
		"transactionCode": created.TransactionCode,
		"averageBalance":  average,
		"profit":          profit,
	})
	return created.ID, nil
}

func (s *ProfitService) AccrueDepositIfDue(ctx context.Context, depositID string) (string, error) {
	deposit, err := s.depositRepo.GetByID(ctx, depositID)
	if err != nil {
		return "", err
	}
	if !deposit.MonthlyProfitRate.IsPositive() {
		return "", nil
	}

	windowDays := deposit.ProfitKind.WindowDays()
	now := s.clock.Now()
	if !accrualDue(deposit.LastProfitAccrualAt, deposit.CreatedAt, windowDays, now) {
		return "", nil
	}

	average, err := s.averageBalance(ctx, domain.SnapshotEntityDeposit, deposit.ID, deposit.InitialBalance, windowDays, now)
	if err != nil {
		return "", err
	}

	profit := average.Mul(deposit.MonthlyProfitRate).Div(oneHundred).RoundBank(profitScale)
	if !profit.IsPositive() {
		return "", nil
	}

	// Deposit profit is credited to the owner's base rial account, never
	// compounded into the deposit itself.
	base, err := s.baseAccountFor(ctx, deposit.UserID)
	if err != nil {
		return "", err
	}

	txn := domain.Transaction{
		UserID:               deposit.UserID,
		Kind:                 domain.KindProfitDepositToAccount,
		Amount:               profit,
		DestinationAccountID: &base.ID,
		State:                domain.StateDone,
		Applied:              true,
		IssuedAt:             now,
	}
	entity := domain.ProfitEntityRef{Kind: domain.SnapshotEntityDeposit, ID: deposit.ID}

	created, ok, err := s.insertAccrual(ctx, txn, entity, now, windowDays)
	if err != nil || !ok {
		return "", err
	}

	logger.Info("profit service deposit accrual", logger.Fields{
		"depositId":       deposit.ID,
		"baseAccountId":   base.ID,
		"transactionId":   created.ID,
		"transactionCode": created.TransactionCode,
		"averageBalance":  average,
		"profit":          profit,
	})
	return created.ID, nil
}

func (s *ProfitService) SnapshotAccountToday(ctx context.Context, accountID string) (bool, error) {
	balance, err := s.accountRepo.Balance(ctx, accountID)
	if err != nil {
		return false, err
	}
	return s.snapRepo.CreateIfAbsent(ctx, domain.DailyBalanceSnapshot{
		EntityKind:   domain.SnapshotEntityAccount,
		EntityID:     accountID,
		SnapshotDate: dateOnly(s.clock.Now()),
		Balance:      balance,
	})
}

func (s *ProfitService) SnapshotDepositToday(ctx context.Context, depositID string) (bool, error) {
	balance, err := s.depositRepo.Balance(ctx, depositID)
	if err != nil {
		return false, err
	}
	return s.snapRepo.CreateIfAbsent(ctx, domain.DailyBalanceSnapshot{
		EntityKind:   domain.SnapshotEntityDeposit,
		EntityID:     depositID,
		SnapshotDate: dateOnly(s.clock.Now()),
		Balance:      balance,
	})
}

func (s *ProfitService) insertAccrual(ctx context.Context, txn domain.Transaction, entity domain.ProfitEntityRef, now time.Time, windowDays int) (domain.Transaction, bool, error) {
	dueBefore := now.AddDate(0, 0, -windowDays)

	var created domain.Transaction
	var ok bool
	var err error
	for attempt := 0; attempt < createCodeAttempts; attempt++ {
		stem := s.codeGen.Stem(txn.Kind, txn.UserID, now)
		created, ok, err = s.txnRepo.ApplyProfitAccrual(ctx, txn, stem, entity, now, dueBefore)
		if err == nil {
			return created, ok, nil
		}
		if !errors.Is(err, commons.ErrDuplicateCode) {
			return domain.Transaction{}, false, fmt.Errorf("apply profit accrual: %w", err)
		}
	}
	return domain.Transaction{}, false, fmt.Errorf("apply profit accrual: %w", err)
}

// averageBalance reconstructs the daily balance over the trailing window from
// snapshots. The balance carried into the window is the newest snapshot at or
// before the window start, falling back to the initial balance for entities
// younger than their first snapshot.
func (s *ProfitService) averageBalance(ctx context.Context, kind domain.SnapshotEntityKind, entityID string, initial decimal.Decimal, windowDays int, now time.Time) (decimal.Decimal, error) {
	periodEnd := dateOnly(now)
	periodStart := periodEnd.AddDate(0, 0, -windowDays)

	carry := initial
	anchor, err := s.snapRepo.LatestAtOrBefore(ctx, kind, entityID, periodStart)
	switch {
	case err == nil:
		carry = anchor.Balance
	case errors.Is(err, commons.ErrRecordNotFound):
	default:
		return decimal.Decimal{}, fmt.Errorf("load window anchor: %w", err)
	}

	snaps, err := s.snapRepo.ListInWindow(ctx, kind, entityID, periodStart, periodEnd)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("list window snapshots: %w", err)
	}

	weighted := decimal.Zero
	cursor := periodStart
	balance := carry
	for _, snap := range snaps {
		days := daysBetween(cursor, snap.SnapshotDate)
		if days > 0 {
			weighted = weighted.Add(balance.Mul(decimal.NewFromInt(int64(days))))
		}
		cursor = snap.SnapshotDate
		balance = snap.Balance
	}
	if days := daysBetween(cursor, periodEnd); days > 0 {
		weighted = weighted.Add(balance.Mul(decimal.NewFromInt(int64(days))))
	}

	return weighted.Div(decimal.NewFromInt(int64(windowDays))), nil
}

func accrualDue(last *time.Time, createdAt time.Time, windowDays int, now time.Time) bool {
	anchor := createdAt
	if last != nil {
		anchor = *last
	}
	return !anchor.After(now.AddDate(0, 0, -windowDays))
}

func (s *ProfitService) baseAccountFor(ctx context.Context, userID string) (domain.Account, error) {
	base, err := s.accountRepo.GetBaseAccount(ctx, userID)
	if err == nil {
		return base, nil
	}
	if !errors.Is(err, commons.ErrRecordNotFound) {
		return domain.Account{}, fmt.Errorf("load base account: %w", err)
	}
	return s.accountRepo.Create(ctx, domain.Account{
		UserID:         userID,
		Name:           baseAccountName,
		Kind:           domain.CurrencyRial,
		InitialBalance: decimal.Zero,
	})
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
