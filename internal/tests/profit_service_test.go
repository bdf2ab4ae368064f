package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
)

func TestProfitServiceAccountAccrualFlatBalance(t *testing.T) {
	start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	f := newFixture(start)
	ctx := context.Background()

	account, err := f.accounts.Create(ctx, domain.Account{
		UserID:            "user-1",
		Name:              "Savings",
		Kind:              domain.CurrencyRial,
		InitialBalance:    decimal.RequireFromString("1000000"),
		MonthlyProfitRate: decimal.RequireFromString("3"),
		CreatedAt:         start,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	// Snapshot every day so the window reconstruction has daily anchors.
	for day := 0; day <= 30; day++ {
		f.clock.now = start.AddDate(0, 0, day)
		if _, err := f.profit.SnapshotAccountToday(ctx, account.ID); err != nil {
			t.Fatalf("snapshot day %d: %v", day, err)
		}
	}

	f.clock.now = start.AddDate(0, 0, 31)
	txnID, err := f.profit.AccrueAccountIfDue(ctx, account.ID)
	if err != nil {
		t.Fatalf("accrue account: %v", err)
	}
	if txnID == "" {
		t.Fatal("expected a profit transaction")
	}

	txn, err := f.ledger.GetTransaction(ctx, txnID)
	if err != nil {
		t.Fatalf("load profit transaction: %v", err)
	}
	// 1,000,000 average at 3 percent.
	assertDecimal(t, txn.Amount, "30000.00")
	if txn.Kind != domain.KindProfitAccount {
		t.Fatalf("expected profit_account kind, got %s", txn.Kind)
	}
	if !txn.Applied || txn.State != domain.StateDone {
		t.Fatalf("profit transaction must be applied and done, got state=%s applied=%v", txn.State, txn.Applied)
	}
	assertDecimal(t, f.mustBalance(t, account.ID), "1030000.00")

	// A second run on the same day is guarded out.
	again, err := f.profit.AccrueAccountIfDue(ctx, account.ID)
	if err != nil {
		t.Fatalf("second accrue: %v", err)
	}
	if again != "" {
		t.Fatalf("expected no second accrual, got %s", again)
	}
	assertDecimal(t, f.mustBalance(t, account.ID), "1030000.00")
}

func TestProfitServiceAccountAccrualWeightsBalanceChanges(t *testing.T) {
	start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	f := newFixture(start)
	ctx := context.Background()

	account, err := f.accounts.Create(ctx, domain.Account{
		UserID:            "user-1",
		Name:              "Savings",
		Kind:              domain.CurrencyRial,
		InitialBalance:    decimal.RequireFromString("1000000"),
		MonthlyProfitRate: decimal.RequireFromString("3"),
		CreatedAt:         start,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	// Ten days into the window the balance doubles; the single snapshot on
	// that day splits the window into a 10-day and a 20-day segment.
	accrueAt := start.AddDate(0, 0, 31)
	windowStart := accrueAt.AddDate(0, 0, -30)
	if _, err := f.snaps.CreateIfAbsent(ctx, domain.DailyBalanceSnapshot{
		EntityKind:   domain.SnapshotEntityAccount,
		EntityID:     account.ID,
		SnapshotDate: windowStart.AddDate(0, 0, 10),
		Balance:      decimal.RequireFromString("2000000"),
	}); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	f.clock.now = accrueAt
	txnID, err := f.profit.AccrueAccountIfDue(ctx, account.ID)
	if err != nil {
		t.Fatalf("accrue account: %v", err)
	}
	if txnID == "" {
		t.Fatal("expected a profit transaction")
	}

	txn, err := f.ledger.GetTransaction(ctx, txnID)
	if err != nil {
		t.Fatalf("load profit transaction: %v", err)
	}
	// (10d * 1,000,000 + 20d * 2,000,000) / 30 = 1,666,666.67 at 3 percent.
	assertDecimal(t, txn.Amount, "50000.00")
}

func TestProfitServiceAccountNotDueYet(t *testing.T) {
	start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	f := newFixture(start)
	ctx := context.Background()

	account, err := f.accounts.Create(ctx, domain.Account{
		UserID:            "user-1",
		Name:              "Savings",
		Kind:              domain.CurrencyRial,
		InitialBalance:    decimal.RequireFromString("1000000"),
		MonthlyProfitRate: decimal.RequireFromString("3"),
		CreatedAt:         start,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	f.clock.now = start.AddDate(0, 0, 15)
	txnID, err := f.profit.AccrueAccountIfDue(ctx, account.ID)
	if err != nil {
		t.Fatalf("accrue account: %v", err)
	}
	if txnID != "" {
		t.Fatalf("expected no accrual before the window closes, got %s", txnID)
	}
}

func TestProfitServiceZeroRateSkipped(t *testing.T) {
	start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	f := newFixture(start)
	ctx := context.Background()

	account := f.mustAccount(t, "user-1", domain.CurrencyRial, "1000000")

	f.clock.now = start.AddDate(0, 0, 60)
	txnID, err := f.profit.AccrueAccountIfDue(ctx, account.ID)
	if err != nil {
		t.Fatalf("accrue account: %v", err)
	}
	if txnID != "" {
		t.Fatalf("expected no accrual for zero rate, got %s", txnID)
	}
}

func TestProfitServiceDepositAccrualCreditsBaseAccount(t *testing.T) {
	start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	f := newFixture(start)
	ctx := context.Background()

	base := f.mustAccount(t, "user-1", domain.CurrencyRial, "0")

	deposit, err := f.deposits.Create(ctx, domain.Deposit{
		UserID:            "user-1",
		InitialBalance:    decimal.RequireFromString("500000"),
		MonthlyProfitRate: decimal.RequireFromString("2"),
		ProfitKind:        domain.ProfitKindMonthly,
		CreatedAt:         start,
	})
	if err != nil {
		t.Fatalf("create deposit: %v", err)
	}

	// No snapshots at all: the initial balance carries across the window.
	f.clock.now = start.AddDate(0, 0, 31)
	txnID, err := f.profit.AccrueDepositIfDue(ctx, deposit.ID)
	if err != nil {
		t.Fatalf("accrue deposit: %v", err)
	}
	if txnID == "" {
		t.Fatal("expected a profit transaction")
	}

	txn, err := f.ledger.GetTransaction(ctx, txnID)
	if err != nil {
		t.Fatalf("load profit transaction: %v", err)
	}
	if txn.Kind != domain.KindProfitDepositToAccount {
		t.Fatalf("expected profit_deposit_to_account, got %s", txn.Kind)
	}
	if txn.DestinationAccountID == nil || *txn.DestinationAccountID != base.ID {
		t.Fatal("expected profit credited to the base rial account")
	}
	assertDecimal(t, txn.Amount, "10000.00")
	assertDecimal(t, f.mustBalance(t, base.ID), "10000.00")

	// The deposit itself never compounds.
	depositBalance, err := f.ledger.DepositBalance(ctx, deposit.ID)
	if err != nil {
		t.Fatalf("deposit balance: %v", err)
	}
	assertDecimal(t, depositBalance, "500000")
}

func TestProfitServiceDepositAccrualProvisionsBaseAccount(t *testing.T) {
	start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	f := newFixture(start)
	ctx := context.Background()

	deposit, err := f.deposits.Create(ctx, domain.Deposit{
		UserID:            "user-2",
		InitialBalance:    decimal.RequireFromString("100000"),
		MonthlyProfitRate: decimal.RequireFromString("2"),
		ProfitKind:        domain.ProfitKindMonthly,
		CreatedAt:         start,
	})
	if err != nil {
		t.Fatalf("create deposit: %v", err)
	}

	f.clock.now = start.AddDate(0, 0, 31)
	txnID, err := f.profit.AccrueDepositIfDue(ctx, deposit.ID)
	if err != nil {
		t.Fatalf("accrue deposit: %v", err)
	}
	if txnID == "" {
		t.Fatal("expected a profit transaction")
	}

	base, err := f.accounts.GetBaseAccount(ctx, "user-2")
	if err != nil {
		t.Fatalf("expected an auto-provisioned base account: %v", err)
	}
	if !base.Kind.IsRial() {
		t.Fatalf("base account must be rial, got %s", base.Kind)
	}
	assertDecimal(t, f.mustBalance(t, base.ID), "2000.00")
}

func TestProfitServiceDepositSemiannualWindow(t *testing.T) {
	start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	f := newFixture(start)
	ctx := context.Background()

	f.mustAccount(t, "user-1", domain.CurrencyRial, "0")
	deposit, err := f.deposits.Create(ctx, domain.Deposit{
		UserID:            "user-1",
		InitialBalance:    decimal.RequireFromString("500000"),
		MonthlyProfitRate: decimal.RequireFromString("2"),
		ProfitKind:        domain.ProfitKindSemiannual,
		CreatedAt:         start,
	})
	if err != nil {
		t.Fatalf("create deposit: %v", err)
	}

	// A month in, a semiannual deposit is nowhere near due.
	f.clock.now = start.AddDate(0, 0, 31)
	txnID, err := f.profit.AccrueDepositIfDue(ctx, deposit.ID)
	if err != nil {
		t.Fatalf("accrue deposit: %v", err)
	}
	if txnID != "" {
		t.Fatalf("expected no accrual before 180 days, got %s", txnID)
	}

	f.clock.now = start.AddDate(0, 0, 181)
	txnID, err = f.profit.AccrueDepositIfDue(ctx, deposit.ID)
	if err != nil {
		t.Fatalf("accrue deposit after window: %v", err)
	}
	if txnID == "" {
		t.Fatal("expected accrual after 180 days")
	}
}

func TestProfitServiceSnapshotIdempotentPerDay(t *testing.T) {
	start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	f := newFixture(start)
	ctx := context.Background()

	account := f.mustAccount(t, "user-1", domain.CurrencyRial, "1000")

	created, err := f.profit.SnapshotAccountToday(ctx, account.ID)
	if err != nil {
		t.Fatalf("first snapshot: %v", err)
	}
	if !created {
		t.Fatal("expected first snapshot to be written")
	}

	created, err = f.profit.SnapshotAccountToday(ctx, account.ID)
	if err != nil {
		t.Fatalf("second snapshot: %v", err)
	}
	if created {
		t.Fatal("expected same-day snapshot to be skipped")
	}

	f.clock.Advance(24 * time.Hour)
	created, err = f.profit.SnapshotAccountToday(ctx, account.ID)
	if err != nil {
		t.Fatalf("next-day snapshot: %v", err)
	}
	if !created {
		t.Fatal("expected next-day snapshot to be written")
	}
}
