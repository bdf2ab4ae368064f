package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/adapter/repository/memory"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/usecase/services"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type fixture struct {
	clock    *fakeClock
	store    *memory.Store
	users    *memory.UserRepository
	accounts *memory.AccountRepository
	deposits *memory.DepositRepository
	txns     *memory.TransactionRepository
	snaps    *memory.SnapshotRepository

	ledger   *services.LedgerService
	workflow *services.WorkflowService
	profit   *services.ProfitService
	userSvc  *services.UserService
}

func newFixture(at time.Time) *fixture {
	store := memory.NewStore()
	clock := &fakeClock{now: at}

	users := memory.NewUserRepository(store)
	accounts := memory.NewAccountRepository(store)
	deposits := memory.NewDepositRepository(store)
	txns := memory.NewTransactionRepository(store)
	snaps := memory.NewSnapshotRepository(store)

	codeGen := services.NewCodeGenerator(clock)
	ledger := services.NewLedgerService(txns, accounts, deposits, codeGen, clock)

	return &fixture{
		clock:    clock,
		store:    store,
		users:    users,
		accounts: accounts,
		deposits: deposits,
		txns:     txns,
		snaps:    snaps,
		ledger:   ledger,
		workflow: services.NewWorkflowService(txns, ledger),
		profit:   services.NewProfitService(txns, accounts, deposits, snaps, codeGen, clock),
		userSvc:  services.NewUserService(users, accounts),
	}
}

func (f *fixture) mustAccount(t *testing.T, userID string, kind domain.CurrencyKind, initial string) domain.Account {
	t.Helper()
	account, err := f.accounts.Create(context.Background(), domain.Account{
		UserID:         userID,
		Name:           "Test " + string(kind),
		Kind:           kind,
		InitialBalance: decimal.RequireFromString(initial),
		CreatedAt:      f.clock.Now(),
	})
	if err != nil {
		t.Fatalf("create %s account: %v", kind, err)
	}
	return account
}

func (f *fixture) mustBalance(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()
	balance, err := f.ledger.Balance(context.Background(), accountID)
	if err != nil {
		t.Fatalf("derive balance: %v", err)
	}
	return balance
}

func assertDecimal(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("expected %s, got %s", want, got.String())
	}
}
