package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/usecase/service_interfaces"
)

func createPendingCredit(t *testing.T, f *fixture, accountID, amount string) domain.Transaction {
	t.Helper()
	created, err := f.ledger.CreateTransaction(context.Background(), service_interfaces.CreateTransactionInput{
		UserID:               "user-1",
		Kind:                 domain.KindCreditIncrease,
		Amount:               decimal.RequireFromString(amount),
		DestinationAccountID: accountID,
	})
	if err != nil {
		t.Fatalf("create credit increase: %v", err)
	}
	return created
}

func createPendingWithdrawal(t *testing.T, f *fixture, accountID, amount string) domain.Transaction {
	t.Helper()
	created, err := f.ledger.CreateTransaction(context.Background(), service_interfaces.CreateTransactionInput{
		UserID:               "user-1",
		Kind:                 domain.KindWithdrawalRequest,
		Amount:               decimal.RequireFromString(amount),
		SourceAccountID:      accountID,
		WithdrawalCardNumber: "1234567890123456",
	})
	if err != nil {
		t.Fatalf("create withdrawal: %v", err)
	}
	return created
}

func TestWorkflowServiceCreditIncreaseApprovalChain(t *testing.T) {
	f := newFixture(testStart)
	ctx := context.Background()

	dest := f.mustAccount(t, "user-1", domain.CurrencyRial, "0")
	txn := createPendingCredit(t, f, dest.ID, "300000")

	steps := []struct {
		to   domain.TransactionState
		role domain.Role
	}{
		{domain.StateWaitingSandogh, domain.RoleTreasury},
		{domain.StateApprovedBySandogh, domain.RoleTreasury},
		{domain.StateDone, domain.RoleOperation},
	}
	for _, step := range steps {
		if err := f.workflow.SetState(ctx, txn.ID, step.to, step.role, "approver", ""); err != nil {
			t.Fatalf("transition to %s as %s: %v", step.to, step.role, err)
		}
	}

	final, err := f.ledger.GetTransaction(ctx, txn.ID)
	if err != nil {
		t.Fatalf("reload transaction: %v", err)
	}
	if final.State != domain.StateDone {
		t.Fatalf("expected done, got %s", final.State)
	}
	if !final.Applied {
		t.Fatal("expected transaction applied after reaching done")
	}
	assertDecimal(t, f.mustBalance(t, dest.ID), "300000")

	logs, err := f.txns.ListStateLogs(ctx, txn.ID)
	if err != nil {
		t.Fatalf("list state logs: %v", err)
	}
	if len(logs) != 4 {
		t.Fatalf("expected 4 state log entries, got %d", len(logs))
	}
	// Newest first.
	if logs[0].ToState != domain.StateDone {
		t.Fatalf("expected newest log to be done, got %s", logs[0].ToState)
	}
}

func TestWorkflowServiceWithdrawalReceiptGate(t *testing.T) {
	f := newFixture(testStart)
	ctx := context.Background()

	source := f.mustAccount(t, "user-1", domain.CurrencyRial, "500000")
	txn := createPendingWithdrawal(t, f, source.ID, "200000")

	if err := f.workflow.SetState(ctx, txn.ID, domain.StateApprovedByFinanceManager, domain.RoleFinanceManager, "fm", ""); err != nil {
		t.Fatalf("finance manager approval: %v", err)
	}
	if err := f.workflow.SetState(ctx, txn.ID, domain.StateWaitingSandogh, domain.RoleTreasury, "treasurer", ""); err != nil {
		t.Fatalf("treasury routing: %v", err)
	}
	if err := f.workflow.SetState(ctx, txn.ID, domain.StateApprovedBySandogh, domain.RoleTreasury, "treasurer", ""); err != nil {
		t.Fatalf("sandogh approval: %v", err)
	}

	err := f.workflow.SetState(ctx, txn.ID, domain.StateDone, domain.RoleOperation, "op", "")
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected receipt validation error, got %v", err)
	}
	assertDecimal(t, f.mustBalance(t, source.ID), "500000")

	if err := f.workflow.RecordReceipt(ctx, txn.ID, "SETTLE-991"); err != nil {
		t.Fatalf("record receipt: %v", err)
	}
	if err := f.workflow.SetState(ctx, txn.ID, domain.StateDone, domain.RoleOperation, "op", ""); err != nil {
		t.Fatalf("complete withdrawal: %v", err)
	}

	assertDecimal(t, f.mustBalance(t, source.ID), "300000")
}

func TestWorkflowServiceRejectIsTerminal(t *testing.T) {
	f := newFixture(testStart)
	ctx := context.Background()

	source := f.mustAccount(t, "user-1", domain.CurrencyRial, "500000")
	txn := createPendingWithdrawal(t, f, source.ID, "200000")

	if err := f.workflow.SetState(ctx, txn.ID, domain.StateRejected, domain.RoleFinanceManager, "fm", "suspicious"); err != nil {
		t.Fatalf("reject withdrawal: %v", err)
	}

	err := f.workflow.SetState(ctx, txn.ID, domain.StateApprovedByFinanceManager, domain.RoleFinanceManager, "fm", "")
	var itErr *domain.IllegalTransitionError
	if !errors.As(err, &itErr) {
		t.Fatalf("expected illegal transition error after rejection, got %v", err)
	}
	assertDecimal(t, f.mustBalance(t, source.ID), "500000")
}

func TestWorkflowServiceRoleLegality(t *testing.T) {
	f := newFixture(testStart)
	ctx := context.Background()

	dest := f.mustAccount(t, "user-1", domain.CurrencyRial, "0")
	txn := createPendingCredit(t, f, dest.ID, "1000")

	// Operation cannot short-circuit the chain from waiting_treasury.
	err := f.workflow.SetState(ctx, txn.ID, domain.StateDone, domain.RoleOperation, "op", "")
	var itErr *domain.IllegalTransitionError
	if !errors.As(err, &itErr) {
		t.Fatalf("expected illegal transition error, got %v", err)
	}

	// Finance manager has no say over a credit increase waiting on treasury.
	err = f.workflow.SetState(ctx, txn.ID, domain.StateApprovedByFinanceManager, domain.RoleFinanceManager, "fm", "")
	if !errors.As(err, &itErr) {
		t.Fatalf("expected illegal transition error, got %v", err)
	}
}

func TestWorkflowServiceAdvanceState(t *testing.T) {
	f := newFixture(testStart)
	ctx := context.Background()

	dest := f.mustAccount(t, "user-1", domain.CurrencyRial, "0")
	txn := createPendingCredit(t, f, dest.ID, "5000")

	steps := []domain.Role{domain.RoleTreasury, domain.RoleTreasury, domain.RoleOperation}
	for _, role := range steps {
		moved, err := f.workflow.AdvanceState(ctx, txn.ID, role, "approver")
		if err != nil {
			t.Fatalf("advance as %s: %v", role, err)
		}
		if !moved {
			t.Fatalf("expected a transition as %s", role)
		}
	}

	final, err := f.ledger.GetTransaction(ctx, txn.ID)
	if err != nil {
		t.Fatalf("reload transaction: %v", err)
	}
	if final.State != domain.StateDone || !final.Applied {
		t.Fatalf("expected applied done transaction, got state=%s applied=%v", final.State, final.Applied)
	}

	// Terminal states no-op.
	moved, err := f.workflow.AdvanceState(ctx, txn.ID, domain.RoleOperation, "approver")
	if err != nil {
		t.Fatalf("advance terminal: %v", err)
	}
	if moved {
		t.Fatal("expected no transition from a terminal state")
	}
}

func TestWorkflowServiceRecordReceiptOnlyOnWithdrawals(t *testing.T) {
	f := newFixture(testStart)
	ctx := context.Background()

	dest := f.mustAccount(t, "user-1", domain.CurrencyRial, "0")
	txn := createPendingCredit(t, f, dest.ID, "1000")

	err := f.workflow.RecordReceipt(ctx, txn.ID, "SETTLE-1")
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for non-withdrawal receipt, got %v", err)
	}
}
