package services

import (
	"context"
	"fmt"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/adapter/repository/repo_interfaces"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/logger"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/usecase/service_interfaces"
)

// Verify that WorkflowService implements the service_interfaces.WorkflowService interface
var _ service_interfaces.WorkflowService = (*WorkflowService)(nil)

type WorkflowService struct {
	txnRepo repo_interfaces.TransactionRepository
	ledger  service_interfaces.LedgerService
}

func NewWorkflowService(txnRepo repo_interfaces.TransactionRepository, ledger service_interfaces.LedgerService) *WorkflowService {
	return &WorkflowService{txnRepo: txnRepo, ledger: ledger}
}

type transition struct {
	from domain.TransactionState
	to   domain.TransactionState
}

// Each role may only perform its own slice of the approval chain. Treasury
// additionally may reject from any non-terminal state.
var roleTransitions = map[domain.Role][]transition{
	domain.RoleTreasury: {
		{from: domain.StateWaitingTreasury, to: domain.StateWaitingSandogh},
		{from: domain.StateApprovedByFinanceManager, to: domain.StateWaitingSandogh},
		{from: domain.StateWaitingSandogh, to: domain.StateApprovedBySandogh},
	},
	domain.RoleFinanceManager: {
		{from: domain.StateWaitingFinanceManager, to: domain.StateApprovedByFinanceManager},
		{from: domain.StateWaitingFinanceManager, to: domain.StateRejected},
	},
	domain.RoleOperation: {
		{from: domain.StateApprovedBySandogh, to: domain.StateDone},
		{from: domain.StateApprovedBySandogh, to: domain.StateRejected},
	},
}

func transitionAllowed(role domain.Role, from, to domain.TransactionState) bool {
	if role == domain.RoleTreasury && to == domain.StateRejected {
		return !from.Terminal()
	}
	for _, t := range roleTransitions[role] {
		if t.from == from && t.to == to {
			return true
		}
	}
	return false
}

func (s *WorkflowService) SetState(ctx context.Context, transactionID string, newState domain.TransactionState, role domain.Role, actor, notes string) error {
	txn, err := s.txnRepo.GetByID(ctx, transactionID)
	if err != nil {
		return err
	}

	if txn.State.Terminal() {
		return &domain.IllegalTransitionError{From: txn.State, To: newState, Role: role}
	}
	if !transitionAllowed(role, txn.State, newState) {
		return &domain.IllegalTransitionError{From: txn.State, To: newState, Role: role}
	}

	// A withdrawal cannot be completed without the payout receipt on record.
	if txn.Kind == domain.KindWithdrawalRequest && newState == domain.StateDone && txn.Receipt == "" {
		return domain.NewValidationError("receipt is required to complete a withdrawal request")
	}

	moved, err := s.txnRepo.UpdateState(ctx, transactionID, txn.State, newState, actor, notes)
	if err != nil {
		return fmt.Errorf("update transaction state: %w", err)
	}
	if !moved {
		// Someone else transitioned it first; reload to report the real conflict.
		current, getErr := s.txnRepo.GetByID(ctx, transactionID)
		if getErr != nil {
			return getErr
		}
		return &domain.IllegalTransitionError{From: current.State, To: newState, Role: role}
	}

	logger.Info("workflow service state changed", logger.Fields{
		"transactionId": transactionID,
		"from":          txn.State,
		"to":            newState,
		"role":          role,
		"changedBy":     actor,
	})

	if newState == domain.StateDone {
		if err := s.ledger.Apply(ctx, transactionID); err != nil {
			return err
		}
	}
	return nil
}

func (s *WorkflowService) RecordReceipt(ctx context.Context, transactionID, receipt string) error {
	if receipt == "" {
		return domain.NewValidationError("receipt reference cannot be empty")
	}
	txn, err := s.txnRepo.GetByID(ctx, transactionID)
	if err != nil {
		return err
	}
	if txn.Kind != domain.KindWithdrawalRequest {
		return domain.NewValidationError("receipts can only be recorded on withdrawal requests")
	}
	if txn.State.Terminal() {
		return domain.NewValidationError("cannot record a receipt on a finished transaction")
	}
	if err := s.txnRepo.SetReceipt(ctx, transactionID, receipt); err != nil {
		return fmt.Errorf("record receipt: %w", err)
	}
	logger.Info("workflow service receipt recorded", logger.Fields{
		"transactionId": transactionID,
	})
	return nil
}

// nextState is the happy path a transaction walks when every role approves.
var nextState = map[domain.TransactionState]domain.TransactionState{
	domain.StateWaitingTreasury:          domain.StateWaitingSandogh,
	domain.StateWaitingFinanceManager:    domain.StateApprovedByFinanceManager,
	domain.StateApprovedByFinanceManager: domain.StateWaitingSandogh,
	domain.StateWaitingSandogh:           domain.StateApprovedBySandogh,
	domain.StateApprovedBySandogh:        domain.StateDone,
}

func (s *WorkflowService) AdvanceState(ctx context.Context, transactionID string, role domain.Role, actor string) (bool, error) {
	txn, err := s.txnRepo.GetByID(ctx, transactionID)
	if err != nil {
		return false, err
	}
	if txn.State.Terminal() {
		return false, nil
	}
	to, ok := nextState[txn.State]
	if !ok {
		return false, nil
	}
	if err := s.SetState(ctx, transactionID, to, role, actor, ""); err != nil {
		return false, err
	}
	return true, nil
}
