package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/adapter/repository/repo_interfaces"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/commons"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/logger"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/usecase/service_interfaces"
)

// Verify that LedgerService implements the service_interfaces.LedgerService interface
var _ service_interfaces.LedgerService = (*LedgerService)(nil)

const createCodeAttempts = 5

type LedgerService struct {
	txnRepo     repo_interfaces.TransactionRepository
	accountRepo repo_interfaces.AccountRepository
	depositRepo repo_interfaces.DepositRepository
	codeGen     *CodeGenerator
	clock       Clock
}

func NewLedgerService(
	txnRepo repo_interfaces.TransactionRepository,
	accountRepo repo_interfaces.AccountRepository,
	depositRepo repo_interfaces.DepositRepository,
	codeGen *CodeGenerator,
	clock Clock,
) *LedgerService {
	return &LedgerService{
		txnRepo:     txnRepo,
		accountRepo: accountRepo,
		depositRepo: depositRepo,
		codeGen:     codeGen,
		clock:       clock,
	}
}

// validator table keyed by kind; a closed set of variants instead of an
// inheritance hierarchy.
type kindValidator func(ctx context.Context, s *LedgerService, txn domain.Transaction) error

var kindValidators = map[domain.TransactionKind]kindValidator{
	domain.KindCreditIncrease:          validateCreditIncrease,
	domain.KindWithdrawalRequest:       validateWithdrawalRequest,
	domain.KindAccountToAccount:        validateAccountToAccount,
	domain.KindAccountToDepositInitial: validateAccountToDepositInitial,
	domain.KindProfitAccount:           validateProfitAccount,
	domain.KindProfitDepositToAccount:  validateProfitAccount,
}

func (s *LedgerService) CreateTransaction(ctx context.Context, in service_interfaces.CreateTransactionInput) (domain.Transaction, error) {
	logger.Info("ledger service create transaction request", logger.Fields{
		"payload": logger.SanitizePayload(in),
	})

	if err := in.Validate(); err != nil {
		logger.Error("ledger service create transaction validation failed", err, nil)
		return domain.Transaction{}, err
	}

	txn := domain.Transaction{
		UserID:                in.UserID,
		Kind:                  in.Kind,
		Amount:                in.Amount,
		ExchangeRate:          in.ExchangeRate,
		SourcePriceIRR:        in.SourcePriceIRR,
		DestPriceIRR:          in.DestPriceIRR,
		SourceAccountID:       optionalID(in.SourceAccountID),
		DestinationAccountID:  optionalID(in.DestinationAccountID),
		DestinationDepositID:  optionalID(in.DestinationDepositID),
		WithdrawalCardNumber:  in.WithdrawalCardNumber,
		WithdrawalShebaNumber: in.WithdrawalShebaNumber,
		UserComment:           in.UserComment,
		State:                 in.Kind.InitialState(),
		IssuedAt:              s.clock.Now(),
		ScheduledFor:          in.ScheduledFor,
	}

	if txn.Kind == domain.KindAccountToAccount {
		destAmount, err := s.resolveDestinationAmount(ctx, txn)
		if err != nil {
			return domain.Transaction{}, err
		}
		txn.DestinationAmount = &destAmount
	}

	if err := s.Validate(ctx, txn); err != nil {
		logger.Error("ledger service create transaction validation failed", err, logger.Fields{
			"kind": txn.Kind,
		})
		return domain.Transaction{}, err
	}

	var created domain.Transaction
	var err error
	for attempt := 0; attempt < createCodeAttempts; attempt++ {
		stem := s.codeGen.Stem(txn.Kind, txn.UserID, txn.IssuedAt)
		created, err = s.txnRepo.Create(ctx, txn, stem)
		if err == nil {
			break
		}
		if !errors.Is(err, commons.ErrDuplicateCode) {
			return domain.Transaction{}, fmt.Errorf("create transaction: %w", err)
		}
	}
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	// Non-gated kinds go live immediately; Apply itself skips transactions
	// scheduled for the future, the scheduler releases those later.
	if !created.Kind.WorkflowGated() {
		if err := s.Apply(ctx, created.ID); err != nil {
			return domain.Transaction{}, err
		}
		created, err = s.txnRepo.GetByID(ctx, created.ID)
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("reload transaction: %w", err)
		}
	}

	logger.Info("ledger service create transaction success", logger.Fields{
		"transactionId":   created.ID,
		"transactionCode": created.TransactionCode,
		"kind":            created.Kind,
		"state":           created.State,
		"applied":         created.Applied,
	})

	return created, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	return s.txnRepo.GetByID(ctx, id)
}

func (s *LedgerService) Validate(ctx context.Context, txn domain.Transaction) error {
	if !txn.Amount.IsPositive() {
		return domain.NewValidationError("amount must be greater than zero")
	}
	validate, ok := kindValidators[txn.Kind]
	if !ok {
		return domain.NewValidationError("invalid transaction kind %q", txn.Kind)
	}
	return validate(ctx, s, txn)
}

// Apply flips the applied flag exactly once. It is a no-op for transactions
// already applied, scheduled for the future, or still inside an approval
// workflow. The flip is a compare-and-set in the repository, so two
// concurrent callers cannot both land the ledger delta.
func (s *LedgerService) Apply(ctx context.Context, id string) error {
	txn, err := s.txnRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if txn.Applied {
		return nil
	}
	if txn.ScheduledFor != nil && txn.ScheduledFor.After(s.clock.Now()) {
		return nil
	}
	if txn.Kind.WorkflowGated() && txn.State != domain.StateDone {
		return nil
	}

	if err := s.Validate(ctx, txn); err != nil {
		return err
	}

	flipped, err := s.txnRepo.MarkApplied(ctx, id)
	if err != nil {
		return fmt.Errorf("apply transaction: %w", err)
	}
	if flipped {
		logger.Info("ledger service transaction applied", logger.Fields{
			"transactionId":   txn.ID,
			"transactionCode": txn.TransactionCode,
			"kind":            txn.Kind,
		})
	}
	return nil
}

// Revert is the symmetric undo of Apply and is idempotent: reverting an
// unapplied transaction changes nothing.
func (s *LedgerService) Revert(ctx context.Context, id string) error {
	txn, err := s.txnRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !txn.Applied {
		return nil
	}

	flipped, err := s.txnRepo.MarkReverted(ctx, id)
	if err != nil {
		return fmt.Errorf("revert transaction: %w", err)
	}
	if flipped {
		logger.Info("ledger service transaction reverted", logger.Fields{
			"transactionId":   txn.ID,
			"transactionCode": txn.TransactionCode,
		})
	}
	return nil
}

func (s *LedgerService) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	return s.accountRepo.Balance(ctx, accountID)
}

func (s *LedgerService) DepositBalance(ctx context.Context, depositID string) (decimal.Decimal, error) {
	return s.depositRepo.Balance(ctx, depositID)
}

func (s *LedgerService) resolveDestinationAmount(ctx context.Context, txn domain.Transaction) (decimal.Decimal, error) {
	source, err := s.requireAccount(ctx, txn.SourceAccountID, "source_account")
	if err != nil {
		return decimal.Decimal{}, err
	}
	dest, err := s.requireAccount(ctx, txn.DestinationAccountID, "destination_account")
	if err != nil {
		return decimal.Decimal{}, err
	}
	return ComputeDestinationAmount(ConversionInput{
		SourceKind:     source.Kind,
		DestKind:       dest.Kind,
		Amount:         txn.Amount,
		ExchangeRate:   txn.ExchangeRate,
		SourcePriceIRR: txn.SourcePriceIRR,
		DestPriceIRR:   txn.DestPriceIRR,
	})
}

func (s *LedgerService) requireAccount(ctx context.Context, id *string, field string) (domain.Account, error) {
	if id == nil || *id == "" {
		return domain.Account{}, domain.NewValidationError("%s is required", field)
	}
	account, err := s.accountRepo.GetByID(ctx, *id)
	if err != nil {
		if errors.Is(err, commons.ErrRecordNotFound) {
			return domain.Account{}, domain.NewValidationError("%s not found", field)
		}
		return domain.Account{}, fmt.Errorf("load %s: %w", field, err)
	}
	return account, nil
}

func (s *LedgerService) requireDeposit(ctx context.Context, id *string, field string) (domain.Deposit, error) {
	if id == nil || *id == "" {
		return domain.Deposit{}, domain.NewValidationError("%s is required", field)
	}
	deposit, err := s.depositRepo.GetByID(ctx, *id)
	if err != nil {
		if errors.Is(err, commons.ErrRecordNotFound) {
			return domain.Deposit{}, domain.NewValidationError("%s not found", field)
		}
		return domain.Deposit{}, fmt.Errorf("load %s: %w", field, err)
	}
	return deposit, nil
}

func (s *LedgerService) checkSufficientBalance(ctx context.Context, accountID string, amount decimal.Decimal) error {
	balance, err := s.accountRepo.Balance(ctx, accountID)
	if err != nil {
		return fmt.Errorf("load source balance: %w", err)
	}
	if balance.LessThan(amount) {
		return &domain.ValidationError{
			Message: fmt.Sprintf("insufficient balance: available %s, required %s", balance, amount),
			Err:     commons.ErrInsufficientBalance,
		}
	}
	return nil
}

func validateCreditIncrease(ctx context.Context, s *LedgerService, txn domain.Transaction) error {
	if txn.SourceAccountID != nil {
		return domain.NewValidationError("credit increase cannot have a source account")
	}
	dest, err := s.requireAccount(ctx, txn.DestinationAccountID, "destination_account")
	if err != nil {
		return err
	}
	if !dest.Kind.IsRial() {
		return domain.NewValidationError("credit increase can only be applied to rial accounts")
	}
	return nil
}

func validateWithdrawalRequest(ctx context.Context, s *LedgerService, txn domain.Transaction) error {
	if txn.DestinationAccountID != nil || txn.DestinationDepositID != nil {
		return domain.NewValidationError("withdrawal request cannot have an internal destination")
	}
	source, err := s.requireAccount(ctx, txn.SourceAccountID, "source_account")
	if err != nil {
		return err
	}
	if !source.Kind.IsRial() {
		return domain.NewValidationError("withdrawal request can only be applied to rial accounts")
	}

	hasCard := txn.WithdrawalCardNumber != ""
	hasSheba := txn.WithdrawalShebaNumber != ""
	if hasCard == hasSheba {
		return domain.NewValidationError("withdrawal request requires exactly one of card number or SHEBA number")
	}
	if hasCard && !domain.ValidCardNumber(txn.WithdrawalCardNumber) {
		return domain.NewValidationError("card number must be exactly 16 digits")
	}
	if hasSheba && !domain.ValidShebaNumber(txn.WithdrawalShebaNumber) {
		return domain.NewValidationError("SHEBA number must start with IR followed by 22 digits")
	}

	// The receipt gate also lives in the workflow transition; checking it
	// here keeps a directly-constructed done withdrawal honest.
	if txn.State == domain.StateDone && txn.Receipt == "" {
		return domain.NewValidationError("receipt is required to complete a withdrawal request")
	}

	return s.checkSufficientBalance(ctx, source.ID, txn.Amount)
}

func validateAccountToAccount(ctx context.Context, s *LedgerService, txn domain.Transaction) error {
	source, err := s.requireAccount(ctx, txn.SourceAccountID, "source_account")
	if err != nil {
		return err
	}
	dest, err := s.requireAccount(ctx, txn.DestinationAccountID, "destination_account")
	if err != nil {
		return err
	}
	if source.ID == dest.ID {
		return domain.NewValidationError("source and destination accounts cannot be the same")
	}

	if _, err := ComputeDestinationAmount(ConversionInput{
		SourceKind:     source.Kind,
		DestKind:       dest.Kind,
		Amount:         txn.Amount,
		ExchangeRate:   txn.ExchangeRate,
		SourcePriceIRR: txn.SourcePriceIRR,
		DestPriceIRR:   txn.DestPriceIRR,
	}); err != nil {
		return err
	}

	return s.checkSufficientBalance(ctx, source.ID, txn.Amount)
}

func validateAccountToDepositInitial(ctx context.Context, s *LedgerService, txn domain.Transaction) error {
	source, err := s.requireAccount(ctx, txn.SourceAccountID, "source_account")
	if err != nil {
		return err
	}
	if !source.Kind.IsRial() {
		return domain.NewValidationError("deposit funding requires a rial source account")
	}
	if _, err := s.requireDeposit(ctx, txn.DestinationDepositID, "destination_deposit"); err != nil {
		return err
	}
	return s.checkSufficientBalance(ctx, source.ID, txn.Amount)
}

func validateProfitAccount(ctx context.Context, s *LedgerService, txn domain.Transaction) error {
	if txn.SourceAccountID != nil {
		return domain.NewValidationError("profit transactions cannot have a source account")
	}
	_, err := s.requireAccount(ctx, txn.DestinationAccountID, "destination_account")
	return err
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
