package domain

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionKind string

const (
	KindCreditIncrease          TransactionKind = "credit_increase"
	KindWithdrawalRequest       TransactionKind = "withdrawal_request"
	KindAccountToAccount        TransactionKind = "account_to_account"
	KindAccountToDepositInitial TransactionKind = "account_to_deposit_initial"
	KindProfitAccount           TransactionKind = "profit_account"
	KindProfitDepositToAccount  TransactionKind = "profit_deposit_to_account"
)

func (k TransactionKind) Valid() bool {
	switch k {
	case KindCreditIncrease, KindWithdrawalRequest, KindAccountToAccount,
		KindAccountToDepositInitial, KindProfitAccount, KindProfitDepositToAccount:
		return true
	}
	return false
}

// WorkflowGated reports whether the kind must pass the multi-role approval
// workflow before it may be applied.
func (k TransactionKind) WorkflowGated() bool {
	return k == KindCreditIncrease || k == KindWithdrawalRequest
}

func (k TransactionKind) InitialState() TransactionState {
	switch k {
	case KindWithdrawalRequest:
		return StateWaitingFinanceManager
	case KindCreditIncrease:
		return StateWaitingTreasury
	default:
		return StateDone
	}
}

type TransactionState string

const (
	StateWaitingFinanceManager    TransactionState = "waiting_finance_manager"
	StateApprovedByFinanceManager TransactionState = "approved_by_finance_manager"
	StateWaitingTreasury          TransactionState = "waiting_treasury"
	StateWaitingSandogh           TransactionState = "waiting_sandogh"
	StateApprovedBySandogh        TransactionState = "approved_by_sandogh"
	StateDone                     TransactionState = "done"
	StateRejected                 TransactionState = "rejected"
)

func (s TransactionState) Terminal() bool {
	return s == StateDone || s == StateRejected
}

type Role string

const (
	RoleTreasury       Role = "treasury"
	RoleFinanceManager Role = "finance_manager"
	RoleOperation      Role = "operation"
	RoleSupervisor     Role = "supervisor"
)

var (
	cardNumberPattern = regexp.MustCompile(`^\d{16}$`)
	shebaPattern      = regexp.MustCompile(`^IR\d{22}$`)
)

func ValidCardNumber(card string) bool {
	return cardNumberPattern.MatchString(card)
}

func ValidShebaNumber(sheba string) bool {
	return shebaPattern.MatchString(sheba)
}

// Transaction is an immutable-once-applied ledger entry. Amount is the
// source-leg amount; DestinationAmount is the converted destination-leg amount
// for cross-currency account transfers. The ledger delta is never recomputed
// after the first application; Revert is the only symmetric undo.
type Transaction struct {
	ID     string
	UserID string
	Kind   TransactionKind
	Amount decimal.Decimal

	ExchangeRate      *decimal.Decimal
	DestinationAmount *decimal.Decimal
	SourcePriceIRR    *decimal.Decimal
	DestPriceIRR      *decimal.Decimal

	SourceAccountID      *string
	DestinationAccountID *string
	DestinationDepositID *string

	State           TransactionState
	Applied         bool
	TransactionCode string

	WithdrawalCardNumber  string
	WithdrawalShebaNumber string
	Receipt               string

	UserComment           string
	FinanceManagerOpinion string
	TreasurerOpinion      string
	AdminOpinion          string

	IssuedAt     time.Time
	ScheduledFor *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
