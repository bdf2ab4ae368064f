package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProfitKind string

const (
	ProfitKindMonthly    ProfitKind = "monthly"
	ProfitKindSemiannual ProfitKind = "semiannual"
	ProfitKindYearly     ProfitKind = "yearly"
)

func (k ProfitKind) Valid() bool {
	switch k {
	case ProfitKindMonthly, ProfitKindSemiannual, ProfitKindYearly:
		return true
	}
	return false
}

// WindowDays is the trailing accrual window. The profit kind only widens the
// window; the calculation granularity stays daily.
func (k ProfitKind) WindowDays() int {
	switch k {
	case ProfitKindSemiannual:
		return 180
	case ProfitKindYearly:
		return 365
	default:
		return 30
	}
}

// Deposit only receives funds; there is no outgoing leg. Profit accrued on a
// deposit is credited to the owner's base rial account, not compounded.
type Deposit struct {
	ID                string
	UserID            string
	InitialBalance    decimal.Decimal
	MonthlyProfitRate decimal.Decimal
	ProfitKind        ProfitKind
	// BreakageCoefficient is persisted and validated but currently inert:
	// no early-closure penalty consumes it yet.
	BreakageCoefficient decimal.Decimal
	LastProfitAccrualAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (d Deposit) Validate() error {
	if d.UserID == "" {
		return NewValidationError("deposit requires a user")
	}
	if d.InitialBalance.IsNegative() {
		return NewValidationError("initial balance cannot be negative")
	}
	if d.MonthlyProfitRate.IsNegative() {
		return NewValidationError("monthly profit rate cannot be negative")
	}
	if !d.ProfitKind.Valid() {
		return NewValidationError("invalid profit kind %q", d.ProfitKind)
	}
	if d.BreakageCoefficient.IsNegative() || d.BreakageCoefficient.GreaterThan(decimal.NewFromInt(100)) {
		return NewValidationError("breakage coefficient must be between 0 and 100")
	}
	return nil
}
