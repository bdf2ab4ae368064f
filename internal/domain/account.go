package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CurrencyKind string

const (
	CurrencyRial CurrencyKind = "rial"
	CurrencyGold CurrencyKind = "gold"
	CurrencyUSD  CurrencyKind = "usd"
	CurrencyEUR  CurrencyKind = "eur"
	CurrencyGBP  CurrencyKind = "gbp"
)

func (k CurrencyKind) Valid() bool {
	switch k {
	case CurrencyRial, CurrencyGold, CurrencyUSD, CurrencyEUR, CurrencyGBP:
		return true
	}
	return false
}

func (k CurrencyKind) IsRial() bool {
	return k == CurrencyRial
}

// Account carries no stored balance: the current balance is always
// initial_balance plus the aggregate of applied transactions referencing the
// account. See AccountRepository.Balance.
type Account struct {
	ID                  string
	UserID              string
	Name                string
	Kind                CurrencyKind
	InitialBalance      decimal.Decimal
	MonthlyProfitRate   decimal.Decimal
	LastProfitAccrualAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (a Account) Validate() error {
	if a.UserID == "" {
		return NewValidationError("account requires a user")
	}
	if a.Name == "" {
		return NewValidationError("account requires a name")
	}
	if !a.Kind.Valid() {
		return NewValidationError("invalid currency kind %q", a.Kind)
	}
	if a.InitialBalance.IsNegative() {
		return NewValidationError("initial balance cannot be negative")
	}
	if a.MonthlyProfitRate.IsNegative() {
		return NewValidationError("monthly profit rate cannot be negative")
	}
	return nil
}
