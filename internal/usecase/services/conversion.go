package services

import (
	"github.com/shopspring/decimal"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
)

// Destination-leg amounts are stored with six decimal places; every
// conversion result is rounded to that scale with banker's rounding.
const conversionScale = 6

var (
	minExchangeRate = decimal.RequireFromString("0.000001")
	maxExchangeRate = decimal.RequireFromString("999999999999.999999")
)

type ConversionInput struct {
	SourceKind     domain.CurrencyKind
	DestKind       domain.CurrencyKind
	Amount         decimal.Decimal
	ExchangeRate   *decimal.Decimal
	SourcePriceIRR *decimal.Decimal
	DestPriceIRR   *decimal.Decimal
}

// ComputeDestinationAmount resolves the destination leg of a transfer:
//
//	same kind            -> amount
//	rial -> foreign/gold -> amount / exchange_rate (rate is IRR per unit)
//	foreign/gold -> rial -> amount * exchange_rate
//	foreign/gold cross   -> amount * (source_price_irr / dest_price_irr)
//
// Out-of-bounds rates are rejected, never clamped.
func ComputeDestinationAmount(in ConversionInput) (decimal.Decimal, error) {
	if !in.SourceKind.Valid() {
		return decimal.Decimal{}, domain.NewValidationError("invalid source currency kind %q", in.SourceKind)
	}
	if !in.DestKind.Valid() {
		return decimal.Decimal{}, domain.NewValidationError("invalid destination currency kind %q", in.DestKind)
	}
	if !in.Amount.IsPositive() {
		return decimal.Decimal{}, domain.NewValidationError("amount must be greater than zero")
	}

	if in.SourceKind == in.DestKind {
		return in.Amount.RoundBank(conversionScale), nil
	}

	if in.SourceKind.IsRial() {
		rate, err := checkExchangeRate(in.ExchangeRate)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return in.Amount.Div(rate).RoundBank(conversionScale), nil
	}

	if in.DestKind.IsRial() {
		rate, err := checkExchangeRate(in.ExchangeRate)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return in.Amount.Mul(rate).RoundBank(conversionScale), nil
	}

	// Cross foreign/gold transfers settle through IRR prices.
	srcPrice, err := checkPriceIRR(in.SourcePriceIRR, "source_price_irr")
	if err != nil {
		return decimal.Decimal{}, err
	}
	dstPrice, err := checkPriceIRR(in.DestPriceIRR, "dest_price_irr")
	if err != nil {
		return decimal.Decimal{}, err
	}
	return in.Amount.Mul(srcPrice).Div(dstPrice).RoundBank(conversionScale), nil
}

func checkExchangeRate(rate *decimal.Decimal) (decimal.Decimal, error) {
	if rate == nil {
		return decimal.Decimal{}, domain.NewValidationError("exchange_rate is required for cross-currency transfers")
	}
	if rate.LessThan(minExchangeRate) {
		return decimal.Decimal{}, domain.NewValidationError("exchange rate is too small (minimum %s)", minExchangeRate)
	}
	if rate.GreaterThan(maxExchangeRate) {
		return decimal.Decimal{}, domain.NewValidationError("exchange rate is too large (maximum %s)", maxExchangeRate)
	}
	return *rate, nil
}

func checkPriceIRR(price *decimal.Decimal, field string) (decimal.Decimal, error) {
	if price == nil {
		return decimal.Decimal{}, domain.NewValidationError("%s is required for foreign-to-foreign transfers", field)
	}
	if !price.IsPositive() {
		return decimal.Decimal{}, domain.NewValidationError("%s must be greater than zero", field)
	}
	return *price, nil
}
