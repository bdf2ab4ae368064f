package services_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/usecase/services"
)

func ratePtr(raw string) *decimal.Decimal {
	value := decimal.RequireFromString(raw)
	return &value
}

func TestComputeDestinationAmountSameKind(t *testing.T) {
	got, err := services.ComputeDestinationAmount(services.ConversionInput{
		SourceKind: domain.CurrencyRial,
		DestKind:   domain.CurrencyRial,
		Amount:     decimal.RequireFromString("2500"),
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	assertDecimal(t, got, "2500")
}

func TestComputeDestinationAmountRialToGold(t *testing.T) {
	got, err := services.ComputeDestinationAmount(services.ConversionInput{
		SourceKind:   domain.CurrencyRial,
		DestKind:     domain.CurrencyGold,
		Amount:       decimal.RequireFromString("100000"),
		ExchangeRate: ratePtr("1000"),
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	assertDecimal(t, got, "100.000000")
}

func TestComputeDestinationAmountForeignToRial(t *testing.T) {
	got, err := services.ComputeDestinationAmount(services.ConversionInput{
		SourceKind:   domain.CurrencyUSD,
		DestKind:     domain.CurrencyRial,
		Amount:       decimal.RequireFromString("1.5"),
		ExchangeRate: ratePtr("600000"),
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	assertDecimal(t, got, "900000")
}

func TestComputeDestinationAmountForeignCross(t *testing.T) {
	got, err := services.ComputeDestinationAmount(services.ConversionInput{
		SourceKind:     domain.CurrencyUSD,
		DestKind:       domain.CurrencyEUR,
		Amount:         decimal.RequireFromString("100"),
		SourcePriceIRR: ratePtr("600000"),
		DestPriceIRR:   ratePtr("650000"),
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	// 100 * 600000 / 650000, banker's rounded to six places.
	assertDecimal(t, got, "92.307692")
}

func TestComputeDestinationAmountRoundTripError(t *testing.T) {
	rate := ratePtr("587341.129833")
	amount := decimal.RequireFromString("1000000")

	toUSD, err := services.ComputeDestinationAmount(services.ConversionInput{
		SourceKind:   domain.CurrencyRial,
		DestKind:     domain.CurrencyUSD,
		Amount:       amount,
		ExchangeRate: rate,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	back, err := services.ComputeDestinationAmount(services.ConversionInput{
		SourceKind:   domain.CurrencyUSD,
		DestKind:     domain.CurrencyRial,
		Amount:       toUSD,
		ExchangeRate: rate,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	drift := back.Sub(amount).Abs()
	if drift.GreaterThan(decimal.RequireFromString("1")) {
		t.Fatalf("round trip drift too large: %s", drift.String())
	}
}

func TestComputeDestinationAmountRateBounds(t *testing.T) {
	cases := []struct {
		name string
		rate string
	}{
		{"below minimum", "0.0000001"},
		{"zero", "0"},
		{"above maximum", "1000000000000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := services.ComputeDestinationAmount(services.ConversionInput{
				SourceKind:   domain.CurrencyRial,
				DestKind:     domain.CurrencyUSD,
				Amount:       decimal.RequireFromString("100"),
				ExchangeRate: ratePtr(tc.rate),
			})
			var vErr *domain.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected validation error for rate %s, got %v", tc.rate, err)
			}
		})
	}
}

func TestComputeDestinationAmountMissingRate(t *testing.T) {
	_, err := services.ComputeDestinationAmount(services.ConversionInput{
		SourceKind: domain.CurrencyRial,
		DestKind:   domain.CurrencyUSD,
		Amount:     decimal.RequireFromString("100"),
	})
	if err == nil {
		t.Fatal("expected error for missing exchange rate")
	}
}

func TestComputeDestinationAmountMissingCrossPrices(t *testing.T) {
	_, err := services.ComputeDestinationAmount(services.ConversionInput{
		SourceKind:   domain.CurrencyUSD,
		DestKind:     domain.CurrencyGold,
		Amount:       decimal.RequireFromString("10"),
		ExchangeRate: ratePtr("600000"),
	})
	if err == nil {
		t.Fatal("expected error for missing IRR prices on cross transfer")
	}
}
