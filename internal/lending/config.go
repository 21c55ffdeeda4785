package lending

import (
	"fmt"

	"github.com/cradoe/quickcred/internal/validator"
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places accepted on principals and
// wallet amounts.
const MoneyPlaces = 2

// RatePlaces matches the scale of the rate columns.
const RatePlaces = 6

// Rates are per-month rates copied onto every loan at creation.
type Rates struct {
	InterestRate       decimal.Decimal
	LenderReturnRate   decimal.Decimal
	PlatformMarginRate decimal.Decimal
}

// Validate requires non-negative rates of at most RatePlaces decimal places
// that satisfy interest = lender return + platform margin.
func (r Rates) Validate() error {
	if r.InterestRate.IsNegative() || r.LenderReturnRate.IsNegative() || r.PlatformMarginRate.IsNegative() {
		return fmt.Errorf("lending rates must not be negative")
	}
	for _, rate := range []decimal.Decimal{r.InterestRate, r.LenderReturnRate, r.PlatformMarginRate} {
		if !validator.MaxDecimalPlaces(rate, RatePlaces) {
			return fmt.Errorf("lending rate %s has more than %d decimal places", rate, RatePlaces)
		}
	}
	if sum := r.LenderReturnRate.Add(r.PlatformMarginRate); !sum.Equal(r.InterestRate) {
		return fmt.Errorf("interest rate %s does not equal lender return %s + platform margin %s",
			r.InterestRate, r.LenderReturnRate, r.PlatformMarginRate)
	}
	return nil
}

// Limits bound the principal and term of a new loan, inclusive.
type Limits struct {
	MinAmount     decimal.Decimal
	MaxAmount     decimal.Decimal
	MinTermMonths int
	MaxTermMonths int
}

func (l Limits) Validate() error {
	if !l.MinAmount.IsPositive() || l.MaxAmount.LessThan(l.MinAmount) {
		return fmt.Errorf("invalid loan amount bounds [%s, %s]", l.MinAmount, l.MaxAmount)
	}
	if !validator.MaxDecimalPlaces(l.MinAmount, MoneyPlaces) || !validator.MaxDecimalPlaces(l.MaxAmount, MoneyPlaces) {
		return fmt.Errorf("loan amount bounds must have at most %d decimal places", MoneyPlaces)
	}
	if l.MinTermMonths < 1 || l.MaxTermMonths < l.MinTermMonths {
		return fmt.Errorf("invalid loan term bounds [%d, %d]", l.MinTermMonths, l.MaxTermMonths)
	}
	return nil
}

func DefaultRates() Rates {
	return Rates{
		InterestRate:       decimal.RequireFromString("0.047"),
		LenderReturnRate:   decimal.RequireFromString("0.02"),
		PlatformMarginRate: decimal.RequireFromString("0.027"),
	}
}

func DefaultLimits() Limits {
	return Limits{
		MinAmount:     decimal.NewFromInt(500),
		MaxAmount:     decimal.NewFromInt(50000),
		MinTermMonths: 1,
		MaxTermMonths: 12,
	}
}
