// Package interest holds the simple-interest arithmetic shared by loan views,
// repayments and dashboards. Everything here is pure.
package interest

import "github.com/shopspring/decimal"

// Simple returns principal × rate × months. The rate is per month and the
// interest is flat for the whole term, regardless of when repayment happens.
func Simple(principal, rate decimal.Decimal, months int) decimal.Decimal {
	return principal.Mul(rate).Mul(decimal.NewFromInt(int64(months)))
}

type Breakdown struct {
	Principal      decimal.Decimal `json:"principal"`
	Interest       decimal.Decimal `json:"total_interest"`
	TotalRepayment decimal.Decimal `json:"total_repayment"`
	LenderReturn   decimal.Decimal `json:"lender_return"`
	PlatformMargin decimal.Decimal `json:"platform_margin"`
}

// LenderPayout is what the lender's wallet receives on repayment.
func (b Breakdown) LenderPayout() decimal.Decimal {
	return b.Principal.Add(b.LenderReturn)
}

// ForTerms splits a loan's economics between borrower, lender and platform.
// The platform margin is derived, never computed from its own rate.
func ForTerms(principal, interestRate, lenderReturnRate decimal.Decimal, months int) Breakdown {
	owed := Simple(principal, interestRate, months)
	lenderReturn := Simple(principal, lenderReturnRate, months)

	return Breakdown{
		Principal:      principal,
		Interest:       owed,
		TotalRepayment: principal.Add(owed),
		LenderReturn:   lenderReturn,
		PlatformMargin: owed.Sub(lenderReturn),
	}
}
