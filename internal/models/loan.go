package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "pending"
	LoanStatusFunded    LoanStatus = "funded"
	LoanStatusRepaid    LoanStatus = "repaid"
	LoanStatusDefaulted LoanStatus = "defaulted"
)

// DaysPerTermMonth is the fixed month length used to derive a loan's due date.
const DaysPerTermMonth = 30

type Loan struct {
	ID                 string          `db:"id"`
	BorrowerID         string          `db:"borrower_id"`
	Amount             decimal.Decimal `db:"amount"`
	TermMonths         int             `db:"term_months"`
	Purpose            string          `db:"purpose"`
	Status             LoanStatus      `db:"status"`
	InterestRate       decimal.Decimal `db:"interest_rate"`
	LenderReturnRate   decimal.Decimal `db:"lender_return_rate"`
	PlatformMarginRate decimal.Decimal `db:"platform_margin_rate"`
	LenderID           sql.NullString  `db:"lender_id"`
	FundedAt           sql.NullTime    `db:"funded_at"`
	DueDate            sql.NullTime    `db:"due_date"`
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at"`
}

// DueDateFrom returns the repayment deadline for a loan funded at fundedAt.
func (l *Loan) DueDateFrom(fundedAt time.Time) time.Time {
	return fundedAt.Add(time.Duration(l.TermMonths*DaysPerTermMonth) * 24 * time.Hour)
}

// LoanWithBorrower is a loan joined with the public details of its borrower.
type LoanWithBorrower struct {
	Loan
	BorrowerName  string `db:"borrower_name"`
	BorrowerEmail string `db:"borrower_email"`
}
