package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeWalletTopup      TransactionType = "wallet_topup"
	TransactionTypeWalletWithdrawal TransactionType = "wallet_withdrawal"
	TransactionTypeLoanFunding      TransactionType = "loan_funding"
	TransactionTypeRepayment        TransactionType = "repayment"
	TransactionTypeInterestPayment  TransactionType = "interest_payment"
)

// Ledger entries are written once; there is no pending or failed state.
const TransactionStatusCompleted = "completed"

type Transaction struct {
	ID          string          `db:"id"`
	LoanID      sql.NullString  `db:"loan_id"`
	UserID      string          `db:"user_id"`
	Amount      decimal.Decimal `db:"amount"`
	Type        TransactionType `db:"type"`
	Description string          `db:"description"`
	Status      string          `db:"status"`
	CreatedAt   time.Time       `db:"created_at"`
}
