package models

import "github.com/shopspring/decimal"

type LoanStatusSummary struct {
	Status      LoanStatus      `db:"status" json:"status"`
	Count       int             `db:"count" json:"count"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
}

type TransactionTypeSummary struct {
	Type        TransactionType `db:"type" json:"type"`
	Count       int             `db:"count" json:"count"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
}

type RoleCount struct {
	Role  Role `db:"role" json:"role"`
	Count int  `db:"count" json:"count"`
}

type BorrowerAnalytics struct {
	WalletBalance  decimal.Decimal `json:"wallet_balance"`
	TotalRequested int             `json:"total_loans_requested"`
	Pending        int             `json:"pending_loans"`
	Funded         int             `json:"funded_loans"`
	Repaid         int             `json:"repaid_loans"`
	Defaulted      int             `json:"defaulted_loans"`
	TotalBorrowed  decimal.Decimal `json:"total_borrowed"`
}

type LenderAnalytics struct {
	WalletBalance  decimal.Decimal `json:"wallet_balance"`
	ActiveLoans    int             `json:"active_loans"`
	RepaidLoans    int             `json:"total_loans_repaid"`
	DefaultedLoans int             `json:"defaulted_loans"`
	TotalInvested  decimal.Decimal `json:"total_invested"`
	TotalReturns   decimal.Decimal `json:"total_returns"`
	ReturnPayments int             `json:"return_payments"`
}

type PlatformAnalytics struct {
	TotalUsers     int                      `json:"total_users"`
	TotalLenders   int                      `json:"total_lenders"`
	TotalBorrowers int                      `json:"total_borrowers"`
	Loans          []LoanStatusSummary      `json:"loan_analytics"`
	Transactions   []TransactionTypeSummary `json:"transaction_analytics"`
}

// TypeTotal is the count and sum of one user's transactions of a single type.
type TypeTotal struct {
	Count       int             `db:"count"`
	TotalAmount decimal.Decimal `db:"total_amount"`
}

// Reconciliation compares a wallet balance with the balance implied by the user's ledger entries.
type Reconciliation struct {
	UserID   string          `json:"user_id"`
	Expected decimal.Decimal `json:"expected_balance"`
	Actual   decimal.Decimal `json:"actual_balance"`
	Entries  int             `json:"entries"`
	Balanced bool            `json:"balanced"`
}
