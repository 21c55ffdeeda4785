package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cradoe/quickcred/internal/lending"
	"github.com/cradoe/quickcred/internal/models"
	"github.com/shopspring/decimal"
)

// LoanService is the part of the lending engine the HTTP layer calls.
type LoanService interface {
	CreateLoan(ctx context.Context, in lending.CreateLoanInput) (*models.Loan, error)
	FundLoan(ctx context.Context, loanID, lenderID string) (*models.Loan, error)
	RepayLoan(ctx context.Context, loanID, borrowerID string) (*lending.RepaymentResult, error)

	GetLoan(ctx context.Context, loanID string) (*lending.LoanView, error)
	ListPendingLoans(ctx context.Context) ([]lending.LoanView, error)
	ListLoansByBorrower(ctx context.Context, borrowerID string) ([]lending.LoanView, error)
	ListLoansByLender(ctx context.Context, lenderID string) ([]lending.LoanView, error)
	LoanTransactions(ctx context.Context, loanID, userID string) ([]models.Transaction, error)

	LoanAnalytics(ctx context.Context) ([]models.LoanStatusSummary, error)
	BorrowerAnalytics(ctx context.Context, borrowerID string) (*models.BorrowerAnalytics, error)
	LenderAnalytics(ctx context.Context, lenderID string) (*models.LenderAnalytics, error)
	PlatformAnalytics(ctx context.Context) (*models.PlatformAnalytics, error)
	TransactionHistory(ctx context.Context, userID string) ([]models.Transaction, error)
}

// WalletService is the part of the wallet ledger the HTTP layer calls.
type WalletService interface {
	Deposit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error)
	Withdraw(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error)
	Reconcile(ctx context.Context, userID string) (*models.Reconciliation, error)
}

var (
	_ LoanService   = (*lending.Engine)(nil)
	_ WalletService = (*lending.WalletLedger)(nil)
)

const (
	UserActivityLogRegistrationDescription = "User registered"
	UserActivityLogLoginDescription        = "User logged in"
	UserActivityLogFailedLoginDescription  = "Failed login attempt"

	LoanActivityLogCreatedDescription = "Loan requested"
	LoanActivityLogFundedDescription  = "Loan funded"
	LoanActivityLogRepaidDescription  = "Loan repaid"

	WalletActivityLogDepositDescription    = "Wallet topped up"
	WalletActivityLogWithdrawalDescription = "Wallet withdrawal"
)

type queryStringValues struct {
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

func retrieveUrlQueryValues(r *http.Request) *queryStringValues {
	var queryValues = &queryStringValues{}

	// Parse start_date if provided
	startDateStr := r.URL.Query().Get("start_date")
	if startDateStr != "" {
		parsedStart, err := time.Parse("2006-01-02", startDateStr)
		if err == nil {
			queryValues.StartDate = &parsedStart
		}
	}

	// Parse end_date if provided; the whole day is included
	endDateStr := r.URL.Query().Get("end_date")
	if endDateStr != "" {
		parsedEnd, err := time.Parse("2006-01-02", endDateStr)
		if err == nil {
			parsedEnd = parsedEnd.Add(24*time.Hour - time.Nanosecond)
			queryValues.EndDate = &parsedEnd
		}
	}

	// Parse pagination params
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("page")

	// Default pagination values
	offset := 0
	limit := 20

	if limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}
	queryValues.Limit = limit

	if offsetStr != "" {
		if parsedOffset, err := strconv.Atoi(offsetStr); err == nil && parsedOffset >= 1 {
			offset = (parsedOffset - 1) * limit
		}
	}
	queryValues.Offset = offset

	return queryValues
}

// filterTransactions applies the date window and page from q to a
// newest-first history.
func filterTransactions(txs []models.Transaction, q *queryStringValues) []models.Transaction {
	filtered := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if q.StartDate != nil && tx.CreatedAt.Before(*q.StartDate) {
			continue
		}
		if q.EndDate != nil && tx.CreatedAt.After(*q.EndDate) {
			continue
		}
		filtered = append(filtered, tx)
	}

	if q.Offset >= len(filtered) {
		return []models.Transaction{}
	}
	end := q.Offset + q.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[q.Offset:end]
}

type TransactionResponseData struct {
	ID          string                 `json:"id"`
	LoanID      string                 `json:"loan_id,omitempty"`
	Amount      decimal.Decimal        `json:"amount"`
	Type        models.TransactionType `json:"type"`
	Description string                 `json:"description"`
	Status      string                 `json:"status"`
	CreatedAt   time.Time              `json:"created_at"`
}

func transactionResponse(txs []models.Transaction) []TransactionResponseData {
	out := make([]TransactionResponseData, 0, len(txs))
	for _, tx := range txs {
		out = append(out, TransactionResponseData{
			ID:          tx.ID,
			LoanID:      tx.LoanID.String,
			Amount:      tx.Amount,
			Type:        tx.Type,
			Description: tx.Description,
			Status:      tx.Status,
			CreatedAt:   tx.CreatedAt,
		})
	}
	return out
}
