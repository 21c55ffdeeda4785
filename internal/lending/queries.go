package lending

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cradoe/quickcred/internal/interest"
	"github.com/cradoe/quickcred/internal/models"
	"github.com/shopspring/decimal"
)

// Cache stores derived read models. cache.Cache satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

const loanAnalyticsKey = "quickcred:analytics:loans"

// LoanView is the read shape of a loan. Interest totals are filled in once
// a loan has been funded.
type LoanView struct {
	ID            string            `json:"id"`
	BorrowerID    string            `json:"borrower_id"`
	BorrowerName  string            `json:"borrower_name,omitempty"`
	BorrowerEmail string            `json:"borrower_email,omitempty"`
	LenderID      string            `json:"lender_id,omitempty"`
	Amount        decimal.Decimal   `json:"amount"`
	TermMonths    int               `json:"term_months"`
	Purpose       string            `json:"purpose"`
	Status        models.LoanStatus `json:"status"`
	InterestRate  decimal.Decimal   `json:"interest_rate"`
	LenderRate    decimal.Decimal   `json:"lender_return_rate"`
	MarginRate    decimal.Decimal   `json:"platform_margin_rate"`
	TotalInterest *decimal.Decimal  `json:"total_interest,omitempty"`
	TotalAmount   *decimal.Decimal  `json:"total_amount,omitempty"`
	FundedAt      *time.Time        `json:"funded_at,omitempty"`
	DueDate       *time.Time        `json:"due_date,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

func NewLoanView(l models.Loan) LoanView {
	view := LoanView{
		ID:           l.ID,
		BorrowerID:   l.BorrowerID,
		Amount:       l.Amount,
		TermMonths:   l.TermMonths,
		Purpose:      l.Purpose,
		Status:       l.Status,
		InterestRate: l.InterestRate,
		LenderRate:   l.LenderReturnRate,
		MarginRate:   l.PlatformMarginRate,
		CreatedAt:    l.CreatedAt,
	}

	if l.LenderID.Valid {
		view.LenderID = l.LenderID.String
	}
	if l.FundedAt.Valid {
		t := l.FundedAt.Time
		view.FundedAt = &t
	}
	if l.DueDate.Valid {
		t := l.DueDate.Time
		view.DueDate = &t
	}

	if l.Status != models.LoanStatusPending {
		split := interest.ForTerms(l.Amount, l.InterestRate, l.LenderReturnRate, l.TermMonths)
		view.TotalInterest = &split.Interest
		view.TotalAmount = &split.TotalRepayment
	}

	return view
}

func loanViews(loans []models.Loan) []LoanView {
	views := make([]LoanView, 0, len(loans))
	for _, l := range loans {
		views = append(views, NewLoanView(l))
	}
	return views
}

func (e *Engine) GetLoan(ctx context.Context, loanID string) (*LoanView, error) {
	loan, found, err := e.db.Loan().GetOne(ctx, loanID)
	if err != nil {
		return nil, storageErr("get loan", err)
	}
	if !found {
		return nil, ErrLoanNotFound
	}

	view := NewLoanView(*loan)
	return &view, nil
}

// ListPendingLoans returns the loans open for funding, newest first, with the
// borrower's public details.
func (e *Engine) ListPendingLoans(ctx context.Context) ([]LoanView, error) {
	loans, err := e.db.Loan().ListByStatus(ctx, models.LoanStatusPending)
	if err != nil {
		return nil, storageErr("list pending loans", err)
	}

	views := make([]LoanView, 0, len(loans))
	for _, l := range loans {
		view := NewLoanView(l.Loan)
		view.BorrowerName = l.BorrowerName
		view.BorrowerEmail = l.BorrowerEmail
		views = append(views, view)
	}
	return views, nil
}

func (e *Engine) ListLoansByBorrower(ctx context.Context, borrowerID string) ([]LoanView, error) {
	loans, err := e.db.Loan().ListByBorrower(ctx, borrowerID)
	if err != nil {
		return nil, storageErr("list borrower loans", err)
	}
	return loanViews(loans), nil
}

func (e *Engine) ListLoansByLender(ctx context.Context, lenderID string) ([]LoanView, error) {
	loans, err := e.db.Loan().ListByLender(ctx, lenderID)
	if err != nil {
		return nil, storageErr("list lender loans", err)
	}
	return loanViews(loans), nil
}

// LoanAnalytics aggregates loan counts and principal by status. Results are
// cached until the next state change when a cache is configured.
func (e *Engine) LoanAnalytics(ctx context.Context) ([]models.LoanStatusSummary, error) {
	if e.cache != nil {
		raw, ok, err := e.cache.Get(ctx, loanAnalyticsKey)
		if err != nil {
			e.logger.Warn("read cached loan analytics", "error", err.Error())
		}
		if ok {
			var summary []models.LoanStatusSummary
			if err := json.Unmarshal([]byte(raw), &summary); err == nil {
				return summary, nil
			}
		}
	}

	summary, err := e.db.Loan().SummaryByStatus(ctx)
	if err != nil {
		return nil, storageErr("loan analytics", err)
	}

	if e.cache != nil {
		if raw, err := json.Marshal(summary); err == nil {
			if err := e.cache.Set(ctx, loanAnalyticsKey, string(raw), e.analyticsTTL); err != nil {
				e.logger.Warn("cache loan analytics", "error", err.Error())
			}
		}
	}

	return summary, nil
}

func (e *Engine) invalidateAnalytics(ctx context.Context) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Delete(ctx, loanAnalyticsKey); err != nil {
		e.logger.Warn("invalidate loan analytics", "error", err.Error())
	}
}

func (e *Engine) BorrowerAnalytics(ctx context.Context, borrowerID string) (*models.BorrowerAnalytics, error) {
	user, found, err := e.db.User().GetOne(ctx, borrowerID)
	if err != nil {
		return nil, storageErr("borrower analytics", err)
	}
	if !found {
		return nil, ErrUserNotFound
	}

	loans, err := e.db.Loan().ListByBorrower(ctx, borrowerID)
	if err != nil {
		return nil, storageErr("borrower analytics", err)
	}

	stats := &models.BorrowerAnalytics{
		WalletBalance:  user.WalletBalance,
		TotalRequested: len(loans),
		TotalBorrowed:  decimal.Zero,
	}

	for _, l := range loans {
		switch l.Status {
		case models.LoanStatusPending:
			stats.Pending++
		case models.LoanStatusFunded:
			stats.Funded++
		case models.LoanStatusRepaid:
			stats.Repaid++
		case models.LoanStatusDefaulted:
			stats.Defaulted++
		}
		if l.Status != models.LoanStatusPending {
			stats.TotalBorrowed = stats.TotalBorrowed.Add(l.Amount)
		}
	}

	return stats, nil
}

func (e *Engine) LenderAnalytics(ctx context.Context, lenderID string) (*models.LenderAnalytics, error) {
	user, found, err := e.db.User().GetOne(ctx, lenderID)
	if err != nil {
		return nil, storageErr("lender analytics", err)
	}
	if !found {
		return nil, ErrUserNotFound
	}

	loans, err := e.db.Loan().ListByLender(ctx, lenderID)
	if err != nil {
		return nil, storageErr("lender analytics", err)
	}

	returns, err := e.db.Transaction().TotalForUser(ctx, lenderID, models.TransactionTypeInterestPayment)
	if err != nil {
		return nil, storageErr("lender analytics", err)
	}

	stats := &models.LenderAnalytics{
		WalletBalance:  user.WalletBalance,
		TotalInvested:  decimal.Zero,
		TotalReturns:   returns.TotalAmount,
		ReturnPayments: returns.Count,
	}

	for _, l := range loans {
		switch l.Status {
		case models.LoanStatusFunded:
			stats.ActiveLoans++
		case models.LoanStatusRepaid:
			stats.RepaidLoans++
		case models.LoanStatusDefaulted:
			stats.DefaultedLoans++
		}
		stats.TotalInvested = stats.TotalInvested.Add(l.Amount)
	}

	return stats, nil
}

func (e *Engine) PlatformAnalytics(ctx context.Context) (*models.PlatformAnalytics, error) {
	roles, err := e.db.User().CountByRole(ctx)
	if err != nil {
		return nil, storageErr("platform analytics", err)
	}

	loans, err := e.LoanAnalytics(ctx)
	if err != nil {
		return nil, err
	}

	transactions, err := e.db.Transaction().SummaryByType(ctx)
	if err != nil {
		return nil, storageErr("platform analytics", err)
	}

	stats := &models.PlatformAnalytics{Loans: loans, Transactions: transactions}
	for _, rc := range roles {
		stats.TotalUsers += rc.Count
		switch rc.Role {
		case models.RoleLender:
			stats.TotalLenders = rc.Count
		case models.RoleBorrower:
			stats.TotalBorrowers = rc.Count
		}
	}

	return stats, nil
}

// TransactionHistory returns the user's ledger entries, newest first.
func (e *Engine) TransactionHistory(ctx context.Context, userID string) ([]models.Transaction, error) {
	txs, err := e.db.Transaction().ListByUser(ctx, userID)
	if err != nil {
		return nil, storageErr("transaction history", err)
	}
	return txs, nil
}

// LoanTransactions returns the ledger entries attached to one loan, newest
// first. Only the loan's borrower and lender may read them.
func (e *Engine) LoanTransactions(ctx context.Context, loanID, userID string) ([]models.Transaction, error) {
	loan, found, err := e.db.Loan().GetOne(ctx, loanID)
	if err != nil {
		return nil, storageErr("loan transactions", err)
	}
	if !found {
		return nil, ErrLoanNotFound
	}
	if loan.BorrowerID != userID && loan.LenderID.String != userID {
		return nil, ErrNotLoanParty
	}

	txs, err := e.db.Transaction().ListByLoan(ctx, loanID)
	if err != nil {
		return nil, storageErr("loan transactions", err)
	}
	return txs, nil
}
