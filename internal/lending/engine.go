// Package lending is the loan lifecycle engine. It owns the loan state machine
// and the multi-record mutations (funding, repayment, default) that go with
// each transition.
//
// Every state-changing operation runs inside one ledger store transaction and
// guards the status change with a compare-and-swap on the expected prior
// status, so concurrent callers racing on one loan see exactly one winner and
// a lost race surfaces as ErrInvalidState.
package lending

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/cradoe/quickcred/internal/interest"
	"github.com/cradoe/quickcred/internal/models"
	"github.com/cradoe/quickcred/internal/repository"
	"github.com/cradoe/quickcred/internal/validator"
	"github.com/shopspring/decimal"
)

type Options struct {
	Rates  Rates
	Limits Limits

	// Publisher and Cache are optional.
	Publisher    Publisher
	Cache        Cache
	AnalyticsTTL time.Duration

	Logger *slog.Logger
	Now    func() time.Time
}

type Engine struct {
	db     repository.Database
	wallet *WalletLedger

	rates  Rates
	limits Limits

	publisher    Publisher
	cache        Cache
	analyticsTTL time.Duration

	logger *slog.Logger
	now    func() time.Time
}

func NewEngine(db repository.Database, wallet *WalletLedger, opts Options) (*Engine, error) {
	if err := opts.Rates.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Limits.Validate(); err != nil {
		return nil, err
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.AnalyticsTTL <= 0 {
		opts.AnalyticsTTL = 5 * time.Minute
	}

	return &Engine{
		db:           db,
		wallet:       wallet,
		rates:        opts.Rates,
		limits:       opts.Limits,
		publisher:    opts.Publisher,
		cache:        opts.Cache,
		analyticsTTL: opts.AnalyticsTTL,
		logger:       opts.Logger,
		now:          opts.Now,
	}, nil
}

func (e *Engine) Rates() Rates   { return e.rates }
func (e *Engine) Limits() Limits { return e.limits }

type CreateLoanInput struct {
	BorrowerID string
	Amount     decimal.Decimal
	TermMonths int
	Purpose    string
}

func (e *Engine) validateLoanInput(in CreateLoanInput) error {
	v := validator.Validator{}

	v.Check(validator.InRange(in.Amount, e.limits.MinAmount, e.limits.MaxAmount),
		fmt.Sprintf("loan amount must be between %s and %s", e.limits.MinAmount, e.limits.MaxAmount))
	v.Check(validator.MaxDecimalPlaces(in.Amount, MoneyPlaces),
		fmt.Sprintf("loan amount must have at most %d decimal places", MoneyPlaces))
	v.Check(in.TermMonths >= e.limits.MinTermMonths && in.TermMonths <= e.limits.MaxTermMonths,
		fmt.Sprintf("loan term must be between %d and %d months", e.limits.MinTermMonths, e.limits.MaxTermMonths))
	v.Check(validator.MaxChars(in.Purpose, 500), "purpose must not be more than 500 characters")

	if v.HasErrors() {
		return &ValidationError{Errors: v.Errors}
	}
	return nil
}

// CreateLoan records a pending loan for the borrower with the engine's
// current rates. No wallet is touched.
func (e *Engine) CreateLoan(ctx context.Context, in CreateLoanInput) (*models.Loan, error) {
	if err := e.validateLoanInput(in); err != nil {
		return nil, err
	}

	borrower, found, err := e.db.User().GetOne(ctx, in.BorrowerID)
	if err != nil {
		return nil, storageErr("create loan", err)
	}
	if !found {
		return nil, ErrUserNotFound
	}
	if borrower.Role != models.RoleBorrower {
		return nil, ErrNotBorrower
	}

	loan := &models.Loan{
		BorrowerID:         borrower.ID,
		Amount:             in.Amount,
		TermMonths:         in.TermMonths,
		Purpose:            in.Purpose,
		Status:             models.LoanStatusPending,
		InterestRate:       e.rates.InterestRate,
		LenderReturnRate:   e.rates.LenderReturnRate,
		PlatformMarginRate: e.rates.PlatformMarginRate,
	}

	if _, err := e.db.Loan().Insert(ctx, loan); err != nil {
		return nil, storageErr("create loan", err)
	}

	e.logger.Info("loan created", "loan_id", loan.ID, "borrower_id", loan.BorrowerID, "amount", loan.Amount.String())

	e.invalidateAnalytics(ctx)
	e.publish(TopicLoanCreated, LoanEvent{
		LoanID:     loan.ID,
		BorrowerID: loan.BorrowerID,
		Amount:     loan.Amount,
		TermMonths: loan.TermMonths,
		Status:     string(loan.Status),
		OccurredAt: e.now(),
	})

	return loan, nil
}

// FundLoan moves a pending loan to funded and debits the lender's wallet by
// the principal. Preconditions are checked in this order: the loan exists,
// it is pending, the actor is a lender, the lender can cover the principal.
func (e *Engine) FundLoan(ctx context.Context, loanID, lenderID string) (*models.Loan, error) {
	var funded *models.Loan

	err := e.db.WithinTx(ctx, nil, func(r repository.Repos) error {
		loan, found, err := r.Loan.GetForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if !found {
			return ErrLoanNotFound
		}
		if loan.Status != models.LoanStatusPending {
			return ErrLoanNotPending
		}

		lender, found, err := r.User.GetOne(ctx, lenderID)
		if err != nil {
			return err
		}
		if !found {
			return ErrUserNotFound
		}
		if lender.Role != models.RoleLender {
			return ErrNotLender
		}
		if lender.WalletBalance.LessThan(loan.Amount) {
			return ErrInsufficientBalance
		}

		fundedAt := e.now()
		dueDate := loan.DueDateFrom(fundedAt)

		applied, err := r.Loan.MarkFunded(ctx, loan.ID, lender.ID, fundedAt, dueDate)
		if err != nil {
			return err
		}
		if !applied {
			return ErrLoanNotPending
		}

		_, err = e.wallet.Apply(ctx, r, lender.ID, loan.Amount.Neg(), &models.Transaction{
			LoanID:      sql.NullString{String: loan.ID, Valid: true},
			Amount:      loan.Amount,
			Type:        models.TransactionTypeLoanFunding,
			Description: fmt.Sprintf("Funded loan for %s", loan.Purpose),
			CreatedAt:   fundedAt,
		})
		if err != nil {
			return err
		}

		loan.Status = models.LoanStatusFunded
		loan.LenderID = sql.NullString{String: lender.ID, Valid: true}
		loan.FundedAt = sql.NullTime{Time: fundedAt, Valid: true}
		loan.DueDate = sql.NullTime{Time: dueDate, Valid: true}
		loan.UpdatedAt = fundedAt
		funded = loan
		return nil
	})
	if err != nil {
		return nil, storageErr("fund loan", err)
	}

	e.logger.Info("loan funded", "loan_id", funded.ID, "lender_id", lenderID, "amount", funded.Amount.String())

	e.invalidateAnalytics(ctx)
	dueDate := funded.DueDate.Time
	owed := interest.ForTerms(funded.Amount, funded.InterestRate, funded.LenderReturnRate, funded.TermMonths).TotalRepayment
	e.publish(TopicLoanFunded, LoanEvent{
		LoanID:         funded.ID,
		BorrowerID:     funded.BorrowerID,
		LenderID:       lenderID,
		Amount:         funded.Amount,
		TermMonths:     funded.TermMonths,
		Status:         string(funded.Status),
		DueDate:        &dueDate,
		TotalRepayment: &owed,
		OccurredAt:     funded.FundedAt.Time,
	})

	return funded, nil
}

// RepaymentResult is the split of a completed repayment. The platform margin
// is reported but not credited to any wallet.
type RepaymentResult struct {
	LoanID string `json:"loan_id"`
	interest.Breakdown
}

// RepayLoan settles a funded loan in full: the borrower pays principal plus
// interest and the lender receives principal plus the lender return.
func (e *Engine) RepayLoan(ctx context.Context, loanID, borrowerID string) (*RepaymentResult, error) {
	var (
		result *RepaymentResult
		loan   *models.Loan
	)

	err := e.db.WithinTx(ctx, nil, func(r repository.Repos) error {
		var (
			found bool
			err   error
		)

		loan, found, err = r.Loan.GetForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if !found {
			return ErrLoanNotFound
		}
		if loan.Status != models.LoanStatusFunded {
			return ErrLoanNotFunded
		}
		if loan.BorrowerID != borrowerID {
			return ErrNotLoanOwner
		}
		if !loan.LenderID.Valid {
			return fmt.Errorf("funded loan %s has no lender", loan.ID)
		}

		borrower, found, err := r.User.GetOne(ctx, borrowerID)
		if err != nil {
			return err
		}
		if !found {
			return ErrUserNotFound
		}

		split := interest.ForTerms(loan.Amount, loan.InterestRate, loan.LenderReturnRate, loan.TermMonths)
		if borrower.WalletBalance.LessThan(split.TotalRepayment) {
			return ErrInsufficientBalance
		}

		at := e.now()
		applied, err := r.Loan.UpdateStatus(ctx, loan.ID, models.LoanStatusFunded, models.LoanStatusRepaid, at)
		if err != nil {
			return err
		}
		if !applied {
			return ErrLoanNotFunded
		}

		loanRef := sql.NullString{String: loan.ID, Valid: true}

		_, err = e.wallet.Apply(ctx, r, borrower.ID, split.TotalRepayment.Neg(), &models.Transaction{
			LoanID:      loanRef,
			Amount:      split.TotalRepayment,
			Type:        models.TransactionTypeRepayment,
			Description: fmt.Sprintf("Loan repayment for %s", loan.Purpose),
			CreatedAt:   at,
		})
		if err != nil {
			return err
		}

		// the lender is credited principal plus return; the entry records the return
		_, err = e.wallet.Apply(ctx, r, loan.LenderID.String, split.LenderPayout(), &models.Transaction{
			LoanID:      loanRef,
			Amount:      split.LenderReturn,
			Type:        models.TransactionTypeInterestPayment,
			Description: fmt.Sprintf("Interest payment for loan %s", loan.Purpose),
			CreatedAt:   at,
		})
		if err != nil {
			return err
		}

		loan.Status = models.LoanStatusRepaid
		loan.UpdatedAt = at
		result = &RepaymentResult{LoanID: loan.ID, Breakdown: split}
		return nil
	})
	if err != nil {
		return nil, storageErr("repay loan", err)
	}

	e.logger.Info("loan repaid",
		"loan_id", loan.ID,
		"total_repayment", result.TotalRepayment.String(),
		"lender_return", result.LenderReturn.String(),
		"platform_margin", result.PlatformMargin.String(),
	)

	e.invalidateAnalytics(ctx)
	e.publish(TopicLoanRepaid, LoanEvent{
		LoanID:         loan.ID,
		BorrowerID:     loan.BorrowerID,
		LenderID:       loan.LenderID.String,
		Amount:         loan.Amount,
		TermMonths:     loan.TermMonths,
		Status:         string(loan.Status),
		TotalRepayment: &result.TotalRepayment,
		LenderReturn:   &result.LenderReturn,
		OccurredAt:     loan.UpdatedAt,
	})

	return result, nil
}
