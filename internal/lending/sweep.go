package lending

import (
	"context"
	"time"

	"github.com/cradoe/quickcred/internal/models"
	"github.com/cradoe/quickcred/internal/repository"
)

// The default sweep is an extension of the lifecycle: nothing else moves a
// loan to defaulted. A defaulted loan has no wallet movement and no ledger
// entry; it only stops being repayable.

// ListOverdue returns funded loans whose due date is before now.
func (e *Engine) ListOverdue(ctx context.Context, now time.Time, limit int) ([]models.Loan, error) {
	loans, err := e.db.Loan().ListOverdue(ctx, now, limit)
	if err != nil {
		return nil, storageErr("list overdue loans", err)
	}
	return loans, nil
}

// DefaultLoan moves one overdue funded loan to defaulted. It reports false
// when the loan was repaid or defaulted first, or is not yet due.
func (e *Engine) DefaultLoan(ctx context.Context, loanID string, now time.Time) (bool, error) {
	var loan *models.Loan
	applied := false

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
		if loan.Status != models.LoanStatusFunded || !loan.DueDate.Valid || !loan.DueDate.Time.Before(now) {
			return nil
		}

		applied, err = r.Loan.UpdateStatus(ctx, loan.ID, models.LoanStatusFunded, models.LoanStatusDefaulted, now)
		return err
	})
	if err != nil {
		return false, storageErr("default loan", err)
	}
	if !applied {
		return false, nil
	}

	e.logger.Warn("loan defaulted", "loan_id", loan.ID, "borrower_id", loan.BorrowerID, "due_date", loan.DueDate.Time)

	e.invalidateAnalytics(ctx)
	dueDate := loan.DueDate.Time
	e.publish(TopicLoanDefaulted, LoanEvent{
		LoanID:     loan.ID,
		BorrowerID: loan.BorrowerID,
		LenderID:   loan.LenderID.String,
		Amount:     loan.Amount,
		TermMonths: loan.TermMonths,
		Status:     string(models.LoanStatusDefaulted),
		DueDate:    &dueDate,
		OccurredAt: now,
	})

	return true, nil
}

// MarkDefaulted sweeps every loan overdue at now, one at a time, and returns
// how many were moved to defaulted.
func (e *Engine) MarkDefaulted(ctx context.Context, now time.Time) (int, error) {
	loans, err := e.ListOverdue(ctx, now, 0)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, l := range loans {
		ok, err := e.DefaultLoan(ctx, l.ID, now)
		if err != nil {
			return count, err
		}
		if ok {
			count++
		}
	}
	return count, nil
}
