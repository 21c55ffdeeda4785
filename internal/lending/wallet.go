package lending

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/cradoe/quickcred/internal/models"
	"github.com/cradoe/quickcred/internal/repository"
	"github.com/cradoe/quickcred/internal/validator"
	"github.com/shopspring/decimal"
)

// WalletLedger is the only writer of wallet balances. Each balance change is
// paired with exactly one transaction record inside the same unit of work.
type WalletLedger struct {
	db     repository.Database
	logger *slog.Logger
	now    func() time.Time
}

func NewWalletLedger(db repository.Database, logger *slog.Logger, now func() time.Time) *WalletLedger {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WalletLedger{db: db, logger: logger, now: now}
}

// Apply adds delta to the user's balance and appends entry, both through r.
// A delta that would take the balance below zero is refused with
// ErrInsufficientBalance even when the caller checked beforehand, since
// another unit of work may have moved the balance in between.
func (w *WalletLedger) Apply(ctx context.Context, r repository.Repos, userID string, delta decimal.Decimal, entry *models.Transaction) (decimal.Decimal, error) {
	balance, applied, err := r.User.ApplyBalanceDelta(ctx, userID, delta, w.now())
	if err != nil {
		return decimal.Zero, err
	}

	if !applied {
		_, found, err := r.User.GetOne(ctx, userID)
		if err != nil {
			return decimal.Zero, err
		}
		if !found {
			return decimal.Zero, ErrUserNotFound
		}
		return decimal.Zero, ErrInsufficientBalance
	}

	entry.UserID = userID
	if entry.Amount.IsZero() {
		entry.Amount = delta.Abs()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = w.now()
	}

	if _, err := r.Transaction.Insert(ctx, entry); err != nil {
		return decimal.Zero, err
	}

	return balance, nil
}

func checkAmount(amount decimal.Decimal) error {
	v := validator.Validator{}
	v.Check(amount.IsPositive(), "amount must be > 0")
	v.Check(validator.MaxDecimalPlaces(amount, MoneyPlaces), fmt.Sprintf("amount must have at most %d decimal places", MoneyPlaces))
	if v.HasErrors() {
		return &ValidationError{Errors: v.Errors}
	}
	return nil
}

// Deposit credits a top-up to the user's wallet and returns the new balance.
func (w *WalletLedger) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := checkAmount(amount); err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal
	err := w.db.WithinTx(ctx, nil, func(r repository.Repos) error {
		var err error
		balance, err = w.Apply(ctx, r, userID, amount, &models.Transaction{
			Type:        models.TransactionTypeWalletTopup,
			Amount:      amount,
			Description: fmt.Sprintf("Wallet top-up of %s", amount.StringFixed(2)),
		})
		return err
	})
	if err != nil {
		return decimal.Zero, storageErr("deposit", err)
	}

	w.logger.Info("wallet deposit", "user_id", userID, "amount", amount.String(), "balance", balance.String())
	return balance, nil
}

// Withdraw debits the user's wallet and returns the new balance.
func (w *WalletLedger) Withdraw(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := checkAmount(amount); err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal
	err := w.db.WithinTx(ctx, nil, func(r repository.Repos) error {
		user, found, err := r.User.GetOne(ctx, userID)
		if err != nil {
			return err
		}
		if !found {
			return ErrUserNotFound
		}
		if user.WalletBalance.LessThan(amount) {
			return ErrInsufficientBalance
		}

		balance, err = w.Apply(ctx, r, userID, amount.Neg(), &models.Transaction{
			Type:        models.TransactionTypeWalletWithdrawal,
			Amount:      amount,
			Description: fmt.Sprintf("Wallet withdrawal of %s", amount.StringFixed(2)),
		})
		return err
	})
	if err != nil {
		return decimal.Zero, storageErr("withdraw", err)
	}

	w.logger.Info("wallet withdrawal", "user_id", userID, "amount", amount.String(), "balance", balance.String())
	return balance, nil
}

// Reconcile recomputes the balance implied by the user's ledger entries and
// compares it with the stored wallet balance. It reads one snapshot.
func (w *WalletLedger) Reconcile(ctx context.Context, userID string) (*models.Reconciliation, error) {
	var result *models.Reconciliation

	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := w.db.WithinTx(ctx, opts, func(r repository.Repos) error {
		user, found, err := r.User.GetOne(ctx, userID)
		if err != nil {
			return err
		}
		if !found {
			return ErrUserNotFound
		}

		entries, err := r.Transaction.ListByUser(ctx, userID)
		if err != nil {
			return err
		}

		expected := decimal.Zero
		principals := map[string]decimal.Decimal{}

		for _, entry := range entries {
			switch entry.Type {
			case models.TransactionTypeWalletTopup:
				expected = expected.Add(entry.Amount)
			case models.TransactionTypeWalletWithdrawal, models.TransactionTypeLoanFunding, models.TransactionTypeRepayment:
				expected = expected.Sub(entry.Amount)
			case models.TransactionTypeInterestPayment:
				// the lender's credit is principal plus return, but only the return is recorded
				expected = expected.Add(entry.Amount)
				if !entry.LoanID.Valid {
					continue
				}
				principal, ok := principals[entry.LoanID.String]
				if !ok {
					loan, found, err := r.Loan.GetOne(ctx, entry.LoanID.String)
					if err != nil {
						return err
					}
					if found {
						principal = loan.Amount
					}
					principals[entry.LoanID.String] = principal
				}
				expected = expected.Add(principal)
			}
		}

		result = &models.Reconciliation{
			UserID:   userID,
			Expected: expected,
			Actual:   user.WalletBalance,
			Entries:  len(entries),
			Balanced: expected.Equal(user.WalletBalance),
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("reconcile", err)
	}

	if !result.Balanced {
		w.logger.Warn("wallet out of balance with ledger",
			"user_id", userID,
			"expected", result.Expected.String(),
			"actual", result.Actual.String(),
		)
	}

	return result, nil
}
