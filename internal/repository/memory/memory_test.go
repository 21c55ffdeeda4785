package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cradoe/quickcred/internal/models"
	"github.com/cradoe/quickcred/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, s *Store, email string, balance int64) string {
	t.Helper()
	id, err := s.User().Insert(context.Background(), &models.User{
		Name:          "Test User",
		Email:         email,
		Role:          models.RoleLender,
		WalletBalance: decimal.NewFromInt(balance),
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	return id
}

func TestUserInsert_DuplicateEmail(t *testing.T) {
	s := New()
	seedUser(t, s, "dup@example.com", 0)

	_, err := s.User().Insert(context.Background(), &models.User{Email: "DUP@example.com", Role: models.RoleBorrower})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestApplyBalanceDelta_RefusesNegative(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := seedUser(t, s, "a@example.com", 100)

	balance, applied, err := s.User().ApplyBalanceDelta(ctx, id, decimal.NewFromInt(-150), time.Now())
	require.NoError(t, err)
	assert.False(t, applied)
	assert.True(t, balance.IsZero())

	balance, applied, err = s.User().ApplyBalanceDelta(ctx, id, decimal.NewFromInt(-100), time.Now())
	require.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, balance.IsZero())

	_, applied, err = s.User().ApplyBalanceDelta(ctx, "missing", decimal.NewFromInt(1), time.Now())
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := seedUser(t, s, "a@example.com", 100)
	boom := errors.New("boom")

	err := s.WithinTx(ctx, nil, func(r repository.Repos) error {
		_, applied, err := r.User.ApplyBalanceDelta(ctx, id, decimal.NewFromInt(-40), time.Now())
		require.NoError(t, err)
		require.True(t, applied)
		_, err = r.Transaction.Insert(ctx, &models.Transaction{UserID: id, Amount: decimal.NewFromInt(40), Type: models.TransactionTypeWalletWithdrawal})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	user, found, err := s.User().GetOne(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, user.WalletBalance.Equal(decimal.NewFromInt(100)))

	txs, err := s.Transaction().ListByUser(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestWithinTx_RollsBackOnPanic(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := seedUser(t, s, "a@example.com", 100)

	assert.Panics(t, func() {
		_ = s.WithinTx(ctx, nil, func(r repository.Repos) error {
			_, _, _ = r.User.ApplyBalanceDelta(ctx, id, decimal.NewFromInt(-40), time.Now())
			panic("boom")
		})
	})

	user, _, err := s.User().GetOne(ctx, id)
	require.NoError(t, err)
	assert.True(t, user.WalletBalance.Equal(decimal.NewFromInt(100)))
}

func TestLoanTransitions(t *testing.T) {
	s := New()
	ctx := context.Background()
	borrower := seedUser(t, s, "b@example.com", 0)
	lender := seedUser(t, s, "l@example.com", 0)

	loanID, err := s.Loan().Insert(ctx, &models.Loan{BorrowerID: borrower, Amount: decimal.NewFromInt(5000), TermMonths: 3, Status: models.LoanStatusPending})
	require.NoError(t, err)

	pending, err := s.Loan().ListByStatus(ctx, models.LoanStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Test User", pending[0].BorrowerName)

	now := time.Now()
	applied, err := s.Loan().MarkFunded(ctx, loanID, lender, now, now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = s.Loan().MarkFunded(ctx, loanID, lender, now, now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, applied, "second funding must not apply")

	overdue, err := s.Loan().ListOverdue(ctx, now.Add(2*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, overdue, 1)

	applied, err = s.Loan().UpdateStatus(ctx, loanID, models.LoanStatusFunded, models.LoanStatusRepaid, now)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = s.Loan().UpdateStatus(ctx, loanID, models.LoanStatusFunded, models.LoanStatusRepaid, now)
	require.NoError(t, err)
	assert.False(t, applied)

	byLender, err := s.Loan().ListByLender(ctx, lender)
	require.NoError(t, err)
	require.Len(t, byLender, 1)
	assert.Equal(t, models.LoanStatusRepaid, byLender[0].Status)
}

func TestTransactions_NewestFirstAndTotals(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := seedUser(t, s, "a@example.com", 0)

	for _, amount := range []int64{10, 20, 30} {
		_, err := s.Transaction().Insert(ctx, &models.Transaction{UserID: id, Amount: decimal.NewFromInt(amount), Type: models.TransactionTypeWalletTopup})
		require.NoError(t, err)
	}

	txs, err := s.Transaction().ListByUser(ctx, id)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.True(t, txs[0].Amount.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, models.TransactionStatusCompleted, txs[0].Status)

	total, err := s.Transaction().TotalForUser(ctx, id, models.TransactionTypeWalletTopup)
	require.NoError(t, err)
	assert.Equal(t, 3, total.Count)
	assert.True(t, total.TotalAmount.Equal(decimal.NewFromInt(60)))
}
