package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cradoe/quickcred/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDatabase(t *testing.T) (*DatabaseImpl, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		conn.Close()
	})

	return &DatabaseImpl{db: sqlx.NewDb(conn, "postgres")}, mock
}

func exact(query string) string {
	return regexp.QuoteMeta(query)
}

var (
	markFundedSQL   = exact(`UPDATE loans SET status = $1, lender_id = $2, funded_at = $3, due_date = $4, updated_at = $3 WHERE id = $5 AND status = $6`)
	updateStatusSQL = exact(`UPDATE loans SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`)
	balanceDeltaSQL = exact(`UPDATE users SET wallet_balance = wallet_balance + $1, updated_at = $2 WHERE id = $3 AND wallet_balance + $1 >= 0 RETURNING wallet_balance`)
	listOverdueSQL  = exact(`SELECT * FROM loans WHERE status = $1 AND due_date < $2 ORDER BY due_date LIMIT $3`)
	insertTxSQL     = exact(`INSERT INTO transactions`)

	at = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
)

func TestLoanRepository_MarkFundedOnlyFromPending(t *testing.T) {
	db, mock := newMockDatabase(t)
	ctx := context.Background()
	loanID, lenderID := uuid.NewString(), uuid.NewString()
	due := at.Add(90 * 24 * time.Hour)

	mock.ExpectExec(markFundedSQL).
		WithArgs("funded", lenderID, at, due, loanID, "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(markFundedSQL).
		WithArgs("funded", lenderID, at, due, loanID, "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := db.Loan().MarkFunded(ctx, loanID, lenderID, at, due)
	require.NoError(t, err)
	assert.True(t, applied)

	// another lender won the row in between
	applied, err = db.Loan().MarkFunded(ctx, loanID, lenderID, at, due)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestLoanRepository_UpdateStatusIsCompareAndSwap(t *testing.T) {
	db, mock := newMockDatabase(t)
	ctx := context.Background()
	loanID := uuid.NewString()

	mock.ExpectExec(updateStatusSQL).
		WithArgs("repaid", at, loanID, "funded").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(updateStatusSQL).
		WithArgs("defaulted", at, loanID, "funded").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(updateStatusSQL).
		WithArgs("repaid", at, loanID, "funded").
		WillReturnResult(sqlmock.NewErrorResult(errors.New("rows affected unavailable")))
	mock.ExpectExec(updateStatusSQL).
		WithArgs("repaid", at, loanID, "funded").
		WillReturnError(errors.New("connection reset"))

	applied, err := db.Loan().UpdateStatus(ctx, loanID, models.LoanStatusFunded, models.LoanStatusRepaid, at)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = db.Loan().UpdateStatus(ctx, loanID, models.LoanStatusFunded, models.LoanStatusDefaulted, at)
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = db.Loan().UpdateStatus(ctx, loanID, models.LoanStatusFunded, models.LoanStatusRepaid, at)
	require.ErrorContains(t, err, "rows affected")
	assert.False(t, applied)

	applied, err = db.Loan().UpdateStatus(ctx, loanID, models.LoanStatusFunded, models.LoanStatusRepaid, at)
	require.ErrorContains(t, err, "update loan status funded -> repaid")
	assert.False(t, applied)
}

func TestLoanRepository_GetForUpdateLocksRow(t *testing.T) {
	db, mock := newMockDatabase(t)
	ctx := context.Background()
	loanID := uuid.NewString()

	mock.ExpectQuery(exact(`SELECT * FROM loans WHERE id = $1 FOR UPDATE`)).
		WithArgs(loanID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "amount"}).AddRow(loanID, "pending", "5000"))
	mock.ExpectQuery(exact(`SELECT * FROM loans WHERE id = $1 FOR UPDATE`)).
		WithArgs(loanID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	loan, found, err := db.Loan().GetForUpdate(ctx, loanID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.LoanStatusPending, loan.Status)
	assert.True(t, loan.Amount.Equal(decimal.NewFromInt(5000)))

	_, found, err = db.Loan().GetForUpdate(ctx, loanID)
	require.NoError(t, err)
	assert.False(t, found)

	// not a uuid, so no query is sent
	_, found, err = db.Loan().GetForUpdate(ctx, "loan-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLoanRepository_ListOverdueLimit(t *testing.T) {
	db, mock := newMockDatabase(t)
	ctx := context.Background()
	loanID := uuid.NewString()

	// a NULL limit returns every row
	mock.ExpectQuery(listOverdueSQL).
		WithArgs("funded", at, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(loanID, "funded"))
	mock.ExpectQuery(listOverdueSQL).
		WithArgs("funded", at, int64(25)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}))

	loans, err := db.Loan().ListOverdue(ctx, at, 0)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, loanID, loans[0].ID)

	loans, err = db.Loan().ListOverdue(ctx, at, 25)
	require.NoError(t, err)
	assert.NotNil(t, loans)
	assert.Empty(t, loans)
}

func TestUserRepository_ApplyBalanceDeltaGuardsNegative(t *testing.T) {
	db, mock := newMockDatabase(t)
	ctx := context.Background()
	userID := uuid.NewString()

	mock.ExpectQuery(balanceDeltaSQL).
		WithArgs("-100", at, userID).
		WillReturnRows(sqlmock.NewRows([]string{"wallet_balance"}).AddRow("900.5"))
	mock.ExpectQuery(balanceDeltaSQL).
		WithArgs("-1000", at, userID).
		WillReturnRows(sqlmock.NewRows([]string{"wallet_balance"}))
	mock.ExpectQuery(balanceDeltaSQL).
		WithArgs("50", at, userID).
		WillReturnError(errors.New("connection reset"))

	balance, applied, err := db.User().ApplyBalanceDelta(ctx, userID, decimal.NewFromInt(-100), at)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, balance.Equal(decimal.RequireFromString("900.5")), balance.String())

	// no row satisfies the guard
	balance, applied, err = db.User().ApplyBalanceDelta(ctx, userID, decimal.NewFromInt(-1000), at)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.True(t, balance.IsZero())

	_, applied, err = db.User().ApplyBalanceDelta(ctx, userID, decimal.NewFromInt(50), at)
	require.ErrorContains(t, err, "apply wallet delta")
	assert.False(t, applied)
}

func TestUserRepository_InsertDuplicateEmail(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectQuery(exact(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := db.User().Insert(context.Background(), &models.User{Email: "rajesh@example.com", Role: models.RoleBorrower})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestWithinTx_CommitsUnitOfWork(t *testing.T) {
	db, mock := newMockDatabase(t)
	ctx := context.Background()
	userID := uuid.NewString()

	mock.ExpectBegin()
	mock.ExpectQuery(balanceDeltaSQL).
		WithArgs("250", at, userID).
		WillReturnRows(sqlmock.NewRows([]string{"wallet_balance"}).AddRow("250"))
	mock.ExpectExec(insertTxSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := db.WithinTx(ctx, nil, func(r Repos) error {
		if _, _, err := r.User.ApplyBalanceDelta(ctx, userID, decimal.NewFromInt(250), at); err != nil {
			return err
		}
		_, err := r.Transaction.Insert(ctx, &models.Transaction{
			UserID: userID,
			Amount: decimal.NewFromInt(250),
			Type:   models.TransactionTypeWalletTopup,
		})
		return err
	})
	require.NoError(t, err)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	db, mock := newMockDatabase(t)
	ctx := context.Background()
	userID := uuid.NewString()
	errDiskFull := errors.New("disk full")

	mock.ExpectBegin()
	mock.ExpectQuery(balanceDeltaSQL).
		WithArgs("-250", at, userID).
		WillReturnRows(sqlmock.NewRows([]string{"wallet_balance"}).AddRow("0"))
	mock.ExpectExec(insertTxSQL).WillReturnError(errDiskFull)
	mock.ExpectRollback()

	err := db.WithinTx(ctx, nil, func(r Repos) error {
		if _, _, err := r.User.ApplyBalanceDelta(ctx, userID, decimal.NewFromInt(-250), at); err != nil {
			return err
		}
		_, err := r.Transaction.Insert(ctx, &models.Transaction{
			UserID: userID,
			Amount: decimal.NewFromInt(250),
			Type:   models.TransactionTypeWalletWithdrawal,
		})
		return err
	})
	require.ErrorIs(t, err, errDiskFull)
}

func TestWithinTx_RollsBackOnPanic(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "boom", func() {
		_ = db.WithinTx(context.Background(), nil, func(r Repos) error {
			panic("boom")
		})
	})
}

func TestWithinTx_BeginFailure(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	called := false
	err := db.WithinTx(context.Background(), nil, func(r Repos) error {
		called = true
		return nil
	})
	require.ErrorContains(t, err, "begin transaction")
	assert.False(t, called)
}
