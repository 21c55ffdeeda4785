package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cradoe/quickcred/internal/lending"
	"github.com/cradoe/quickcred/internal/mocks"
	"github.com/cradoe/quickcred/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newWalletFixture() (*mocks.MockWalletService, *mocks.MockActivityRepo, *WalletHandler) {
	wallet := new(mocks.MockWalletService)
	activity := new(mocks.MockActivityRepo)
	activity.On("Insert", mock.Anything).Return(&models.ActivityLog{}, nil)

	h := NewWalletHandler(&WalletHandler{
		Wallet:       wallet,
		ActivityRepo: activity,
		Helper:       &mocks.MockHelper{},
		ErrHandler:   newTestErrHandler(),
	})
	return wallet, activity, h
}

func TestHandleDeposit(t *testing.T) {
	wallet, activity, h := newWalletFixture()
	wallet.On("Deposit", testLender.ID, mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.RequireFromString("1500.50"))
	})).Return(decimal.RequireFromString("11500.5"), nil)

	req := newJSONRequest(t, http.MethodPost, "/wallet/deposit", map[string]any{"amount": "1500.50"})
	rr := httptest.NewRecorder()

	h.HandleDeposit(rr, asUser(req, testLender))

	require.Equal(t, http.StatusOK, rr.Code)

	data := decodeBody(t, rr)["data"].(map[string]any)
	assert.Equal(t, "11500.5", data["wallet_balance"])

	activity.AssertCalled(t, "Insert", mock.MatchedBy(func(l *models.ActivityLog) bool {
		return l.Entity == models.ActivityLogWalletEntity && l.Description == WalletActivityLogDepositDescription
	}))
}

func TestHandleDeposit_NonPositive(t *testing.T) {
	wallet, activity, h := newWalletFixture()
	wallet.On("Deposit", testLender.ID, mock.Anything).
		Return(decimal.Zero, &lending.ValidationError{Errors: []string{"amount must be > 0"}})

	req := newJSONRequest(t, http.MethodPost, "/wallet/deposit", map[string]any{"amount": 0})
	rr := httptest.NewRecorder()

	h.HandleDeposit(rr, asUser(req, testLender))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	activity.AssertNotCalled(t, "Insert", mock.Anything)
}

func TestHandleDeposit_MalformedBody(t *testing.T) {
	wallet, _, h := newWalletFixture()

	req := newJSONRequest(t, http.MethodPost, "/wallet/deposit", map[string]any{"amount": 10, "extra": true})
	rr := httptest.NewRecorder()

	h.HandleDeposit(rr, asUser(req, testLender))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	wallet.AssertNotCalled(t, "Deposit", mock.Anything, mock.Anything)
}

func TestHandleWithdraw_InsufficientBalance(t *testing.T) {
	wallet, _, h := newWalletFixture()
	wallet.On("Withdraw", testBorrower.ID, mock.Anything).Return(decimal.Zero, lending.ErrInsufficientBalance)

	req := newJSONRequest(t, http.MethodPost, "/wallet/withdraw", map[string]any{"amount": 100})
	rr := httptest.NewRecorder()

	h.HandleWithdraw(rr, asUser(req, testBorrower))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestHandleReconcile(t *testing.T) {
	wallet, _, h := newWalletFixture()
	wallet.On("Reconcile", testLender.ID).Return(&models.Reconciliation{
		UserID:   testLender.ID,
		Expected: decimal.NewFromInt(10300),
		Actual:   decimal.NewFromInt(10300),
		Entries:  3,
		Balanced: true,
	}, nil)

	req := newJSONRequest(t, http.MethodGet, "/wallet/reconcile", nil)
	rr := httptest.NewRecorder()

	h.HandleReconcile(rr, asUser(req, testLender))

	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeBody(t, rr)["data"].(map[string]any)
	assert.Equal(t, true, data["balanced"])
}

func TestHandleTransactionHistory_Filters(t *testing.T) {
	loans := new(mocks.MockLoanService)
	h := NewTransactionHandler(&TransactionHandler{Loans: loans, ErrHandler: newTestErrHandler()})

	day := func(d int) time.Time { return time.Date(2026, 3, d, 12, 0, 0, 0, time.UTC) }
	loans.On("TransactionHistory", testLender.ID).Return([]models.Transaction{
		{ID: "tx-4", CreatedAt: day(20)},
		{ID: "tx-3", CreatedAt: day(15)},
		{ID: "tx-2", CreatedAt: day(10)},
		{ID: "tx-1", CreatedAt: day(5)},
	}, nil)

	req := newJSONRequest(t, http.MethodGet, "/transactions?start_date=2026-03-10&end_date=2026-03-15", nil)
	rr := httptest.NewRecorder()

	h.HandleTransactionHistory(rr, asUser(req, testLender))

	require.Equal(t, http.StatusOK, rr.Code)

	data := decodeBody(t, rr)["data"].([]any)
	require.Len(t, data, 2)
	assert.Equal(t, "tx-3", data[0].(map[string]any)["id"])
	assert.Equal(t, "tx-2", data[1].(map[string]any)["id"])
}

func TestFilterTransactions_Pagination(t *testing.T) {
	txs := make([]models.Transaction, 5)
	for i := range txs {
		txs[i] = models.Transaction{ID: string(rune('a' + i))}
	}

	page := filterTransactions(txs, &queryStringValues{Limit: 2, Offset: 2})
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0].ID)

	assert.Empty(t, filterTransactions(txs, &queryStringValues{Limit: 2, Offset: 6}))
}
