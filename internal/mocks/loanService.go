package mocks

import (
	"context"

	"github.com/cradoe/quickcred/internal/lending"
	"github.com/cradoe/quickcred/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) CreateLoan(ctx context.Context, in lending.CreateLoanInput) (*models.Loan, error) {
	args := m.Called(in)
	loan, _ := args.Get(0).(*models.Loan)
	return loan, args.Error(1)
}

func (m *MockLoanService) FundLoan(ctx context.Context, loanID, lenderID string) (*models.Loan, error) {
	args := m.Called(loanID, lenderID)
	loan, _ := args.Get(0).(*models.Loan)
	return loan, args.Error(1)
}

func (m *MockLoanService) RepayLoan(ctx context.Context, loanID, borrowerID string) (*lending.RepaymentResult, error) {
	args := m.Called(loanID, borrowerID)
	result, _ := args.Get(0).(*lending.RepaymentResult)
	return result, args.Error(1)
}

func (m *MockLoanService) GetLoan(ctx context.Context, loanID string) (*lending.LoanView, error) {
	args := m.Called(loanID)
	view, _ := args.Get(0).(*lending.LoanView)
	return view, args.Error(1)
}

func (m *MockLoanService) ListPendingLoans(ctx context.Context) ([]lending.LoanView, error) {
	args := m.Called()
	views, _ := args.Get(0).([]lending.LoanView)
	return views, args.Error(1)
}

func (m *MockLoanService) ListLoansByBorrower(ctx context.Context, borrowerID string) ([]lending.LoanView, error) {
	args := m.Called(borrowerID)
	views, _ := args.Get(0).([]lending.LoanView)
	return views, args.Error(1)
}

func (m *MockLoanService) ListLoansByLender(ctx context.Context, lenderID string) ([]lending.LoanView, error) {
	args := m.Called(lenderID)
	views, _ := args.Get(0).([]lending.LoanView)
	return views, args.Error(1)
}

func (m *MockLoanService) LoanTransactions(ctx context.Context, loanID, userID string) ([]models.Transaction, error) {
	args := m.Called(loanID, userID)
	txs, _ := args.Get(0).([]models.Transaction)
	return txs, args.Error(1)
}

func (m *MockLoanService) LoanAnalytics(ctx context.Context) ([]models.LoanStatusSummary, error) {
	args := m.Called()
	summary, _ := args.Get(0).([]models.LoanStatusSummary)
	return summary, args.Error(1)
}

func (m *MockLoanService) BorrowerAnalytics(ctx context.Context, borrowerID string) (*models.BorrowerAnalytics, error) {
	args := m.Called(borrowerID)
	stats, _ := args.Get(0).(*models.BorrowerAnalytics)
	return stats, args.Error(1)
}

func (m *MockLoanService) LenderAnalytics(ctx context.Context, lenderID string) (*models.LenderAnalytics, error) {
	args := m.Called(lenderID)
	stats, _ := args.Get(0).(*models.LenderAnalytics)
	return stats, args.Error(1)
}

func (m *MockLoanService) PlatformAnalytics(ctx context.Context) (*models.PlatformAnalytics, error) {
	args := m.Called()
	stats, _ := args.Get(0).(*models.PlatformAnalytics)
	return stats, args.Error(1)
}

func (m *MockLoanService) TransactionHistory(ctx context.Context, userID string) ([]models.Transaction, error) {
	args := m.Called(userID)
	txs, _ := args.Get(0).([]models.Transaction)
	return txs, args.Error(1)
}

type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(userID, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockWalletService) Withdraw(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(userID, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockWalletService) Reconcile(ctx context.Context, userID string) (*models.Reconciliation, error) {
	args := m.Called(userID)
	result, _ := args.Get(0).(*models.Reconciliation)
	return result, args.Error(1)
}
