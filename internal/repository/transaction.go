package repository

import (
	"context"
	"time"

	"github.com/cradoe/quickcred/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Transactions are the audit trail of every balance movement.
// There is deliberately no update or delete here.
type TransactionRepository interface {
	Insert(ctx context.Context, transaction *models.Transaction) (string, error)
	ListByUser(ctx context.Context, userID string) ([]models.Transaction, error)
	ListByLoan(ctx context.Context, loanID string) ([]models.Transaction, error)
	SummaryByType(ctx context.Context) ([]models.TransactionTypeSummary, error)
	TotalForUser(ctx context.Context, userID string, txType models.TransactionType) (models.TypeTotal, error)
}

type TransactionRepositoryImpl struct {
	db sqlx.ExtContext
}

func NewTransactionRepository(db sqlx.ExtContext) TransactionRepository {
	return &TransactionRepositoryImpl{db: db}
}

func (repo *TransactionRepositoryImpl) Insert(ctx context.Context, transaction *models.Transaction) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if transaction.ID == "" {
		transaction.ID = uuid.NewString()
	}
	if transaction.Status == "" {
		transaction.Status = models.TransactionStatusCompleted
	}
	if transaction.CreatedAt.IsZero() {
		transaction.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO transactions (id, loan_id, user_id, amount, type, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := repo.db.ExecContext(ctx, query,
		transaction.ID,
		transaction.LoanID,
		transaction.UserID,
		transaction.Amount,
		transaction.Type,
		transaction.Description,
		transaction.Status,
		transaction.CreatedAt,
	)
	if err != nil {
		return "", errors.Wrapf(err, "insert %s transaction", transaction.Type)
	}

	return transaction.ID, nil
}

func (repo *TransactionRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	return repo.list(ctx, `SELECT * FROM transactions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (repo *TransactionRepositoryImpl) ListByLoan(ctx context.Context, loanID string) ([]models.Transaction, error) {
	return repo.list(ctx, `SELECT * FROM transactions WHERE loan_id = $1 ORDER BY created_at DESC`, loanID)
}

func (repo *TransactionRepositoryImpl) list(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	transactions := []models.Transaction{}

	if err := sqlx.SelectContext(ctx, repo.db, &transactions, query, args...); err != nil {
		return nil, errors.Wrap(err, "list transactions")
	}

	return transactions, nil
}

func (repo *TransactionRepositoryImpl) SummaryByType(ctx context.Context) ([]models.TransactionTypeSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	summary := []models.TransactionTypeSummary{}

	query := `
		SELECT type, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total_amount
		FROM transactions
		GROUP BY type
		ORDER BY type`

	if err := sqlx.SelectContext(ctx, repo.db, &summary, query); err != nil {
		return nil, errors.Wrap(err, "summarize transactions")
	}

	return summary, nil
}

func (repo *TransactionRepositoryImpl) TotalForUser(ctx context.Context, userID string, txType models.TransactionType) (models.TypeTotal, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var total models.TypeTotal

	query := `
		SELECT COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total_amount
		FROM transactions
		WHERE user_id = $1 AND type = $2`

	if err := sqlx.GetContext(ctx, repo.db, &total, query, userID, txType); err != nil {
		return models.TypeTotal{}, errors.Wrap(err, "total transactions for user")
	}

	return total, nil
}
