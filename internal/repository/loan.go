package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/cradoe/quickcred/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type LoanRepository interface {
	Insert(ctx context.Context, loan *models.Loan) (string, error)
	GetOne(ctx context.Context, id string) (*models.Loan, bool, error)

	// GetForUpdate reads the loan and, inside a transaction, holds its row lock
	// until commit or rollback.
	GetForUpdate(ctx context.Context, id string) (*models.Loan, bool, error)

	// MarkFunded moves a pending loan to funded. applied is false when the loan
	// was no longer pending.
	MarkFunded(ctx context.Context, id, lenderID string, fundedAt, dueDate time.Time) (applied bool, err error)

	// UpdateStatus is a compare-and-swap on the status column.
	UpdateStatus(ctx context.Context, id string, from, to models.LoanStatus, at time.Time) (applied bool, err error)

	ListByStatus(ctx context.Context, status models.LoanStatus) ([]models.LoanWithBorrower, error)
	ListByBorrower(ctx context.Context, borrowerID string) ([]models.Loan, error)
	ListByLender(ctx context.Context, lenderID string) ([]models.Loan, error)
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]models.Loan, error)
	SummaryByStatus(ctx context.Context) ([]models.LoanStatusSummary, error)
}

type LoanRepositoryImpl struct {
	db sqlx.ExtContext
}

func NewLoanRepository(db sqlx.ExtContext) LoanRepository {
	return &LoanRepositoryImpl{db: db}
}

func (repo *LoanRepositoryImpl) Insert(ctx context.Context, loan *models.Loan) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if loan.ID == "" {
		loan.ID = uuid.NewString()
	}

	query := `
		INSERT INTO loans (id, borrower_id, amount, term_months, purpose, status,
			interest_rate, lender_return_rate, platform_margin_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := repo.db.QueryRowxContext(ctx, query,
		loan.ID,
		loan.BorrowerID,
		loan.Amount,
		loan.TermMonths,
		loan.Purpose,
		loan.Status,
		loan.InterestRate,
		loan.LenderReturnRate,
		loan.PlatformMarginRate,
	).Scan(&loan.CreatedAt, &loan.UpdatedAt)
	if err != nil {
		return "", errors.Wrap(err, "insert loan")
	}

	return loan.ID, nil
}

func (repo *LoanRepositoryImpl) GetOne(ctx context.Context, id string) (*models.Loan, bool, error) {
	return repo.get(ctx, `SELECT * FROM loans WHERE id = $1`, id)
}

func (repo *LoanRepositoryImpl) GetForUpdate(ctx context.Context, id string) (*models.Loan, bool, error) {
	return repo.get(ctx, `SELECT * FROM loans WHERE id = $1 FOR UPDATE`, id)
}

func (repo *LoanRepositoryImpl) get(ctx context.Context, query, id string) (*models.Loan, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// ids are uuids; anything else can never match and would make postgres reject the cast
	if _, err := uuid.Parse(id); err != nil {
		return nil, false, nil
	}

	var loan models.Loan

	err := sqlx.GetContext(ctx, repo.db, &loan, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "get loan")
	}

	return &loan, true, nil
}

func (repo *LoanRepositoryImpl) MarkFunded(ctx context.Context, id, lenderID string, fundedAt, dueDate time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
		UPDATE loans SET status = $1, lender_id = $2, funded_at = $3, due_date = $4, updated_at = $3
		WHERE id = $5 AND status = $6`

	res, err := repo.db.ExecContext(ctx, query,
		models.LoanStatusFunded,
		lenderID,
		fundedAt,
		dueDate,
		id,
		models.LoanStatusPending,
	)
	if err != nil {
		return false, errors.Wrap(err, "mark loan funded")
	}

	return affectedOne(res)
}

func (repo *LoanRepositoryImpl) UpdateStatus(ctx context.Context, id string, from, to models.LoanStatus, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `UPDATE loans SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`

	res, err := repo.db.ExecContext(ctx, query, to, at, id, from)
	if err != nil {
		return false, errors.Wrapf(err, "update loan status %s -> %s", from, to)
	}

	return affectedOne(res)
}

func (repo *LoanRepositoryImpl) ListByStatus(ctx context.Context, status models.LoanStatus) ([]models.LoanWithBorrower, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	loans := []models.LoanWithBorrower{}

	query := `
		SELECT l.*, COALESCE(u.name, 'Unknown') AS borrower_name, COALESCE(u.email, 'Unknown') AS borrower_email
		FROM loans l
		LEFT JOIN users u ON u.id = l.borrower_id
		WHERE l.status = $1
		ORDER BY l.created_at DESC`

	if err := sqlx.SelectContext(ctx, repo.db, &loans, query, status); err != nil {
		return nil, errors.Wrap(err, "list loans by status")
	}

	return loans, nil
}

func (repo *LoanRepositoryImpl) ListByBorrower(ctx context.Context, borrowerID string) ([]models.Loan, error) {
	return repo.list(ctx, `SELECT * FROM loans WHERE borrower_id = $1 ORDER BY created_at DESC`, borrowerID)
}

func (repo *LoanRepositoryImpl) ListByLender(ctx context.Context, lenderID string) ([]models.Loan, error) {
	return repo.list(ctx, `SELECT * FROM loans WHERE lender_id = $1 ORDER BY funded_at DESC`, lenderID)
}

// ListOverdue returns at most limit loans; a limit of zero or less means no limit.
func (repo *LoanRepositoryImpl) ListOverdue(ctx context.Context, now time.Time, limit int) ([]models.Loan, error) {
	// LIMIT NULL is no limit in postgres
	rowLimit := sql.NullInt64{Int64: int64(limit), Valid: limit > 0}

	return repo.list(ctx, `
		SELECT * FROM loans
		WHERE status = $1 AND due_date < $2
		ORDER BY due_date
		LIMIT $3`, models.LoanStatusFunded, now, rowLimit)
}

func (repo *LoanRepositoryImpl) list(ctx context.Context, query string, args ...any) ([]models.Loan, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	loans := []models.Loan{}

	if err := sqlx.SelectContext(ctx, repo.db, &loans, query, args...); err != nil {
		return nil, errors.Wrap(err, "list loans")
	}

	return loans, nil
}

func (repo *LoanRepositoryImpl) SummaryByStatus(ctx context.Context) ([]models.LoanStatusSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	summary := []models.LoanStatusSummary{}

	query := `
		SELECT status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total_amount
		FROM loans
		GROUP BY status
		ORDER BY status`

	if err := sqlx.SelectContext(ctx, repo.db, &summary, query); err != nil {
		return nil, errors.Wrap(err, "summarize loans")
	}

	return summary, nil
}

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}
	return n == 1, nil
}
