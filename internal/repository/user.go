package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/cradoe/quickcred/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrDuplicateEmail is returned by Insert when the email is already registered.
var ErrDuplicateEmail = errors.New("duplicate email")

type UserRepository interface {
	Insert(ctx context.Context, user *models.User) (string, error)
	GetOne(ctx context.Context, id string) (*models.User, bool, error)
	GetByEmail(ctx context.Context, email string) (*models.User, bool, error)

	// ApplyBalanceDelta adds delta to the wallet balance only if the result stays
	// non-negative. applied is false when no row satisfied that condition.
	ApplyBalanceDelta(ctx context.Context, id string, delta decimal.Decimal, at time.Time) (balance decimal.Decimal, applied bool, err error)

	CountByRole(ctx context.Context) ([]models.RoleCount, error)
}

type UserRepositoryImpl struct {
	db sqlx.ExtContext
}

func NewUserRepository(db sqlx.ExtContext) UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (repo *UserRepositoryImpl) Insert(ctx context.Context, user *models.User) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query := `
		INSERT INTO users (id, name, email, hashed_password, role, wallet_balance)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := repo.db.QueryRowxContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.HashedPassword,
		user.Role,
		user.WalletBalance,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return "", ErrDuplicateEmail
		}
		return "", errors.Wrap(err, "insert user")
	}

	return user.ID, nil
}

func (repo *UserRepositoryImpl) GetOne(ctx context.Context, id string) (*models.User, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := uuid.Parse(id); err != nil {
		return nil, false, nil
	}

	var user models.User

	query := `SELECT * FROM users WHERE id = $1`

	err := sqlx.GetContext(ctx, repo.db, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "get user")
	}

	return &user, true, nil
}

func (repo *UserRepositoryImpl) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var user models.User

	query := `SELECT * FROM users WHERE email = $1`

	err := sqlx.GetContext(ctx, repo.db, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "get user by email")
	}

	return &user, true, nil
}

func (repo *UserRepositoryImpl) ApplyBalanceDelta(ctx context.Context, id string, delta decimal.Decimal, at time.Time) (decimal.Decimal, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var balance decimal.Decimal

	// the row lock taken by UPDATE serializes concurrent deltas on one wallet,
	// and the guard is evaluated against the locked row
	query := `
		UPDATE users SET wallet_balance = wallet_balance + $1, updated_at = $2
		WHERE id = $3 AND wallet_balance + $1 >= 0
		RETURNING wallet_balance`

	err := repo.db.QueryRowxContext(ctx, query, delta, at, id).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, errors.Wrap(err, "apply wallet delta")
	}

	return balance, true, nil
}

func (repo *UserRepositoryImpl) CountByRole(ctx context.Context) ([]models.RoleCount, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var counts []models.RoleCount

	query := `SELECT role, COUNT(*) AS count FROM users GROUP BY role ORDER BY role`

	if err := sqlx.SelectContext(ctx, repo.db, &counts, query); err != nil {
		return nil, errors.Wrap(err, "count users by role")
	}

	return counts, nil
}
