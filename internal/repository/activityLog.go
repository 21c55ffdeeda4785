// Every lifecycle action (synchronous or asynchronous) is recorded here.
// This helps in audit and is used to trace what happened to a loan or wallet.
// ...
// We use polymorphism to define entity and entity_id
// This allows the table to be used for different parts of the application
package repository

import (
	"context"

	"github.com/cradoe/quickcred/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type ActivityRepository interface {
	Insert(ctx context.Context, log *models.ActivityLog) (*models.ActivityLog, error)
	ListByEntity(ctx context.Context, entity, entityID string) ([]models.ActivityLog, error)
}

type ActivityRepositoryImpl struct {
	db sqlx.ExtContext
}

func NewActivityRepository(db sqlx.ExtContext) ActivityRepository {
	return &ActivityRepositoryImpl{db: db}
}

func (repo *ActivityRepositoryImpl) Insert(ctx context.Context, log *models.ActivityLog) (*models.ActivityLog, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if log.ID == "" {
		log.ID = uuid.NewString()
	}

	query := `
		INSERT INTO activity_logs (id, user_id, entity, entity_id, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := repo.db.QueryRowxContext(ctx, query,
		log.ID,
		log.UserID,
		log.Entity,
		log.EntityId,
		log.Description,
	).Scan(&log.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "insert activity log")
	}

	return log, nil
}

func (repo *ActivityRepositoryImpl) ListByEntity(ctx context.Context, entity, entityID string) ([]models.ActivityLog, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	logs := []models.ActivityLog{}

	query := `
		SELECT * FROM activity_logs
		WHERE entity = $1 AND entity_id = $2
		ORDER BY created_at DESC`

	if err := sqlx.SelectContext(ctx, repo.db, &logs, query, entity, entityID); err != nil {
		return nil, errors.Wrap(err, "list activity logs")
	}

	return logs, nil
}
