package mocks

import (
	"context"

	"github.com/cradoe/quickcred/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockActivityRepo struct {
	mock.Mock
}

func (m *MockActivityRepo) Insert(ctx context.Context, log *models.ActivityLog) (*models.ActivityLog, error) {
	args := m.Called(log)
	entry, _ := args.Get(0).(*models.ActivityLog)
	return entry, args.Error(1)
}

func (m *MockActivityRepo) ListByEntity(ctx context.Context, entity, entityID string) ([]models.ActivityLog, error) {
	args := m.Called(entity, entityID)
	logs, _ := args.Get(0).([]models.ActivityLog)
	return logs, args.Error(1)
}
