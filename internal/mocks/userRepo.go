package mocks

import (
	"context"
	"time"

	"github.com/cradoe/quickcred/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Insert(ctx context.Context, user *models.User) (string, error) {
	args := m.Called(user)
	if id := args.String(0); id != "" {
		user.ID = id
	}
	return args.String(0), args.Error(1)
}

func (m *MockUserRepo) GetOne(ctx context.Context, id string) (*models.User, bool, error) {
	args := m.Called(id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Bool(1), args.Error(2)
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	args := m.Called(email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Bool(1), args.Error(2)
}

func (m *MockUserRepo) ApplyBalanceDelta(ctx context.Context, id string, delta decimal.Decimal, at time.Time) (decimal.Decimal, bool, error) {
	args := m.Called(id, delta)
	return args.Get(0).(decimal.Decimal), args.Bool(1), args.Error(2)
}

func (m *MockUserRepo) CountByRole(ctx context.Context) ([]models.RoleCount, error) {
	args := m.Called()
	counts, _ := args.Get(0).([]models.RoleCount)
	return counts, args.Error(1)
}
