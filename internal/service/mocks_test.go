package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/escrow-backend/internal/models"
)

// mockUserStore реализует UserStore для тестов.
type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserStore) GetAll(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *mockUserStore) Save(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// mockOrderStore реализует OrderStore для тестов.
type mockOrderStore struct {
	mock.Mock
}

func (m *mockOrderStore) Create(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderStore) GetAll(ctx context.Context) ([]*models.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Order), args.Error(1)
}

func (m *mockOrderStore) Save(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderStore) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*models.Order, error) {
	args := m.Called(ctx, creatorID)
	return args.Get(0).([]*models.Order), args.Error(1)
}

func (m *mockOrderStore) ListByContractor(ctx context.Context, contractorID uuid.UUID) ([]*models.Order, error) {
	args := m.Called(ctx, contractorID)
	return args.Get(0).([]*models.Order), args.Error(1)
}

func (m *mockOrderStore) ListByContributor(ctx context.Context, customerID uuid.UUID) ([]*models.Order, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]*models.Order), args.Error(1)
}

// mockTransactionLog реализует TransactionLog для тестов.
type mockTransactionLog struct {
	mock.Mock
}

func (m *mockTransactionLog) Create(ctx context.Context, t *models.Transaction) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockTransactionLog) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Transaction), args.Error(1)
}
