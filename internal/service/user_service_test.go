package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/escrow-backend/internal/models"
	"github.com/ignatzorin/escrow-backend/internal/pkg/apperror"
)

func TestUserService_Deposit(t *testing.T) {
	users := new(mockUserStore)
	transactions := new(mockTransactionLog)
	svc := NewUserService(users, transactions, NewLocks())
	ctx := context.Background()

	customer := &models.User{ID: uuid.New(), Name: "alice", Role: models.RoleCustomer, Balance: 100}
	users.On("GetByID", ctx, customer.ID).Return(customer, nil)
	users.On("Save", ctx, customer).Return(nil)
	transactions.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).Return(nil)

	updated, err := svc.Deposit(ctx, customer.ID, 400)
	assert.NoError(t, err)
	assert.Equal(t, float64(500), updated.Balance)

	users.AssertExpectations(t)
	transactions.AssertCalled(t, "Create", ctx, mock.MatchedBy(func(tx *models.Transaction) bool {
		return tx.Type == models.TransactionTypeDeposit && tx.Amount == 400 && tx.UserID == customer.ID
	}))
}

func TestUserService_Deposit_ContractorForbidden(t *testing.T) {
	users := new(mockUserStore)
	svc := NewUserService(users, nil, NewLocks())
	ctx := context.Background()

	contractor := &models.User{ID: uuid.New(), Name: "bob", Role: models.RoleContractor}
	users.On("GetByID", ctx, contractor.ID).Return(contractor, nil)

	_, err := svc.Deposit(ctx, contractor.ID, 400)
	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
	users.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestUserService_Deposit_InvalidAmount(t *testing.T) {
	users := new(mockUserStore)
	svc := NewUserService(users, nil, NewLocks())
	ctx := context.Background()

	_, err := svc.Deposit(ctx, uuid.New(), 0)
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Deposit(ctx, uuid.New(), -50)
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestUserService_ListTransactions_NormalizesPagination(t *testing.T) {
	transactions := new(mockTransactionLog)
	svc := NewUserService(nil, transactions, NewLocks())
	ctx := context.Background()
	userID := uuid.New()

	transactions.On("ListByUser", ctx, userID, 20, 0).Return([]models.Transaction{}, nil)

	_, err := svc.ListTransactions(ctx, userID, -5, -10)
	assert.NoError(t, err)
	transactions.AssertExpectations(t)
}
