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

// newFundedOrder собирает полностью профинансированный заказ с назначенным
// исполнителем и одним взносом на всю стоимость.
func newFundedOrder(t *testing.T, creatorID, contractorID uuid.UUID) *models.Order {
	t.Helper()
	order, err := models.NewOrder(creatorID, &contractorID, "Разработка сайта", []models.MilestoneSpec{
		{Description: "Макет", Amount: 200},
		{Description: "Вёрстка", Amount: 300},
	})
	assert.NoError(t, err)
	assert.NoError(t, order.AddContribution(creatorID, 500))
	assert.Equal(t, models.OrderStatusFunded, order.Status)
	return order
}

func firstMilestoneID(order *models.Order) uuid.UUID {
	for id := range order.Milestones {
		return id
	}
	return uuid.Nil
}

func TestEscrowService_MarkMilestoneComplete(t *testing.T) {
	users := new(mockUserStore)
	orders := new(mockOrderStore)
	svc := NewEscrowService(orders, users, nil, NewLocks(), uuid.Nil)
	ctx := context.Background()

	contractorID := uuid.New()
	order := newFundedOrder(t, uuid.New(), contractorID)
	milestoneID := firstMilestoneID(order)

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	orders.On("Save", ctx, order).Return(nil)

	updated, err := svc.MarkMilestoneComplete(ctx, contractorID, order.ID, milestoneID)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusInProgress, updated.Status)

	milestone := updated.Milestones[milestoneID]
	assert.Equal(t, models.MilestoneStatusCompletedByContractor, milestone.Status)
	assert.NotNil(t, milestone.Act)
	assert.True(t, milestone.Act.HasSignature(contractorID))
	assert.False(t, milestone.Act.IsComplete)
}

func TestEscrowService_MarkMilestoneComplete_OnlyContractor(t *testing.T) {
	users := new(mockUserStore)
	orders := new(mockOrderStore)
	svc := NewEscrowService(orders, users, nil, NewLocks(), uuid.Nil)
	ctx := context.Background()

	order := newFundedOrder(t, uuid.New(), uuid.New())
	orders.On("GetByID", ctx, order.ID).Return(order, nil)

	_, err := svc.MarkMilestoneComplete(ctx, uuid.New(), order.ID, firstMilestoneID(order))
	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
	orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// Вторая подпись замыкает кворум: средства этапа уходят с эскроу на баланс
// исполнителя, в журнале появляется запись о выплате.
func TestEscrowService_SignAct_QuorumReleasesFunds(t *testing.T) {
	users := new(mockUserStore)
	orders := new(mockOrderStore)
	transactions := new(mockTransactionLog)
	platformID := uuid.New()
	svc := NewEscrowService(orders, users, transactions, NewLocks(), platformID)
	ctx := context.Background()

	contractor := &models.User{ID: uuid.New(), Name: "bob", Role: models.RoleContractor, Balance: 0}
	order := newFundedOrder(t, uuid.New(), contractor.ID)
	milestoneID := firstMilestoneID(order)
	_, err := order.MarkMilestoneCompleted(milestoneID)
	assert.NoError(t, err)

	amount := order.Milestones[milestoneID].Amount
	escrowBefore := order.EscrowBalance

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	orders.On("Save", ctx, order).Return(nil)
	users.On("GetByID", ctx, contractor.ID).Return(contractor, nil)
	users.On("Save", ctx, contractor).Return(nil)
	transactions.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).Return(nil)

	result, err := svc.SignAct(ctx, platformID, order.ID, milestoneID)
	assert.NoError(t, err)
	assert.True(t, result.Released)
	assert.Equal(t, amount, result.ReleasedAmount)
	assert.Equal(t, models.MilestoneStatusPaid, order.Milestones[milestoneID].Status)
	assert.Equal(t, escrowBefore-amount, order.EscrowBalance)
	assert.Equal(t, amount, contractor.Balance)

	transactions.AssertCalled(t, "Create", ctx, mock.MatchedBy(func(tx *models.Transaction) bool {
		return tx.Type == models.TransactionTypeEscrowRelease && tx.Amount == amount && tx.UserID == contractor.ID
	}))
}

func TestEscrowService_SignAct_DuplicateSignature(t *testing.T) {
	users := new(mockUserStore)
	orders := new(mockOrderStore)
	svc := NewEscrowService(orders, users, nil, NewLocks(), uuid.Nil)
	ctx := context.Background()

	contractorID := uuid.New()
	order := newFundedOrder(t, uuid.New(), contractorID)
	milestoneID := firstMilestoneID(order)
	_, err := order.MarkMilestoneCompleted(milestoneID)
	assert.NoError(t, err)

	orders.On("GetByID", ctx, order.ID).Return(order, nil)

	// Подпись исполнителя уже стоит с момента сдачи этапа.
	_, err = svc.SignAct(ctx, contractorID, order.ID, milestoneID)
	assert.ErrorIs(t, err, apperror.ErrDuplicateSignature)
	orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestEscrowService_SignAct_StrangerForbidden(t *testing.T) {
	users := new(mockUserStore)
	orders := new(mockOrderStore)
	svc := NewEscrowService(orders, users, nil, NewLocks(), uuid.Nil)
	ctx := context.Background()

	order := newFundedOrder(t, uuid.New(), uuid.New())
	milestoneID := firstMilestoneID(order)
	_, err := order.MarkMilestoneCompleted(milestoneID)
	assert.NoError(t, err)

	orders.On("GetByID", ctx, order.ID).Return(order, nil)

	_, err = svc.SignAct(ctx, uuid.New(), order.ID, milestoneID)
	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestEscrowService_SignAct_NoActYet(t *testing.T) {
	users := new(mockUserStore)
	orders := new(mockOrderStore)
	svc := NewEscrowService(orders, users, nil, NewLocks(), uuid.Nil)
	ctx := context.Background()

	contractorID := uuid.New()
	order := newFundedOrder(t, uuid.New(), contractorID)

	orders.On("GetByID", ctx, order.ID).Return(order, nil)

	_, err := svc.SignAct(ctx, contractorID, order.ID, firstMilestoneID(order))
	assert.ErrorIs(t, err, apperror.ErrActNotCreated)
}

// Эскроу уже списан и заказ сохранён, а исполнителя в хранилище нет: операция
// обязана вернуть ошибку консистентности, а не промолчать.
func TestEscrowService_SignAct_PayoutTargetMissing(t *testing.T) {
	users := new(mockUserStore)
	orders := new(mockOrderStore)
	platformID := uuid.New()
	svc := NewEscrowService(orders, users, nil, NewLocks(), platformID)
	ctx := context.Background()

	contractorID := uuid.New()
	order := newFundedOrder(t, uuid.New(), contractorID)
	milestoneID := firstMilestoneID(order)
	_, err := order.MarkMilestoneCompleted(milestoneID)
	assert.NoError(t, err)

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	orders.On("Save", ctx, order).Return(nil)
	users.On("GetByID", ctx, contractorID).Return(nil, apperror.ErrUserNotFound)

	_, err = svc.SignAct(ctx, platformID, order.ID, milestoneID)
	assert.ErrorIs(t, err, apperror.ErrPayoutTargetMissing)
}

// Полный проход: оба этапа сданы и подписаны, заказ завершается, эскроу
// обнуляется, исполнитель получает всю стоимость.
func TestEscrowService_SignAct_CompletesOrder(t *testing.T) {
	users := new(mockUserStore)
	orders := new(mockOrderStore)
	transactions := new(mockTransactionLog)
	platformID := uuid.New()
	svc := NewEscrowService(orders, users, transactions, NewLocks(), platformID)
	ctx := context.Background()

	contractor := &models.User{ID: uuid.New(), Name: "bob", Role: models.RoleContractor}
	order := newFundedOrder(t, uuid.New(), contractor.ID)

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	orders.On("Save", ctx, order).Return(nil)
	users.On("GetByID", ctx, contractor.ID).Return(contractor, nil)
	users.On("Save", ctx, contractor).Return(nil)
	transactions.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).Return(nil)

	for milestoneID := range order.Milestones {
		_, err := svc.MarkMilestoneComplete(ctx, contractor.ID, order.ID, milestoneID)
		assert.NoError(t, err)

		result, err := svc.SignAct(ctx, platformID, order.ID, milestoneID)
		assert.NoError(t, err)
		assert.True(t, result.Released)
	}

	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	assert.Equal(t, float64(0), order.EscrowBalance)
	assert.Equal(t, order.TotalCost, contractor.Balance)
}
