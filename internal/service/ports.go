package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/escrow-backend/internal/models"
)

// UserStore — порт хранилища пользователей, общий для сервисов движка.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetAll(ctx context.Context) ([]models.User, error)
	Save(ctx context.Context, user *models.User) error
}

// OrderStore — порт хранилища заказов. Агрегат заказа читается и
// записывается целиком.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetAll(ctx context.Context) ([]*models.Order, error)
	Save(ctx context.Context, order *models.Order) error
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*models.Order, error)
	ListByContractor(ctx context.Context, contractorID uuid.UUID) ([]*models.Order, error)
	ListByContributor(ctx context.Context, customerID uuid.UUID) ([]*models.Order, error)
}

// TransactionLog — порт журнала движения средств.
type TransactionLog interface {
	Create(ctx context.Context, t *models.Transaction) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error)
}

// Notifier рассылает события пользователям (реализуется ws.Hub).
type Notifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// События, рассылаемые через Notifier.
const (
	EventOrderFunded          = "order_funded"
	EventOrderCancelled       = "order_cancelled"
	EventOrderCompleted       = "order_completed"
	EventContractorAssigned   = "contractor_assigned"
	EventMilestoneCompleted   = "milestone_completed"
	EventFundsReleased        = "funds_released"
	EventRepresentativeChange = "representative_changed"
)
