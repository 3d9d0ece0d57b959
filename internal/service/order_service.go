package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/escrow-backend/internal/logger"
	"github.com/ignatzorin/escrow-backend/internal/models"
	"github.com/ignatzorin/escrow-backend/internal/pkg/apperror"
	"github.com/ignatzorin/escrow-backend/internal/validation"
)

// OrderService управляет жизненным циклом заказа: создание, финансирование,
// назначение исполнителя, отмена и просмотры.
type OrderService struct {
	orders       OrderStore
	users        UserStore
	transactions TransactionLog
	locks        *Locks
	notifier     Notifier
}

// NewOrderService создаёт сервис заказов.
func NewOrderService(orders OrderStore, users UserStore, transactions TransactionLog, locks *Locks) *OrderService {
	return &OrderService{
		orders:       orders,
		users:        users,
		transactions: transactions,
		locks:        locks,
	}
}

// SetNotifier подключает рассылку событий.
func (s *OrderService) SetNotifier(n Notifier) {
	s.notifier = n
}

// MilestoneInput описывает этап в запросе на создание заказа.
type MilestoneInput struct {
	Description string
	Amount      float64
}

// CreateOrderInput содержит данные нового заказа.
type CreateOrderInput struct {
	Title        string
	ContractorID *uuid.UUID
	Milestones   []MilestoneInput
}

// CreateOrder создаёт заказ с фиксированным набором этапов от имени заказчика.
func (s *OrderService) CreateOrder(ctx context.Context, creatorID uuid.UUID, in CreateOrderInput) (*models.Order, error) {
	if err := validation.ValidateOrderTitle(in.Title); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if len(in.Milestones) == 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "заказ должен содержать хотя бы один этап")
	}
	if len(in.Milestones) > validation.MaxMilestonesPerOrder {
		return nil, apperror.New(apperror.ErrCodeValidation, "слишком много этапов в заказе")
	}

	creator, err := s.users.GetByID(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if !creator.IsCustomer() {
		return nil, apperror.New(apperror.ErrCodeForbidden, "создавать заказы может только заказчик")
	}

	if in.ContractorID != nil {
		contractor, err := s.users.GetByID(ctx, *in.ContractorID)
		if err != nil {
			return nil, err
		}
		if !contractor.IsContractor() {
			return nil, apperror.New(apperror.ErrCodeValidation, "указанный исполнитель не является исполнителем")
		}
	}

	specs := make([]models.MilestoneSpec, 0, len(in.Milestones))
	for _, m := range in.Milestones {
		if err := validation.ValidateMilestoneDescription(m.Description); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
		if err := validation.ValidateAmount(m.Amount); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
		specs = append(specs, models.MilestoneSpec{
			Description: strings.TrimSpace(m.Description),
			Amount:      m.Amount,
		})
	}

	order, err := models.NewOrder(creatorID, in.ContractorID, strings.TrimSpace(in.Title), specs)
	if err != nil {
		return nil, err
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// JoinOrder вносит средства заказчика в эскроу заказа. Операция двухфазная:
// сначала списание с баланса, затем зачисление взноса в заказ. При сбое
// второй фазы списание компенсируется обратным зачислением.
func (s *OrderService) JoinOrder(ctx context.Context, customerID, orderID uuid.UUID, amount float64) (*models.Order, error) {
	if err := validation.ValidateAmount(amount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	// Фиксированный порядок захвата: сначала пользователь, затем заказ.
	unlockUser := s.locks.Users.Lock(customerID)
	defer unlockUser()
	unlockOrder := s.locks.Orders.Lock(orderID)
	defer unlockOrder()

	customer, err := s.users.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !customer.IsCustomer() {
		return nil, apperror.New(apperror.ErrCodeForbidden, "вносить средства может только заказчик")
	}

	if err := customer.ChangeBalance(-amount); err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, customer); err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		s.compensateDebit(ctx, customer, amount)
		return nil, err
	}

	if err := order.AddContribution(customerID, amount); err != nil {
		s.compensateDebit(ctx, customer, amount)
		return nil, err
	}

	if err := s.orders.Save(ctx, order); err != nil {
		s.compensateDebit(ctx, customer, amount)
		return nil, err
	}

	recordTransaction(ctx, s.transactions, &models.Transaction{
		UserID:  customerID,
		OrderID: &order.ID,
		Type:    models.TransactionTypeEscrowHold,
		Amount:  amount,
	})

	if order.Status == models.OrderStatusFunded {
		notify(s.notifier, order.CreatorID, EventOrderFunded, order)
		if order.ContractorID != nil {
			notify(s.notifier, *order.ContractorID, EventOrderFunded, order)
		}
	}

	return order, nil
}

// compensateDebit возвращает списанные средства после неудачного взноса.
// Несработавшая компенсация — это потерянные деньги клиента, поэтому сбой
// логируется как критический.
func (s *OrderService) compensateDebit(ctx context.Context, customer *models.User, amount float64) {
	if err := customer.ChangeBalance(amount); err != nil {
		logger.Critical("order service", err, logrus.Fields{
			"user_id": customer.ID,
			"amount":  amount,
		})
		return
	}
	if err := s.users.Save(ctx, customer); err != nil {
		logger.Critical("order service", err, logrus.Fields{
			"user_id": customer.ID,
			"amount":  amount,
		})
	}
}

// AssignContractor назначает исполнителя на заказ, созданный без него.
func (s *OrderService) AssignContractor(ctx context.Context, callerID, orderID, contractorID uuid.UUID) (*models.Order, error) {
	unlock := s.locks.Orders.Lock(orderID)
	defer unlock()

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if callerID != order.CreatorID && callerID != order.RepresentativeID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "назначать исполнителя может создатель или представитель")
	}

	contractor, err := s.users.GetByID(ctx, contractorID)
	if err != nil {
		return nil, err
	}
	if !contractor.IsContractor() {
		return nil, apperror.New(apperror.ErrCodeValidation, "указанный исполнитель не является исполнителем")
	}

	if err := order.AssignContractor(contractorID); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}

	notify(s.notifier, contractorID, EventContractorAssigned, order)
	return order, nil
}

// CancelOrder отменяет заказ и возвращает взносы заказчикам. Доступно
// текущему представителю, пока работа по заказу не началась.
func (s *OrderService) CancelOrder(ctx context.Context, callerID, orderID uuid.UUID) (*models.Order, error) {
	unlockOrder := s.locks.Orders.Lock(orderID)

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		unlockOrder()
		return nil, err
	}
	if callerID != order.RepresentativeID {
		unlockOrder()
		return nil, apperror.New(apperror.ErrCodeForbidden, "отменить заказ может только представитель вкладчиков")
	}

	refunds, err := order.Cancel()
	if err != nil {
		unlockOrder()
		return nil, err
	}

	if err := s.orders.Save(ctx, order); err != nil {
		unlockOrder()
		return nil, err
	}

	// Возвраты идут после освобождения замка заказа: статус уже CANCELLED,
	// заказ новых операций не примет, а замки пользователей берутся без
	// удержания замка заказа (сохраняем порядок пользователь → заказ).
	unlockOrder()

	for customerID, amount := range refunds {
		if err := s.refundContribution(ctx, customerID, order.ID, amount); err != nil {
			return nil, err
		}
	}

	for customerID := range refunds {
		notify(s.notifier, customerID, EventOrderCancelled, order)
	}

	return order, nil
}

// refundContribution возвращает один взнос. Эскроу уже обнулён, поэтому
// любой сбой здесь — критическое нарушение консистентности.
func (s *OrderService) refundContribution(ctx context.Context, customerID, orderID uuid.UUID, amount float64) error {
	unlock := s.locks.Users.Lock(customerID)
	defer unlock()

	customer, err := s.users.GetByID(ctx, customerID)
	if err != nil {
		logger.Critical("order service", err, logrus.Fields{
			"user_id":  customerID,
			"order_id": orderID,
			"amount":   amount,
		})
		return apperror.Wrap(err, apperror.ErrCodeConsistency, "вкладчик не найден при возврате средств")
	}

	if err := customer.ChangeBalance(amount); err != nil {
		return err
	}
	if err := s.users.Save(ctx, customer); err != nil {
		logger.Critical("order service", err, logrus.Fields{
			"user_id":  customerID,
			"order_id": orderID,
			"amount":   amount,
		})
		return apperror.Wrap(err, apperror.ErrCodeConsistency, "не удалось зачислить возврат")
	}

	recordTransaction(ctx, s.transactions, &models.Transaction{
		UserID:  customerID,
		OrderID: &orderID,
		Type:    models.TransactionTypeEscrowRefund,
		Amount:  amount,
	})
	return nil
}

// GetOrder возвращает агрегат заказа.
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.orders.GetByID(ctx, orderID)
}

// ListOrders возвращает все заказы платформы.
func (s *OrderService) ListOrders(ctx context.Context) ([]*models.Order, error) {
	return s.orders.GetAll(ctx)
}

// UserOrders группирует заказы пользователя по его роли в них.
type UserOrders struct {
	Created  []*models.Order `json:"created"`
	Joined   []*models.Order `json:"joined"`
	Assigned []*models.Order `json:"assigned"`
}

// ViewUserOrders возвращает созданные, профинансированные и назначенные
// заказы пользователя.
func (s *OrderService) ViewUserOrders(ctx context.Context, userID uuid.UUID) (*UserOrders, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &UserOrders{}
	if user.IsCustomer() {
		if result.Created, err = s.orders.ListByCreator(ctx, userID); err != nil {
			return nil, err
		}
		if result.Joined, err = s.orders.ListByContributor(ctx, userID); err != nil {
			return nil, err
		}
	}
	if user.IsContractor() {
		if result.Assigned, err = s.orders.ListByContractor(ctx, userID); err != nil {
			return nil, err
		}
	}
	return result, nil
}
