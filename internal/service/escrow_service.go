package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/escrow-backend/internal/logger"
	"github.com/ignatzorin/escrow-backend/internal/models"
	"github.com/ignatzorin/escrow-backend/internal/pkg/apperror"
)

// EscrowService проводит этапы через сдачу, подписание акта и выплату.
// Это единственное место, где средства покидают эскроу.
type EscrowService struct {
	orders           OrderStore
	users            UserStore
	transactions     TransactionLog
	locks            *Locks
	notifier         Notifier
	platformSignerID uuid.UUID
}

// NewEscrowService создаёт сервис эскроу. platformSignerID может быть
// uuid.Nil — тогда платформенная подпись отключена.
func NewEscrowService(orders OrderStore, users UserStore, transactions TransactionLog, locks *Locks, platformSignerID uuid.UUID) *EscrowService {
	return &EscrowService{
		orders:           orders,
		users:            users,
		transactions:     transactions,
		locks:            locks,
		platformSignerID: platformSignerID,
	}
}

// SetNotifier подключает рассылку событий.
func (s *EscrowService) SetNotifier(n Notifier) {
	s.notifier = n
}

// MarkMilestoneComplete фиксирует сдачу этапа исполнителем.
func (s *EscrowService) MarkMilestoneComplete(ctx context.Context, callerID, orderID, milestoneID uuid.UUID) (*models.Order, error) {
	unlock := s.locks.Orders.Lock(orderID)
	defer unlock()

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ContractorID == nil {
		return nil, apperror.ErrNoContractorAssigned
	}
	if callerID != *order.ContractorID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "сдавать этапы может только назначенный исполнитель")
	}

	milestone, err := order.MarkMilestoneCompleted(milestoneID)
	if err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}

	notify(s.notifier, order.RepresentativeID, EventMilestoneCompleted, milestone)
	if order.CreatorID != order.RepresentativeID {
		notify(s.notifier, order.CreatorID, EventMilestoneCompleted, milestone)
	}

	return order, nil
}

// SignResult описывает итог подписания акта.
type SignResult struct {
	Order          *models.Order     `json:"order"`
	Milestone      *models.Milestone `json:"milestone"`
	Released       bool              `json:"released"`
	ReleasedAmount float64           `json:"released_amount,omitempty"`
}

// SignAct добавляет подпись под актом этапа. Подписывать вправе платформа,
// исполнитель заказа и текущий представитель вкладчиков. Если подпись
// замкнула кворум, сумма этапа списывается с эскроу и зачисляется
// исполнителю.
func (s *EscrowService) SignAct(ctx context.Context, signerID, orderID, milestoneID uuid.UUID) (*SignResult, error) {
	unlock := s.locks.Orders.Lock(orderID)

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		unlock()
		return nil, err
	}

	if !s.canSign(order, signerID) {
		unlock()
		return nil, apperror.New(apperror.ErrCodeForbidden, "подписывать акт могут платформа, исполнитель или представитель")
	}

	milestone, ok := order.Milestone(milestoneID)
	if !ok {
		unlock()
		return nil, apperror.ErrMilestoneNotFound
	}
	if milestone.Act == nil {
		unlock()
		return nil, apperror.ErrActNotCreated
	}

	if err := milestone.Act.AddSignature(signerID); err != nil {
		unlock()
		return nil, err
	}

	result := &SignResult{Order: order, Milestone: milestone}

	// Кворум собран и этап ещё не оплачен — выплачиваем. Проверка статуса
	// закрывает гонку с уже прошедшей выплатой.
	if milestone.Act.IsComplete && milestone.Status == models.MilestoneStatusCompletedByContractor {
		amount, err := order.ReleaseFunds(milestoneID)
		if err != nil {
			if apperror.IsConsistency(err) {
				logger.Critical("escrow service", err, logrus.Fields{
					"order_id":     orderID,
					"milestone_id": milestoneID,
				})
			}
			unlock()
			return nil, err
		}
		result.Released = true
		result.ReleasedAmount = amount
	}

	if err := s.orders.Save(ctx, order); err != nil {
		unlock()
		return nil, err
	}

	contractorID := uuid.Nil
	if order.ContractorID != nil {
		contractorID = *order.ContractorID
	}
	unlock()

	if result.Released {
		if err := s.creditContractor(ctx, contractorID, order.ID, result.ReleasedAmount); err != nil {
			return nil, err
		}

		notify(s.notifier, contractorID, EventFundsReleased, result)
		if order.Status == models.OrderStatusCompleted {
			notify(s.notifier, order.CreatorID, EventOrderCompleted, order)
			if contractorID != uuid.Nil {
				notify(s.notifier, contractorID, EventOrderCompleted, order)
			}
		}
	}

	return result, nil
}

// canSign проверяет право подписи: платформа, исполнитель или представитель.
func (s *EscrowService) canSign(order *models.Order, signerID uuid.UUID) bool {
	if s.platformSignerID != uuid.Nil && signerID == s.platformSignerID {
		return true
	}
	if order.ContractorID != nil && signerID == *order.ContractorID {
		return true
	}
	return signerID == order.RepresentativeID
}

// creditContractor зачисляет выплаченную сумму исполнителю. Эскроу уже
// списан и сохранён, поэтому отсутствие исполнителя или сбой записи — это
// потерянные средства: логируем как критическое нарушение и отдаём
// консистентную ошибку, а не тихий false.
func (s *EscrowService) creditContractor(ctx context.Context, contractorID uuid.UUID, orderID uuid.UUID, amount float64) error {
	fields := logrus.Fields{
		"contractor_id": contractorID,
		"order_id":      orderID,
		"amount":        amount,
	}

	if contractorID == uuid.Nil {
		logger.Critical("escrow service", apperror.ErrPayoutTargetMissing, fields)
		return apperror.ErrPayoutTargetMissing
	}

	unlock := s.locks.Users.Lock(contractorID)
	defer unlock()

	contractor, err := s.users.GetByID(ctx, contractorID)
	if err != nil {
		logger.Critical("escrow service", err, fields)
		return apperror.ErrPayoutTargetMissing
	}

	if err := contractor.ChangeBalance(amount); err != nil {
		return err
	}
	if err := s.users.Save(ctx, contractor); err != nil {
		logger.Critical("escrow service", err, fields)
		return apperror.Wrap(err, apperror.ErrCodeConsistency, "не удалось зачислить выплату исполнителю")
	}

	recordTransaction(ctx, s.transactions, &models.Transaction{
		UserID:  contractorID,
		OrderID: &orderID,
		Type:    models.TransactionTypeEscrowRelease,
		Amount:  amount,
	})
	return nil
}
