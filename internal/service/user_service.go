package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/escrow-backend/internal/models"
	"github.com/ignatzorin/escrow-backend/internal/pkg/apperror"
	"github.com/ignatzorin/escrow-backend/internal/validation"
)

// UserService обслуживает балансы и журнал транзакций.
type UserService struct {
	users        UserStore
	transactions TransactionLog
	locks        *Locks
}

// NewUserService создаёт сервис пользователей.
func NewUserService(users UserStore, transactions TransactionLog, locks *Locks) *UserService {
	return &UserService{users: users, transactions: transactions, locks: locks}
}

// Deposit пополняет баланс заказчика.
func (s *UserService) Deposit(ctx context.Context, customerID uuid.UUID, amount float64) (*models.User, error) {
	if err := validation.ValidateAmount(amount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	unlock := s.locks.Users.Lock(customerID)
	defer unlock()

	user, err := s.users.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !user.IsCustomer() {
		return nil, apperror.New(apperror.ErrCodeForbidden, "пополнять баланс может только заказчик")
	}

	if err := user.ChangeBalance(amount); err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	recordTransaction(ctx, s.transactions, &models.Transaction{
		UserID: user.ID,
		Type:   models.TransactionTypeDeposit,
		Amount: amount,
	})

	return user, nil
}

// GetBalance возвращает пользователя вместе с текущим балансом.
func (s *UserService) GetBalance(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// ListUsers возвращает всех пользователей платформы.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.GetAll(ctx)
}

// ListTransactions возвращает журнал движения средств пользователя.
func (s *UserService) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.transactions.ListByUser(ctx, userID, limit, offset)
}
