package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/escrow-backend/internal/models"
	"github.com/ignatzorin/escrow-backend/internal/pkg/apperror"
)

// memUserStore — хранилище пользователей в памяти для сквозных тестов.
// Возвращает копии, поэтому изменения видны только после Save.
type memUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[uuid.UUID]models.User)}
}

func (s *memUserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.users[user.ID] = *user
	return nil
}

func (s *memUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	copied := user
	return &copied, nil
}

func (s *memUserStore) GetAll(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		all = append(all, user)
	}
	return all, nil
}

func (s *memUserStore) Save(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return apperror.ErrUserNotFound
	}
	s.users[user.ID] = *user
	return nil
}

// memOrderStore — хранилище заказов в памяти. Агрегаты разделяются по
// указателю: для однопоточных сценариев этого достаточно.
type memOrderStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*models.Order
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{orders: make(map[uuid.UUID]*models.Order)}
}

func (s *memOrderStore) Create(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
	return nil
}

func (s *memOrderStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, apperror.ErrOrderNotFound
	}
	return order, nil
}

func (s *memOrderStore) GetAll(ctx context.Context) ([]*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]*models.Order, 0, len(s.orders))
	for _, order := range s.orders {
		all = append(all, order)
	}
	return all, nil
}

func (s *memOrderStore) Save(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
	return nil
}

func (s *memOrderStore) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*models.Order
	for _, order := range s.orders {
		if order.CreatorID == creatorID {
			result = append(result, order)
		}
	}
	return result, nil
}

func (s *memOrderStore) ListByContractor(ctx context.Context, contractorID uuid.UUID) ([]*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*models.Order
	for _, order := range s.orders {
		if order.ContractorID != nil && *order.ContractorID == contractorID {
			result = append(result, order)
		}
	}
	return result, nil
}

func (s *memOrderStore) ListByContributor(ctx context.Context, customerID uuid.UUID) ([]*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*models.Order
	for _, order := range s.orders {
		if order.Contributions[customerID] > 0 {
			result = append(result, order)
		}
	}
	return result, nil
}

// memTransactionLog — журнал движения средств в памяти.
type memTransactionLog struct {
	mu      sync.Mutex
	entries []models.Transaction
}

func (l *memTransactionLog) Create(ctx context.Context, t *models.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	l.entries = append(l.entries, *t)
	return nil
}

func (l *memTransactionLog) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var result []models.Transaction
	for _, entry := range l.entries {
		if entry.UserID == userID {
			result = append(result, entry)
		}
	}
	return result, nil
}

type engineFixture struct {
	users        *memUserStore
	orders       *memOrderStore
	transactions *memTransactionLog
	userSvc      *UserService
	orderSvc     *OrderService
	escrowSvc    *EscrowService
	voteSvc      *VoteService
	platformID   uuid.UUID
}

func newEngineFixture() *engineFixture {
	users := newMemUserStore()
	orders := newMemOrderStore()
	transactions := &memTransactionLog{}
	locks := NewLocks()
	platformID := uuid.New()

	return &engineFixture{
		users:        users,
		orders:       orders,
		transactions: transactions,
		userSvc:      NewUserService(users, transactions, locks),
		orderSvc:     NewOrderService(orders, users, transactions, locks),
		escrowSvc:    NewEscrowService(orders, users, transactions, locks, platformID),
		voteSvc:      NewVoteService(orders, locks),
		platformID:   platformID,
	}
}

func (f *engineFixture) newUser(t *testing.T, name, role string) *models.User {
	t.Helper()
	user := &models.User{ID: uuid.New(), Name: name, Role: role}
	assert.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *engineFixture) balance(t *testing.T, id uuid.UUID) float64 {
	t.Helper()
	user, err := f.users.GetByID(context.Background(), id)
	assert.NoError(t, err)
	return user.Balance
}

// Сквозной сценарий: заказчик финансирует заказ целиком, исполнитель сдаёт
// оба этапа, платформа подписывает акты, заказ завершается и вся стоимость
// уходит исполнителю.
func TestEngine_FullLifecycle(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	customer := f.newUser(t, "alice", models.RoleCustomer)
	contractor := f.newUser(t, "dmitry", models.RoleContractor)

	_, err := f.userSvc.Deposit(ctx, customer.ID, 1000)
	assert.NoError(t, err)

	order, err := f.orderSvc.CreateOrder(ctx, customer.ID, CreateOrderInput{
		Title:        "Разработка сайта",
		ContractorID: &contractor.ID,
		Milestones: []MilestoneInput{
			{Description: "Макет", Amount: 200},
			{Description: "Вёрстка", Amount: 300},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, float64(500), order.TotalCost)

	joined, err := f.orderSvc.JoinOrder(ctx, customer.ID, order.ID, 500)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusFunded, joined.Status)
	assert.Equal(t, float64(500), joined.EscrowBalance)
	assert.Equal(t, float64(500), f.balance(t, customer.ID))

	for milestoneID := range joined.Milestones {
		_, err := f.escrowSvc.MarkMilestoneComplete(ctx, contractor.ID, order.ID, milestoneID)
		assert.NoError(t, err)

		result, err := f.escrowSvc.SignAct(ctx, f.platformID, order.ID, milestoneID)
		assert.NoError(t, err)
		assert.True(t, result.Released)
	}

	final, err := f.orderSvc.GetOrder(ctx, order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, final.Status)
	assert.Equal(t, float64(0), final.EscrowBalance)
	assert.Equal(t, float64(500), f.balance(t, customer.ID))
	assert.Equal(t, float64(500), f.balance(t, contractor.ID))

	// Журнал: пополнение, взнос и две выплаты.
	history, err := f.userSvc.ListTransactions(ctx, customer.ID, 20, 0)
	assert.NoError(t, err)
	assert.Len(t, history, 2)

	payouts, err := f.userSvc.ListTransactions(ctx, contractor.ID, 20, 0)
	assert.NoError(t, err)
	assert.Len(t, payouts, 2)
}

// Коллективное финансирование: два вкладчика, перевыборы представителя и
// отмена заказа с возвратом обоих взносов.
func TestEngine_VoteAndCancel(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	alice := f.newUser(t, "alice", models.RoleCustomer)
	carol := f.newUser(t, "carol", models.RoleCustomer)

	_, err := f.userSvc.Deposit(ctx, alice.ID, 300)
	assert.NoError(t, err)
	_, err = f.userSvc.Deposit(ctx, carol.ID, 900)
	assert.NoError(t, err)

	order, err := f.orderSvc.CreateOrder(ctx, alice.ID, CreateOrderInput{
		Title:      "Разработка сайта",
		Milestones: []MilestoneInput{{Description: "Макет", Amount: 1000}},
	})
	assert.NoError(t, err)

	_, err = f.orderSvc.JoinOrder(ctx, alice.ID, order.ID, 200)
	assert.NoError(t, err)
	_, err = f.orderSvc.JoinOrder(ctx, carol.ID, order.ID, 800)
	assert.NoError(t, err)

	// Кэрол держит 800 из 1000 — её голос решает перевыборы.
	voteResult, err := f.voteSvc.Vote(ctx, carol.ID, order.ID, carol.ID)
	assert.NoError(t, err)
	assert.True(t, voteResult.Resolved)
	assert.Equal(t, carol.ID, *voteResult.Winner)

	// Прежний представитель больше не вправе отменять заказ.
	_, err = f.orderSvc.CancelOrder(ctx, alice.ID, order.ID)
	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))

	cancelled, err := f.orderSvc.CancelOrder(ctx, carol.ID, order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, float64(0), cancelled.EscrowBalance)

	assert.Equal(t, float64(300), f.balance(t, alice.ID))
	assert.Equal(t, float64(900), f.balance(t, carol.ID))
}
