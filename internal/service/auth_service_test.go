package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/escrow-backend/internal/models"
	"github.com/ignatzorin/escrow-backend/internal/pkg/apperror"
)

// mockAuthRepository реализует AuthRepository для тестов.
type mockAuthRepository struct {
	usersByName map[string]*models.User
	usersByID   map[uuid.UUID]*models.User
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{
		usersByName: make(map[string]*models.User),
		usersByID:   make(map[uuid.UUID]*models.User),
	}
}

func (m *mockAuthRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.New()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	m.usersByName[user.Name] = user
	m.usersByID[user.ID] = user
	return nil
}

func (m *mockAuthRepository) GetByName(ctx context.Context, name string) (*models.User, error) {
	if user, ok := m.usersByName[name]; ok {
		return user, nil
	}
	return nil, apperror.ErrUserNotFound
}

func (m *mockAuthRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := m.usersByID[id]; ok {
		return user, nil
	}
	return nil, apperror.ErrUserNotFound
}

func newTestAuthService() (*AuthService, *mockAuthRepository) {
	repo := newMockAuthRepository()
	tokens := NewTokenManager("test-access-secret", "test-refresh-secret", 15*time.Minute, time.Hour)
	return NewAuthService(repo, tokens), repo
}

func TestAuthService_Register_DefaultsToCustomer(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{Name: "alice", Password: "password123"})
	assert.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, result.User.Role)
	assert.Equal(t, float64(0), result.User.Balance)
	assert.NotEmpty(t, result.TokenPair.AccessToken)
	assert.NotEmpty(t, result.TokenPair.RefreshToken)
}

func TestAuthService_Register_Contractor(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{Name: "bob", Password: "password123", Role: models.RoleContractor})
	assert.NoError(t, err)
	assert.Equal(t, models.RoleContractor, result.User.Role)
}

func TestAuthService_Register_UnknownRole(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "mallory", Password: "password123", Role: "admin"})
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestAuthService_Register_NameTaken(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "alice", Password: "password123"})
	assert.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Name: "alice", Password: "another-password"})
	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestAuthService_Login(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{Name: "alice", Password: "password123"})
	assert.NoError(t, err)

	result, err := svc.Login(ctx, "alice", "password123")
	assert.NoError(t, err)
	assert.Equal(t, registered.User.ID, result.User.ID)
	assert.NotEmpty(t, result.TokenPair.AccessToken)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "alice", Password: "password123"})
	assert.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Login(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_Refresh(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{Name: "alice", Password: "password123"})
	assert.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, registered.TokenPair.RefreshToken)
	assert.NoError(t, err)
	assert.Equal(t, registered.User.ID, refreshed.User.ID)
	assert.NotEmpty(t, refreshed.TokenPair.AccessToken)
}

func TestAuthService_Refresh_InvalidToken(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Refresh(ctx, "not-a-token")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
