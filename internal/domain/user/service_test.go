package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, login, passwordHash string) (int, error) {
	args := m.Called(ctx, login, passwordHash)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) FindByLogin(ctx context.Context, login string) (User, error) {
	args := m.Called(ctx, login)
	return args.Get(0).(User), args.Error(1)
}

func newTestService(repo Repository) *Service {
	s := NewService(repo, NewCredentialsPolicy(), slog.Default())
	s.cost = bcrypt.MinCost
	return s
}

func TestService_Register(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	mockRepo.On("Create", mock.Anything, "learner", mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("passw0rd")) == nil
	})).Return(42, nil)

	id, err := service.Register(context.Background(), "learner", "passw0rd")
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	mockRepo.AssertExpectations(t)
}

func TestService_Register_InvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		login    string
		password string
	}{
		{name: "short login", login: "ab", password: "passw0rd"},
		{name: "login with space", login: "my name", password: "passw0rd"},
		{name: "short password", login: "learner", password: "pa55"},
		{name: "password without digits", login: "learner", password: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockRepository)
			service := newTestService(mockRepo)

			_, err := service.Register(context.Background(), tt.login, tt.password)
			assert.ErrorIs(t, err, ErrInvalidInput)
			mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestService_Register_LoginTaken(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	mockRepo.On("Create", mock.Anything, "learner", mock.AnythingOfType("string")).Return(0, ErrLoginTaken)

	_, err := service.Register(context.Background(), "learner", "passw0rd")
	assert.ErrorIs(t, err, ErrLoginTaken)

	mockRepo.AssertExpectations(t)
}

func TestService_Authenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("passw0rd"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := User{ID: 7, Login: "learner", PasswordHash: string(hash)}

	tests := []struct {
		name     string
		password string
		found    User
		findErr  error
		wantErr  error
	}{
		{name: "success", password: "passw0rd", found: stored},
		{name: "wrong password", password: "passw0rd!", found: stored, wantErr: ErrInvalidAuth},
		{name: "unknown user", password: "passw0rd", found: User{}, findErr: ErrNotFound, wantErr: ErrInvalidAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockRepository)
			service := newTestService(mockRepo)
			mockRepo.On("FindByLogin", mock.Anything, "learner").Return(tt.found, tt.findErr)

			u, err := service.Authenticate(context.Background(), "learner", tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 7, u.ID)
		})
	}
}

func TestService_Authenticate_StorageError(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	mockRepo.On("FindByLogin", mock.Anything, "learner").Return(User{}, errors.New("connection refused"))

	_, err := service.Authenticate(context.Background(), "learner", "passw0rd")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidAuth)
	assert.Contains(t, err.Error(), "connection refused")
}
