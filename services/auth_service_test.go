package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"council-lab/auth"
	"council-lab/errors"
	"council-lab/mocks"
	"council-lab/repositories"
	"council-lab/services"
)

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	tokens := auth.NewTokenManager("test-secret", 24*time.Hour)
	svc := services.NewAuthService(mockRepo, tokens)

	t.Run("should register and hand back a usable token", func(t *testing.T) {
		req := require.New(t)
		email := "alice@council.dev"
		password := "ComplexPass123!" // Satisfies the complexity rules
		expectedUserID := "user-uuid"

		// The repository receives a hash, never the plain password
		mockRepo.EXPECT().
			CreateUser(email, gomock.Not(password)).
			Return(expectedUserID, nil).
			Times(1)

		token, err := svc.Register(email, password)

		req.NoError(err)
		req.NotEmpty(token)

		// Registration doubles as the first login
		claims, err := tokens.ValidateToken(string(token))
		req.NoError(err)
		req.Equal(expectedUserID, claims.UserID)
		req.Equal([]string{"user"}, claims.Roles)
	})

	t.Run("should fail when password complexity is not met", func(t *testing.T) {
		req := require.New(t)
		email := "alice@council.dev"
		password := "simple" // Fails validation

		// The repository must stay untouched
		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Times(0)

		token, err := svc.Register(email, password)

		req.Error(err)
		req.ErrorIs(err, errors.ErrInvalidPassword)
		req.Empty(token)
	})

	t.Run("should surface a taken email", func(t *testing.T) {
		req := require.New(t)
		email := "taken@council.dev"
		password := "ComplexPass123!"

		mockRepo.EXPECT().
			CreateUser(email, gomock.Any()).
			Return("", errors.ErrUserAlreadyExists).
			Times(1)

		_, err := svc.Register(email, password)

		req.ErrorIs(err, errors.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	tokens := auth.NewTokenManager("test-secret", 24*time.Hour)
	svc := services.NewAuthService(mockRepo, tokens)

	t.Run("should login with correct credentials", func(t *testing.T) {
		req := require.New(t)
		email := "alice@council.dev"
		password := "Secret123456!"

		hashedPassword, _ := auth.HashPassword(password)
		storedUser := repositories.User{
			ID:           "uuid-123",
			Email:        email,
			PasswordHash: hashedPassword,
			Roles:        []string{"user"},
		}

		mockRepo.EXPECT().
			GetUserByEmail(email).
			Return(storedUser, nil).
			Times(1)

		token, err := svc.Login(email, password)

		req.NoError(err)
		req.NotEmpty(token)

		claims, err := tokens.ValidateToken(string(token))
		req.NoError(err)
		req.Equal(storedUser.ID, claims.UserID)
	})

	t.Run("should reject a wrong password", func(t *testing.T) {
		req := require.New(t)
		email := "alice@council.dev"

		hashedPassword, _ := auth.HashPassword("CorrectPassword123!")
		storedUser := repositories.User{
			Email:        email,
			PasswordHash: hashedPassword,
		}

		mockRepo.EXPECT().
			GetUserByEmail(email).
			Return(storedUser, nil).
			Times(1)

		_, err := svc.Login(email, "WrongPassword123!")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("should answer unknown accounts and wrong passwords alike", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			GetUserByEmail("unknown@council.dev").
			Return(repositories.User{}, errors.ErrInvalidCredentials).
			Times(1)

		_, err := svc.Login("unknown@council.dev", "anyPassword")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})
}
