//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks

// Package services hosts the application layer: thin operations tying
// repositories, the dispatcher and the event pipeline together. No
// transport types cross this boundary.
package services

import (
	"fmt"

	"council-lab/auth"
	"council-lab/errors"
	"council-lab/repositories"
)

type IAuthService interface {
	Login(email, password string) (Token, error)
	Register(email, password string) (Token, error)
}

type AuthService struct {
	userRepository repositories.IUserRepository
	tokens         *auth.TokenManager
}

type Token string

func NewAuthService(repo repositories.IUserRepository, tokens *auth.TokenManager) IAuthService {
	return &AuthService{userRepository: repo, tokens: tokens}
}

// Every fresh account starts with the same role set.
var defaultRoles = []string{"user"}

func (s *AuthService) Register(email, password string) (Token, error) {
	valReq := auth.RegisterRequest{
		Email:    email,
		Password: password,
	}

	// 1. Check format and complexity rules before any expensive
	// key derivation.
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// 2. Derive the Argon2id hash here; the repository never sees
	// the plain password.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist the account under the derived hash
	userID, err := s.userRepository.CreateUser(email, hashedPassword)
	if err != nil {
		return "", err // Carries ErrUserAlreadyExists when the email is taken
	}

	// 4. A successful registration doubles as the first login
	token, err := s.tokens.GenerateToken(userID, defaultRoles)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}

	return Token(token), nil
}

func (s *AuthService) Login(email, password string) (Token, error) {
	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		// One generic error whatever failed, no user enumeration
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Roles)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}

	return Token(token), nil
}
