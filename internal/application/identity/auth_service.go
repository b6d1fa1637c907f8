package identity

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/posvenda/backend/internal/domain/identity"
	"github.com/posvenda/backend/internal/infrastructure/auth"
)

// ------------------------------------------------------------
// Inputs and results
// ------------------------------------------------------------

type RegisterInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserResult struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type LoginResult struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      UserResult `json:"user"`
}

// ------------------------------------------------------------
// Service
// ------------------------------------------------------------

// AuthService handles user registration and login.
type AuthService struct {
	users  identity.Repository
	tokens *auth.JWTService
	logger *zap.Logger
}

func NewAuthService(users identity.Repository, tokens *auth.JWTService, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates a new active user account.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*UserResult, error) {
	user, err := identity.NewUser(input.Name, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email))

	return &UserResult{
		ID:    user.ID.String(),
		Name:  user.Name,
		Email: user.Email,
	}, nil
}

// Login verifies credentials and issues a signed token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		s.logger.Warn("login for unknown email", zap.String("email", input.Email))
		return nil, identity.ErrInvalidCredentials
	}

	if !user.IsActive {
		s.logger.Warn("login for inactive account", zap.String("user_id", user.ID.String()))
		return nil, identity.ErrUserInactive
	}

	if err := user.CheckPassword(input.Password); err != nil {
		s.logger.Warn("login with wrong password", zap.String("user_id", user.ID.String()))
		return nil, identity.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Generate(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID.String()))

	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User: UserResult{
			ID:    user.ID.String(),
			Name:  user.Name,
			Email: user.Email,
		},
	}, nil
}
