package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/posvenda/backend/internal/domain/identity"
	"github.com/posvenda/backend/internal/infrastructure/config"
)

// ------------------------------------------------------------
// Errors
// ------------------------------------------------------------

var (
	ErrInvalidToken     = errors.New("auth: invalid token")
	ErrExpiredToken     = errors.New("auth: token expired")
	ErrTokenNotYetValid = errors.New("auth: token not yet valid")
	ErrInvalidClaims    = errors.New("auth: invalid token claims")
)

// ------------------------------------------------------------
// Claims
// ------------------------------------------------------------

// Claims is the JWT payload issued to authenticated users.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// ------------------------------------------------------------
// Service
// ------------------------------------------------------------

// JWTService issues and validates HS256 signed tokens.
type JWTService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
}

// NewJWTService creates a JWT service from configuration.
func NewJWTService(cfg config.JWTConfig) *JWTService {
	expiration := time.Duration(cfg.Expiration) * time.Minute
	if expiration <= 0 {
		expiration = 60 * time.Minute
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "posvenda-backend"
	}
	return &JWTService{
		secret:     []byte(cfg.Secret),
		expiration: expiration,
		issuer:     issuer,
	}
}

// Generate signs a token for the given user.
func (s *JWTService) Generate(user *identity.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiration)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: user.ID.String(),
		Name:   user.Name,
		Email:  user.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate parses a signed token and returns its claims.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.UserID == "" {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}
