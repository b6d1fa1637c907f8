package identity

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

var (
	ErrInvalidEmail       = errors.New("identity: invalid email address")
	ErrWeakPassword       = errors.New("identity: password must be at least 8 characters")
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	ErrUserInactive       = errors.New("identity: user is inactive")
	ErrUserNotFound       = errors.New("identity: user not found")
	ErrEmailTaken         = errors.New("identity: email already registered")
)

// User is an API consumer account. It gates access to the sync and reporting
// endpoints and has nothing to do with the upstream Hubsoft credentials.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser creates an active user with a bcrypt-hashed password.
func NewUser(name, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	return &User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}, nil
}

// CheckPassword compares a plaintext password against the stored hash.
func (u *User) CheckPassword(password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
