package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/posvenda/backend/internal/domain/identity"
)

// UserModel is the persistence model for API consumer accounts.
type UserModel struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name         string    `gorm:"column:name;size:200;not null"`
	Email        string    `gorm:"column:email;size:255;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;size:100;not null"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null"`
}

// TableName returns the table name for UserModel
func (UserModel) TableName() string {
	return "users"
}

// UserModelFromDomain converts a domain user to its persistence model.
func UserModelFromDomain(u *identity.User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// ToDomain converts UserModel back to the domain shape.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
