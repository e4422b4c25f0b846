// Package domain contains the user model and anonymization sentinel.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// AnonymousID is the sentinel user reference assigned to records whose owner
// deleted their account. Aggregates keep counting these records, but nothing
// may surface them as belonging to a person.
const AnonymousID snowflake.ID = 0

var (
	ErrUserNotFound   = errors.New("user_not_found")
	ErrInvalidDisplay = errors.New("invalid_display_name")
)

// User is a registered TrashMob member.
type User struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	DisplayName string       `gorm:"type:text;not null" json:"display_name"`
	Email       string       `gorm:"type:text;not null" json:"email"`
	City        string       `gorm:"type:text" json:"city"`
	Region      string       `gorm:"type:text" json:"region"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// CreateUserRequest carries the fields for a new user.
type CreateUserRequest struct {
	DisplayName string
	Email       string
	City        string
	Region      string
}

// Service manages users, including account deletion with history-preserving
// anonymization of their metric submissions.
type Service interface {
	Create(ctx context.Context, req CreateUserRequest) (*User, error)
	Get(ctx context.Context, id snowflake.ID) (*User, error)
	Delete(ctx context.Context, id snowflake.ID) error
}
