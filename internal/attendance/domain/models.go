// Package domain contains event attendance rosters.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	eventdomain "github.com/trashmobeco/trashmob/internal/event/domain"
)

var (
	ErrAlreadyRegistered = errors.New("already_registered")
	ErrNotRegistered     = errors.New("not_registered")
)

// EventAttendee links a user to an event they signed up for.
type EventAttendee struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	EventID    snowflake.ID `gorm:"not null;uniqueIndex:idx_event_user" json:"event_id"`
	UserID     snowflake.ID `gorm:"not null;uniqueIndex:idx_event_user" json:"user_id"`
	SignedUpAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"signed_up_at"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (EventAttendee) TableName() string { return "event_attendees" }

// Service answers attendance questions for other components; metric
// submission is gated on IsAttendee.
type Service interface {
	Register(ctx context.Context, eventID, userID snowflake.ID) error
	Unregister(ctx context.Context, eventID, userID snowflake.ID) error
	IsAttendee(ctx context.Context, eventID, userID snowflake.ID) (bool, error)
	EventsForUser(ctx context.Context, userID snowflake.ID, futureOnly bool) ([]eventdomain.Event, error)
}
