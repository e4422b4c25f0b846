// Package domain contains cleanup event records.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/trashmobeco/trashmob/pkg/db/pagination"
)

const (
	EventStatusActive    = "active"
	EventStatusComplete  = "complete"
	EventStatusCancelled = "cancelled"
)

var (
	ErrEventNotFound = errors.New("event_not_found")
	ErrInvalidName   = errors.New("invalid_event_name")
	ErrInvalidDates  = errors.New("invalid_event_dates")
)

// Event is a scheduled community litter cleanup.
type Event struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	PartnerID   *snowflake.ID `gorm:"" json:"partner_id,omitempty"`
	Name        string        `gorm:"type:text;not null" json:"name"`
	Description string        `gorm:"type:text" json:"description"`
	Status      string        `gorm:"type:text;not null;default:active" json:"status"`

	Latitude  float64 `gorm:"not null" json:"latitude"`
	Longitude float64 `gorm:"not null" json:"longitude"`
	City      string  `gorm:"type:text" json:"city"`
	Region    string  `gorm:"type:text" json:"region"`

	StartsAt    time.Time    `gorm:"not null" json:"starts_at"`
	EndsAt      time.Time    `gorm:"not null" json:"ends_at"`
	CreatedByID snowflake.ID `gorm:"not null" json:"-"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (Event) TableName() string { return "events" }

// CreateEventRequest carries the fields for a new event.
type CreateEventRequest struct {
	PartnerID   *snowflake.ID
	Name        string
	Description string
	Latitude    float64
	Longitude   float64
	City        string
	Region      string
	StartsAt    time.Time
	EndsAt      time.Time
	CreatedByID snowflake.ID
}

type Service interface {
	Create(ctx context.Context, req CreateEventRequest) (*Event, error)
	Get(ctx context.Context, id snowflake.ID) (*Event, error)
	Exists(ctx context.Context, id snowflake.ID) (bool, error)
	List(ctx context.Context, page pagination.Pagination) ([]Event, *pagination.PageInfo, error)
}
