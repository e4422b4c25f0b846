// Package domain contains waiver versions and per-user acceptances.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrNoCurrentWaiver = errors.New("no_current_waiver")
	ErrAlreadyAccepted = errors.New("waiver_already_accepted")
)

// Waiver is one published liability waiver version. The newest effective
// version is the one users must accept before attending events.
type Waiver struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Version     string       `gorm:"type:text;not null" json:"version"`
	Text        string       `gorm:"type:text;not null" json:"text"`
	EffectiveAt time.Time    `gorm:"not null" json:"effective_at"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (Waiver) TableName() string { return "waivers" }

// WaiverAcceptance records a user accepting a waiver version.
type WaiverAcceptance struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	WaiverID   snowflake.ID `gorm:"not null;uniqueIndex:idx_waiver_user" json:"waiver_id"`
	UserID     snowflake.ID `gorm:"not null;uniqueIndex:idx_waiver_user" json:"user_id"`
	AcceptedAt time.Time    `gorm:"not null" json:"accepted_at"`
}

// TableName sets the database table name.
func (WaiverAcceptance) TableName() string { return "waiver_acceptances" }

type Service interface {
	Current(ctx context.Context) (*Waiver, error)
	Accept(ctx context.Context, userID snowflake.ID) error
	HasAccepted(ctx context.Context, userID snowflake.ID) (bool, error)
}
