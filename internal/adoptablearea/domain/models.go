// Package domain contains permanent adoptable area records. These are the
// materialization target of approved staged areas and the reference set for
// pipeline duplicate detection.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var ErrAreaNotFound = errors.New("adoptable_area_not_found")

// AdoptableArea is a location a partner offers for recurring adoption.
type AdoptableArea struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	PartnerID   snowflake.ID `gorm:"not null;index" json:"partner_id"`
	Name        string       `gorm:"type:text;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	AreaType    string       `gorm:"type:text;not null" json:"area_type"`

	// Geometry is raw GeoJSON text; the backend never interprets it beyond
	// storage and the center coordinates alongside it.
	Geometry  string  `gorm:"type:text" json:"geometry"`
	Latitude  float64 `gorm:"not null;default:0" json:"latitude"`
	Longitude float64 `gorm:"not null;default:0" json:"longitude"`

	SourceRef   string       `gorm:"type:text" json:"source_ref"`
	CreatedByID snowflake.ID `gorm:"not null" json:"-"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (AdoptableArea) TableName() string { return "adoptable_areas" }

// AreaRef is the flattened (name, center) view used for duplicate scans.
type AreaRef struct {
	Name      string
	Latitude  float64
	Longitude float64
}

type Service interface {
	Get(ctx context.Context, id snowflake.ID) (*AdoptableArea, error)
	ListByPartner(ctx context.Context, partnerID snowflake.ID) ([]AdoptableArea, error)
	// RefsByPartner returns the per-partner duplicate-scan list. Partner
	// area counts are small, so a full scan is acceptable.
	RefsByPartner(ctx context.Context, partnerID snowflake.ID) ([]AreaRef, error)
	Create(ctx context.Context, area *AdoptableArea) error
}
