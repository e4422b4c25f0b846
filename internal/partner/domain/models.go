// Package domain contains partner records and their configured service bounds.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/trashmobeco/trashmob/internal/geo"
)

var (
	ErrPartnerNotFound = errors.New("partner_not_found")
	ErrInvalidName     = errors.New("invalid_partner_name")
)

// Partner is a community organization that adopts and maintains areas.
type Partner struct {
	ID      snowflake.ID `gorm:"primaryKey" json:"id"`
	Name    string       `gorm:"type:text;not null" json:"name"`
	Website string       `gorm:"type:text" json:"website"`

	// Configured service area, used as the fallback bounding box for
	// area generation when a batch does not carry explicit bounds.
	BoundsNorth *float64 `gorm:"" json:"bounds_north,omitempty"`
	BoundsSouth *float64 `gorm:"" json:"bounds_south,omitempty"`
	BoundsEast  *float64 `gorm:"" json:"bounds_east,omitempty"`
	BoundsWest  *float64 `gorm:"" json:"bounds_west,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (Partner) TableName() string { return "partners" }

// Bounds returns the configured bounding box, if one is fully set.
func (p Partner) Bounds() (geo.Bounds, bool) {
	if p.BoundsNorth == nil || p.BoundsSouth == nil || p.BoundsEast == nil || p.BoundsWest == nil {
		return geo.Bounds{}, false
	}
	bounds := geo.Bounds{
		North: *p.BoundsNorth,
		South: *p.BoundsSouth,
		East:  *p.BoundsEast,
		West:  *p.BoundsWest,
	}
	if !bounds.Valid() {
		return geo.Bounds{}, false
	}
	return bounds, true
}

// CreatePartnerRequest carries the fields for a new partner.
type CreatePartnerRequest struct {
	Name    string
	Website string
	Bounds  *geo.Bounds
}

type Service interface {
	Create(ctx context.Context, req CreatePartnerRequest) (*Partner, error)
	Get(ctx context.Context, id snowflake.ID) (*Partner, error)
	List(ctx context.Context) ([]Partner, error)
}
