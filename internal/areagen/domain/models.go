// Package domain contains area generation batches and staged candidate
// areas awaiting human review.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// BatchStatus is the pipeline state of a generation batch. Complete, Failed,
// and Cancelled are terminal.
type BatchStatus string

const (
	BatchDiscovering BatchStatus = "discovering"
	BatchProcessing  BatchStatus = "processing"
	BatchComplete    BatchStatus = "complete"
	BatchFailed      BatchStatus = "failed"
	BatchCancelled   BatchStatus = "cancelled"
)

// Terminal reports whether the status is final.
func (s BatchStatus) Terminal() bool {
	return s == BatchComplete || s == BatchFailed || s == BatchCancelled
}

// Area categories accepted by the pipeline.
const (
	CategorySchool   = "school"
	CategoryPark     = "park"
	CategoryTrail    = "trail"
	CategoryWaterway = "waterway"
)

// Area types assigned to staged candidates; unrecognized categories map to
// the generic spot type.
const (
	AreaTypeSchool   = "school"
	AreaTypePark     = "park"
	AreaTypeTrail    = "trail"
	AreaTypeWaterway = "waterway"
	AreaTypeSpot     = "spot"
)

// Confidence is a coarse quality label for a discovered feature.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// StagedStatus is the review state of a staged area.
type StagedStatus string

const (
	StagedPending  StagedStatus = "pending"
	StagedApproved StagedStatus = "approved"
	StagedRejected StagedStatus = "rejected"
)

// AreaGenerationBatch is one run of the area discovery pipeline for a
// partner.
type AreaGenerationBatch struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	PartnerID snowflake.ID `gorm:"not null;index" json:"partner_id"`
	Category  string       `gorm:"type:text;not null" json:"category"`

	// Explicit bounds; when absent the partner's configured bounds apply.
	BoundsNorth *float64 `gorm:"" json:"bounds_north,omitempty"`
	BoundsSouth *float64 `gorm:"" json:"bounds_south,omitempty"`
	BoundsEast  *float64 `gorm:"" json:"bounds_east,omitempty"`
	BoundsWest  *float64 `gorm:"" json:"bounds_west,omitempty"`

	Status BatchStatus `gorm:"type:text;not null;default:discovering" json:"status"`

	DiscoveredCount int `gorm:"not null;default:0" json:"discovered_count"`
	ProcessedCount  int `gorm:"not null;default:0" json:"processed_count"`
	SkippedCount    int `gorm:"not null;default:0" json:"skipped_count"`
	StagedCount     int `gorm:"not null;default:0" json:"staged_count"`
	ApprovedCount   int `gorm:"not null;default:0" json:"approved_count"`
	RejectedCount   int `gorm:"not null;default:0" json:"rejected_count"`
	CreatedCount    int `gorm:"not null;default:0" json:"created_count"`

	ErrorMessage *string      `gorm:"type:text" json:"error_message,omitempty"`
	CreatedByID  snowflake.ID `gorm:"not null" json:"-"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CompletedAt  *time.Time   `gorm:"" json:"completed_at,omitempty"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (AreaGenerationBatch) TableName() string { return "area_generation_batches" }

// StagedAdoptableArea is one candidate produced by a batch, awaiting human
// approval before materialization into a permanent adoptable area.
type StagedAdoptableArea struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	BatchID   snowflake.ID `gorm:"not null;index" json:"batch_id"`
	PartnerID snowflake.ID `gorm:"not null;index" json:"partner_id"`

	Name        string `gorm:"type:text;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	AreaType    string `gorm:"type:text;not null" json:"area_type"`

	Geometry  string  `gorm:"type:text" json:"geometry"`
	Latitude  float64 `gorm:"not null;default:0" json:"latitude"`
	Longitude float64 `gorm:"not null;default:0" json:"longitude"`

	Status     StagedStatus `gorm:"type:text;not null;default:pending" json:"status"`
	Confidence Confidence   `gorm:"type:text;not null" json:"confidence"`

	// The duplicate flag records the matched existing area for operator
	// review; it never silently drops the candidate.
	IsDuplicate     bool    `gorm:"not null;default:false" json:"is_duplicate"`
	DuplicateOfName *string `gorm:"type:text" json:"duplicate_of_name,omitempty"`

	SourceRef      string        `gorm:"type:text" json:"source_ref"`
	ReviewedByID   *snowflake.ID `gorm:"" json:"-"`
	ReviewedAt     *time.Time    `gorm:"" json:"reviewed_at,omitempty"`
	MaterializedAt *time.Time    `gorm:"" json:"materialized_at,omitempty"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (StagedAdoptableArea) TableName() string { return "staged_adoptable_areas" }

// AreaTypeForCategory maps a batch category onto the staged area type.
func AreaTypeForCategory(category string) string {
	switch category {
	case CategorySchool:
		return AreaTypeSchool
	case CategoryPark:
		return AreaTypePark
	case CategoryTrail:
		return AreaTypeTrail
	case CategoryWaterway:
		return AreaTypeWaterway
	default:
		return AreaTypeSpot
	}
}
