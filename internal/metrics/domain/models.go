// Package domain contains attendee-submitted cleanup metrics and the
// effective-value rules used by every aggregation.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"

	userdomain "github.com/trashmobeco/trashmob/internal/user/domain"
)

// ReviewStatus is the lifecycle state of a metric submission.
type ReviewStatus string

const (
	StatusPending  ReviewStatus = "pending"
	StatusApproved ReviewStatus = "approved"
	StatusRejected ReviewStatus = "rejected"
	StatusAdjusted ReviewStatus = "adjusted"
)

// WeightUnit selects the unit of a submitted weight.
type WeightUnit int

const (
	WeightUnitPounds    WeightUnit = 1
	WeightUnitKilograms WeightUnit = 2
)

// KilogramsToPounds is the fixed conversion applied before any weight is
// aggregated.
const KilogramsToPounds = 2.20462

// MetricSubmission is one attendee's self-reported contribution for one
// event. At most one submission exists per (event, user) pair; a reviewed
// submission can no longer be resubmitted.
type MetricSubmission struct {
	ID      snowflake.ID `gorm:"primaryKey" json:"id"`
	EventID snowflake.ID `gorm:"not null;index" json:"event_id"`

	// UserID becomes the anonymous sentinel when the submitter deletes
	// their account; the numeric fields below are left untouched.
	UserID snowflake.ID `gorm:"not null;index" json:"user_id"`

	BagsCollected   *int       `gorm:"" json:"bags_collected,omitempty"`
	PickedWeight    *float64   `gorm:"" json:"picked_weight,omitempty"`
	WeightUnit      WeightUnit `gorm:"not null;default:1" json:"weight_unit"`
	DurationMinutes *int       `gorm:"" json:"duration_minutes,omitempty"`

	Status ReviewStatus `gorm:"type:text;not null;default:pending" json:"status"`

	// Reviewer overrides; authoritative over the original fields once the
	// status is adjusted.
	AdjustedBags       *int        `gorm:"" json:"adjusted_bags,omitempty"`
	AdjustedWeight     *float64    `gorm:"" json:"adjusted_weight,omitempty"`
	AdjustedWeightUnit *WeightUnit `gorm:"" json:"adjusted_weight_unit,omitempty"`
	AdjustedDuration   *int        `gorm:"" json:"adjusted_duration,omitempty"`

	RejectionReason  *string       `gorm:"type:text" json:"rejection_reason,omitempty"`
	AdjustmentReason *string       `gorm:"type:text" json:"adjustment_reason,omitempty"`
	ReviewedByID     *snowflake.ID `gorm:"" json:"-"`
	ReviewedAt       *time.Time    `gorm:"" json:"reviewed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (MetricSubmission) TableName() string { return "metric_submissions" }

// IsAnonymized reports whether the submitter's account has been deleted.
func (m MetricSubmission) IsAnonymized() bool {
	return m.UserID == userdomain.AnonymousID
}

// CountsTowardTotals reports whether the submission contributes to numeric
// sums. Pending and rejected submissions are counted but never summed.
func (m MetricSubmission) CountsTowardTotals() bool {
	return m.Status == StatusApproved || m.Status == StatusAdjusted
}

// EffectiveBags returns the adjusted bag count when the submission is
// adjusted and the override is set, otherwise the original value. Missing
// values are zero.
func (m MetricSubmission) EffectiveBags() int {
	if m.Status == StatusAdjusted && m.AdjustedBags != nil {
		return *m.AdjustedBags
	}
	if m.BagsCollected != nil {
		return *m.BagsCollected
	}
	return 0
}

// EffectiveWeightPounds returns the effective weight normalized to pounds.
// Each adjusted field stands on its own: a unit correction without a new
// weight value still applies to the original weight.
func (m MetricSubmission) EffectiveWeightPounds() float64 {
	unit := m.WeightUnit
	if m.Status == StatusAdjusted && m.AdjustedWeightUnit != nil {
		unit = *m.AdjustedWeightUnit
	}
	if m.Status == StatusAdjusted && m.AdjustedWeight != nil {
		return toPounds(*m.AdjustedWeight, unit)
	}
	if m.PickedWeight != nil {
		return toPounds(*m.PickedWeight, unit)
	}
	return 0
}

// EffectiveDuration returns the effective duration in minutes.
func (m MetricSubmission) EffectiveDuration() int {
	if m.Status == StatusAdjusted && m.AdjustedDuration != nil {
		return *m.AdjustedDuration
	}
	if m.DurationMinutes != nil {
		return *m.DurationMinutes
	}
	return 0
}

func toPounds(weight float64, unit WeightUnit) float64 {
	if unit == WeightUnitKilograms {
		return weight * KilogramsToPounds
	}
	return weight
}
