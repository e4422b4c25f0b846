package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrSubmissionNotFound = errors.New("submission_not_found")
	ErrNotPending         = errors.New("only pending submissions can be reviewed or adjusted")
	ErrReasonRequired     = errors.New("reason_required")
)

// SubmitCode classifies the outcome of a metric submission attempt.
// Business-rule failures are values, not errors.
type SubmitCode int

const (
	SubmitOK SubmitCode = iota
	SubmitEventNotFound
	SubmitNotAttendee
	SubmitAlreadyReviewed
)

// SubmitResult reports the outcome of SubmitMetrics.
type SubmitResult struct {
	Code       SubmitCode
	Message    string
	Submission *MetricSubmission
}

// OK reports whether the submission was accepted.
func (r SubmitResult) OK() bool { return r.Code == SubmitOK }

// MetricValues are the attendee-entered numbers.
type MetricValues struct {
	BagsCollected   *int
	PickedWeight    *float64
	WeightUnit      WeightUnit
	DurationMinutes *int
}

// SubmitRequest submits or resubmits metrics for one (event, user) pair.
type SubmitRequest struct {
	EventID snowflake.ID
	UserID  snowflake.ID
	Values  MetricValues
}

// ReviewRequest targets a single pending submission.
type ReviewRequest struct {
	SubmissionID snowflake.ID
	ReviewerID   snowflake.ID
	Reason       string
}

// AdjustRequest replaces selected numeric fields; unset overrides fall back
// to the original values under the effective-value rule.
type AdjustRequest struct {
	SubmissionID     snowflake.ID
	ReviewerID       snowflake.ID
	Reason           string
	AdjustedBags     *int
	AdjustedWeight   *float64
	AdjustedUnit     *WeightUnit
	AdjustedDuration *int
}

// EventTotals is the full per-event rollup, including submissions that do
// not contribute numerically.
type EventTotals struct {
	TotalSubmissions    int `json:"total_submissions"`
	ApprovedSubmissions int `json:"approved_submissions"`
	PendingSubmissions  int `json:"pending_submissions"`
	RejectedSubmissions int `json:"rejected_submissions"`
	AdjustedSubmissions int `json:"adjusted_submissions"`

	TotalBagsCollected   int     `json:"total_bags_collected"`
	TotalWeightPounds    float64 `json:"total_weight_pounds"`
	TotalDurationMinutes int     `json:"total_duration_minutes"`
}

// Contributor is one named line of the public summary.
type Contributor struct {
	DisplayName     string  `json:"display_name"`
	BagsCollected   int     `json:"bags_collected"`
	WeightPounds    float64 `json:"weight_pounds"`
	DurationMinutes int     `json:"duration_minutes"`
}

// PublicSummary is the outward-facing event rollup. Anonymized submissions
// are included in the totals but never listed as contributors.
type PublicSummary struct {
	EventTotals
	Contributors []Contributor `json:"contributors"`
}

// EventImpact is one event's share of a user's impact stats.
type EventImpact struct {
	EventID         snowflake.ID `json:"event_id"`
	BagsCollected   int          `json:"bags_collected"`
	WeightPounds    float64      `json:"weight_pounds"`
	DurationMinutes int          `json:"duration_minutes"`
}

// UserImpactStats aggregates a user's approved and adjusted submissions.
type UserImpactStats struct {
	EventsWithMetrics    int           `json:"events_with_metrics"`
	TotalBagsCollected   int           `json:"total_bags_collected"`
	TotalWeightPounds    float64       `json:"total_weight_pounds"`
	TotalDurationMinutes int           `json:"total_duration_minutes"`
	Events               []EventImpact `json:"events"`
}

// Service covers submission, review, and read-side aggregation of cleanup
// metrics.
type Service interface {
	SubmitMetrics(ctx context.Context, req SubmitRequest) (SubmitResult, error)
	Approve(ctx context.Context, req ReviewRequest) error
	Reject(ctx context.Context, req ReviewRequest) error
	Adjust(ctx context.Context, req AdjustRequest) error
	ApproveAllPending(ctx context.Context, eventID, reviewerID snowflake.ID) (int, error)

	ComputeEventTotals(ctx context.Context, eventID snowflake.ID) (EventTotals, error)
	ComputePublicSummary(ctx context.Context, eventID snowflake.ID) (PublicSummary, error)
	ComputeUserImpactStats(ctx context.Context, userID snowflake.ID) (UserImpactStats, error)
}
