package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"

	"github.com/trashmobeco/trashmob/internal/geo"
)

var (
	ErrBatchNotFound    = errors.New("batch_not_found")
	ErrBatchActive      = errors.New("partner already has an active batch")
	ErrStagedNotFound   = errors.New("staged_area_not_found")
	ErrStagedNotPending = errors.New("staged area is not pending review")
	ErrInvalidCategory  = errors.New("invalid_category")
	ErrMissingBounds    = errors.New("no bounding box on batch and no partner bounds configured")
)

// DiscoveredFeature is one candidate returned by the external search
// collaborator. Geometry is raw GeoJSON text; GeometryType is its GeoJSON
// type, used only for the confidence heuristic.
type DiscoveredFeature struct {
	Name         string
	Geometry     string
	GeometryType string
	Latitude     float64
	Longitude    float64
	SourceRef    string
}

// HasPolygon reports whether the feature carries polygon geometry.
func (f DiscoveredFeature) HasPolygon() bool {
	return f.GeometryType == "Polygon" || f.GeometryType == "MultiPolygon"
}

// Searcher is the external search/geocoding collaborator. Pagination and
// result bounding are its concern, not the pipeline's.
type Searcher interface {
	Discover(ctx context.Context, category string, bounds geo.Bounds) ([]DiscoveredFeature, error)
}

// Orchestrator drives one batch from discovering to a terminal state. All
// faults are isolated to the batch's own status; RunBatch never returns an
// error to its caller. Cancel requests cooperative cancellation of a running
// batch and reports whether one was running.
type Orchestrator interface {
	RunBatch(ctx context.Context, batchID snowflake.ID)
	Cancel(batchID snowflake.ID) bool
}

// StartBatchRequest creates a new batch for a partner.
type StartBatchRequest struct {
	PartnerID   snowflake.ID
	Category    string
	Bounds      *geo.Bounds
	CreatedByID snowflake.ID
}

// ReviewStagedRequest reviews one staged area.
type ReviewStagedRequest struct {
	StagedID   snowflake.ID
	ReviewerID snowflake.ID
	Approve    bool
}

// BulkReviewRequest reviews every pending staged area of a batch.
type BulkReviewRequest struct {
	BatchID    snowflake.ID
	ReviewerID snowflake.ID
	Approve    bool
}

// Service manages batch lifecycle bookkeeping and staged-area review. The
// active-batch guard is a best-effort lookup, not a lock.
type Service interface {
	StartBatch(ctx context.Context, req StartBatchRequest) (*AreaGenerationBatch, error)
	GetBatch(ctx context.Context, id snowflake.ID) (*AreaGenerationBatch, error)
	GetActiveBatch(ctx context.Context, partnerID snowflake.ID) (*AreaGenerationBatch, error)

	ListStaged(ctx context.Context, batchID snowflake.ID) ([]StagedAdoptableArea, error)
	ReviewStaged(ctx context.Context, req ReviewStagedRequest) error
	BulkReviewStaged(ctx context.Context, req BulkReviewRequest) (int, error)

	// MaterializeApproved copies approved staged areas into permanent
	// adoptable areas and bumps the batch's created count. Returns the
	// number materialized.
	MaterializeApproved(ctx context.Context, batchID snowflake.ID) (int, error)
}
