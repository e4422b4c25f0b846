package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	areadomain "github.com/trashmobeco/trashmob/internal/adoptablearea/domain"
	areagendomain "github.com/trashmobeco/trashmob/internal/areagen/domain"
	"github.com/trashmobeco/trashmob/internal/clock"
	"github.com/trashmobeco/trashmob/internal/config"
	"github.com/trashmobeco/trashmob/internal/events"
	"github.com/trashmobeco/trashmob/internal/geo"
	"github.com/trashmobeco/trashmob/internal/observability/metrics"
	partnerdomain "github.com/trashmobeco/trashmob/internal/partner/domain"
	"github.com/trashmobeco/trashmob/pkg/repository"
)

type OrchestratorParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Config     config.Config
	Searcher   areagendomain.Searcher
	PartnerSvc partnerdomain.Service
	AreaSvc    areadomain.Service
	Outbox     *events.Outbox      `optional:"true"`
	Metrics    *metrics.AppMetrics `optional:"true"`
}

// Orchestrator runs batches sequentially: discover, process each feature in
// collaborator order, stage candidates, then settle into a terminal state.
type Orchestrator struct {
	db  *gorm.DB
	log *zap.Logger

	genID      *snowflake.Node
	clock      clock.Clock
	cfg        config.Config
	searcher   areagendomain.Searcher
	partnerSvc partnerdomain.Service
	areaSvc    areadomain.Service
	batchrepo  repository.Repository[areagendomain.AreaGenerationBatch]
	stagedrepo repository.Repository[areagendomain.StagedAdoptableArea]
	outbox     *events.Outbox
	metrics    *metrics.AppMetrics

	mu      sync.Mutex
	running map[snowflake.ID]context.CancelFunc
}

func NewOrchestrator(p OrchestratorParam) areagendomain.Orchestrator {
	return &Orchestrator{
		db:  p.DB,
		log: p.Log.Named("areagen.orchestrator"),

		genID:      p.GenID,
		clock:      p.Clock,
		cfg:        p.Config,
		searcher:   p.Searcher,
		partnerSvc: p.PartnerSvc,
		areaSvc:    p.AreaSvc,
		batchrepo:  repository.ProvideStore[areagendomain.AreaGenerationBatch](p.DB),
		stagedrepo: repository.ProvideStore[areagendomain.StagedAdoptableArea](p.DB),
		outbox:     p.Outbox,
		metrics:    p.Metrics,
		running:    make(map[snowflake.ID]context.CancelFunc),
	}
}

// Cancel requests cooperative cancellation; the running batch notices at its
// next feature boundary.
func (o *Orchestrator) Cancel(batchID snowflake.ID) bool {
	o.mu.Lock()
	cancel, ok := o.running[batchID]
	o.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// RunBatch drives one batch to a terminal state. A missing batch is a no-op;
// every other fault lands on the batch record as a failed status.
func (o *Orchestrator) RunBatch(ctx context.Context, batchID snowflake.ID) {
	batch, err := o.batchrepo.Get(ctx, &areagendomain.AreaGenerationBatch{ID: batchID})
	if err != nil || batch == nil {
		o.log.Warn("batch not found, nothing to run",
			zap.String("batch_id", batchID.String()),
			zap.Error(err),
		)
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.running[batchID] = cancel
	active := len(o.running)
	o.mu.Unlock()
	if o.metrics != nil {
		o.metrics.SetActiveBatches(float64(active))
	}
	defer func() {
		cancel()
		o.mu.Lock()
		delete(o.running, batchID)
		active := len(o.running)
		o.mu.Unlock()
		if o.metrics != nil {
			o.metrics.SetActiveBatches(float64(active))
		}
	}()

	cancelled, err := o.run(runCtx, batch)
	switch {
	case cancelled:
		o.finish(batch, areagendomain.BatchCancelled, nil)
	case err != nil:
		o.log.Error("area generation batch failed",
			zap.String("batch_id", batch.ID.String()),
			zap.Error(err),
		)
		message := truncate(err.Error(), o.errorLimit())
		o.finish(batch, areagendomain.BatchFailed, &message)
	default:
		o.finish(batch, areagendomain.BatchComplete, nil)
	}
}

// run executes discovery and per-feature processing. It returns cancelled
// true when the loop stopped on the cooperative signal.
func (o *Orchestrator) run(ctx context.Context, batch *areagendomain.AreaGenerationBatch) (bool, error) {
	bounds, err := o.resolveBounds(ctx, batch)
	if err != nil {
		return false, err
	}

	features, err := o.searcher.Discover(ctx, batch.Category, bounds)
	if err != nil {
		return false, fmt.Errorf("discover features: %w", err)
	}

	batch.DiscoveredCount = len(features)
	if len(features) == 0 {
		// Nothing to process; the batch goes straight to complete.
		return false, nil
	}

	batch.Status = areagendomain.BatchProcessing
	if err := o.persistBatch(ctx, batch); err != nil {
		return false, err
	}

	existing, err := o.areaSvc.RefsByPartner(ctx, batch.PartnerID)
	if err != nil {
		return false, fmt.Errorf("load existing areas: %w", err)
	}

	for _, feature := range features {
		select {
		case <-ctx.Done():
			// Remaining features are never processed.
			return true, nil
		default:
		}

		batch.ProcessedCount++
		if o.metrics != nil {
			o.metrics.IncFeatureProcessed()
		}

		name := strings.TrimSpace(feature.Name)
		if feature.Geometry == "" || name == "" {
			batch.SkippedCount++
			if err := o.persistBatch(ctx, batch); err != nil {
				return false, err
			}
			continue
		}

		staged := o.buildStaged(batch, feature, name, existing)
		if err := o.stagedrepo.Create(ctx, staged); err != nil {
			return false, fmt.Errorf("stage area %q: %w", name, err)
		}
		batch.StagedCount++
		if o.metrics != nil {
			o.metrics.IncAreaStaged()
		}

		// Counters are persisted after every feature so a poller sees
		// monotonically increasing progress mid-run.
		if err := o.persistBatch(ctx, batch); err != nil {
			return false, err
		}
	}

	return false, nil
}

// resolveBounds prefers the batch's explicit bounds and falls back to the
// partner's configured bounds.
func (o *Orchestrator) resolveBounds(ctx context.Context, batch *areagendomain.AreaGenerationBatch) (geo.Bounds, error) {
	if batch.BoundsNorth != nil && batch.BoundsSouth != nil && batch.BoundsEast != nil && batch.BoundsWest != nil {
		bounds := geo.Bounds{
			North: *batch.BoundsNorth,
			South: *batch.BoundsSouth,
			East:  *batch.BoundsEast,
			West:  *batch.BoundsWest,
		}
		if bounds.Valid() {
			return bounds, nil
		}
	}

	partner, err := o.partnerSvc.Get(ctx, batch.PartnerID)
	if err != nil {
		return geo.Bounds{}, err
	}
	if bounds, ok := partner.Bounds(); ok {
		return bounds, nil
	}

	return geo.Bounds{}, areagendomain.ErrMissingBounds
}

func (o *Orchestrator) buildStaged(
	batch *areagendomain.AreaGenerationBatch,
	feature areagendomain.DiscoveredFeature,
	name string,
	existing []areadomain.AreaRef,
) *areagendomain.StagedAdoptableArea {
	now := o.clock.Now()
	staged := &areagendomain.StagedAdoptableArea{
		ID:         o.genID.Generate(),
		BatchID:    batch.ID,
		PartnerID:  batch.PartnerID,
		Name:       name,
		AreaType:   areagendomain.AreaTypeForCategory(batch.Category),
		Geometry:   feature.Geometry,
		Latitude:   feature.Latitude,
		Longitude:  feature.Longitude,
		Status:     areagendomain.StagedPending,
		Confidence: confidenceFor(name, feature),
		SourceRef:  feature.SourceRef,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if match, ok := o.findDuplicate(name, feature, existing); ok {
		staged.IsDuplicate = true
		staged.DuplicateOfName = &match
	}

	return staged
}

// findDuplicate scans the pre-loaded existing areas in order; the first
// match wins. A match is a case-insensitive substring relation between the
// names in either direction, or center proximity under the configured
// radius when the existing area has non-zero stored coordinates.
func (o *Orchestrator) findDuplicate(name string, feature areagendomain.DiscoveredFeature, existing []areadomain.AreaRef) (string, bool) {
	radius := o.cfg.Pipeline.DuplicateRadiusMeters
	if radius <= 0 {
		radius = 100
	}

	lower := strings.ToLower(name)
	for _, ref := range existing {
		refLower := strings.ToLower(strings.TrimSpace(ref.Name))
		if refLower != "" &&
			(strings.Contains(lower, refLower) || strings.Contains(refLower, lower)) {
			return ref.Name, true
		}
		if ref.Latitude != 0 || ref.Longitude != 0 {
			if geo.HaversineMeters(feature.Latitude, feature.Longitude, ref.Latitude, ref.Longitude) < radius {
				return ref.Name, true
			}
		}
	}
	return "", false
}

// finish records the terminal transition; counter/state persistence errors
// at this point are logged and dropped since there is nowhere left to store
// them.
func (o *Orchestrator) finish(batch *areagendomain.AreaGenerationBatch, status areagendomain.BatchStatus, message *string) {
	now := o.clock.Now()
	batch.Status = status
	batch.ErrorMessage = message
	batch.CompletedAt = &now
	batch.UpdatedAt = now

	// A fresh context: the run context may already be cancelled.
	if err := o.batchrepo.Save(context.Background(), batch); err != nil {
		o.log.Error("failed to persist terminal batch state",
			zap.String("batch_id", batch.ID.String()),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return
	}

	if o.metrics != nil {
		o.metrics.IncBatchTerminal(string(status))
	}
	if o.outbox != nil {
		eventType := events.EventBatchCompleted
		switch status {
		case areagendomain.BatchFailed:
			eventType = events.EventBatchFailed
		case areagendomain.BatchCancelled:
			eventType = events.EventBatchCancelled
		}
		_ = o.outbox.Publish(context.Background(), events.Event{
			PartnerID: batch.PartnerID,
			Type:      eventType,
			Payload: events.BatchTerminalPayload{
				BatchID:     batch.ID.String(),
				PartnerID:   batch.PartnerID.String(),
				Status:      string(status),
				StagedCount: batch.StagedCount,
			}.ToMap(),
			DedupeKey: eventType + ":" + batch.ID.String(),
		})
	}

	o.log.Info("area generation batch finished",
		zap.String("batch_id", batch.ID.String()),
		zap.String("status", string(status)),
		zap.Int("discovered", batch.DiscoveredCount),
		zap.Int("staged", batch.StagedCount),
		zap.Int("skipped", batch.SkippedCount),
	)
}

func (o *Orchestrator) persistBatch(ctx context.Context, batch *areagendomain.AreaGenerationBatch) error {
	batch.UpdatedAt = o.clock.Now()
	return o.batchrepo.Save(ctx, batch)
}

func (o *Orchestrator) errorLimit() int {
	if o.cfg.Pipeline.ErrorMessageLimit > 0 {
		return o.cfg.Pipeline.ErrorMessageLimit
	}
	return 4000
}

func confidenceFor(name string, feature areagendomain.DiscoveredFeature) areagendomain.Confidence {
	switch {
	case name != "" && feature.HasPolygon():
		return areagendomain.ConfidenceHigh
	case name != "":
		return areagendomain.ConfidenceMedium
	default:
		return areagendomain.ConfidenceLow
	}
}

func truncate(message string, limit int) string {
	if limit <= 0 || len(message) <= limit {
		return message
	}
	return message[:limit]
}
