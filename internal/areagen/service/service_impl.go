package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	areadomain "github.com/trashmobeco/trashmob/internal/adoptablearea/domain"
	areagendomain "github.com/trashmobeco/trashmob/internal/areagen/domain"
	"github.com/trashmobeco/trashmob/internal/clock"
	"github.com/trashmobeco/trashmob/internal/events"
	partnerdomain "github.com/trashmobeco/trashmob/internal/partner/domain"
	"github.com/trashmobeco/trashmob/pkg/repository"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	PartnerSvc partnerdomain.Service
	AreaSvc    areadomain.Service
	Outbox     *events.Outbox `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID      *snowflake.Node
	clock      clock.Clock
	partnerSvc partnerdomain.Service
	areaSvc    areadomain.Service
	batchrepo  repository.Repository[areagendomain.AreaGenerationBatch]
	stagedrepo repository.Repository[areagendomain.StagedAdoptableArea]
	outbox     *events.Outbox
}

func NewService(p ServiceParam) areagendomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("areagen.service"),

		genID:      p.GenID,
		clock:      p.Clock,
		partnerSvc: p.PartnerSvc,
		areaSvc:    p.AreaSvc,
		batchrepo:  repository.ProvideStore[areagendomain.AreaGenerationBatch](p.DB),
		stagedrepo: repository.ProvideStore[areagendomain.StagedAdoptableArea](p.DB),
		outbox:     p.Outbox,
	}
}

// StartBatch creates a new batch in the discovering state. The active-batch
// check is best effort; two callers racing past it is an accepted
// limitation.
func (s *Service) StartBatch(ctx context.Context, req areagendomain.StartBatchRequest) (*areagendomain.AreaGenerationBatch, error) {
	if _, err := s.partnerSvc.Get(ctx, req.PartnerID); err != nil {
		return nil, err
	}
	if req.Category == "" {
		return nil, areagendomain.ErrInvalidCategory
	}

	active, err := s.GetActiveBatch(ctx, req.PartnerID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, areagendomain.ErrBatchActive
	}

	now := s.clock.Now()
	batch := &areagendomain.AreaGenerationBatch{
		ID:          s.genID.Generate(),
		PartnerID:   req.PartnerID,
		Category:    req.Category,
		Status:      areagendomain.BatchDiscovering,
		CreatedByID: req.CreatedByID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Bounds != nil && req.Bounds.Valid() {
		north, south := req.Bounds.North, req.Bounds.South
		east, west := req.Bounds.East, req.Bounds.West
		batch.BoundsNorth = &north
		batch.BoundsSouth = &south
		batch.BoundsEast = &east
		batch.BoundsWest = &west
	}

	if err := s.batchrepo.Create(ctx, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *Service) GetBatch(ctx context.Context, id snowflake.ID) (*areagendomain.AreaGenerationBatch, error) {
	batch, err := s.batchrepo.Get(ctx, &areagendomain.AreaGenerationBatch{ID: id})
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, areagendomain.ErrBatchNotFound
	}
	return batch, nil
}

// GetActiveBatch returns the partner's non-terminal batch, or nil.
func (s *Service) GetActiveBatch(ctx context.Context, partnerID snowflake.ID) (*areagendomain.AreaGenerationBatch, error) {
	var batch areagendomain.AreaGenerationBatch
	err := s.db.WithContext(ctx).
		Where("partner_id = ? AND status IN ?", partnerID,
			[]areagendomain.BatchStatus{areagendomain.BatchDiscovering, areagendomain.BatchProcessing}).
		Order("created_at DESC").
		Limit(1).
		Find(&batch).Error
	if err != nil {
		return nil, err
	}
	if batch.ID == 0 {
		return nil, nil
	}
	return &batch, nil
}

func (s *Service) ListStaged(ctx context.Context, batchID snowflake.ID) ([]areagendomain.StagedAdoptableArea, error) {
	items, err := s.stagedrepo.Find(ctx, &areagendomain.StagedAdoptableArea{BatchID: batchID})
	if err != nil {
		return nil, err
	}
	records := make([]areagendomain.StagedAdoptableArea, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		records = append(records, *item)
	}
	return records, nil
}

// ReviewStaged approves or rejects one pending staged area and bumps the
// batch's review counters.
func (s *Service) ReviewStaged(ctx context.Context, req areagendomain.ReviewStagedRequest) error {
	staged, err := s.stagedrepo.Get(ctx, &areagendomain.StagedAdoptableArea{ID: req.StagedID})
	if err != nil {
		return err
	}
	if staged == nil {
		return areagendomain.ErrStagedNotFound
	}
	if staged.Status != areagendomain.StagedPending {
		return areagendomain.ErrStagedNotPending
	}

	now := s.clock.Now()
	if req.Approve {
		staged.Status = areagendomain.StagedApproved
	} else {
		staged.Status = areagendomain.StagedRejected
	}
	staged.ReviewedByID = &req.ReviewerID
	staged.ReviewedAt = &now
	staged.UpdatedAt = now

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(staged).Error; err != nil {
			return err
		}
		column := "approved_count"
		if !req.Approve {
			column = "rejected_count"
		}
		return tx.Model(&areagendomain.AreaGenerationBatch{}).
			Where("id = ?", staged.BatchID).
			UpdateColumn(column, gorm.Expr(column+" + 1")).Error
	})
}

// BulkReviewStaged reviews every pending staged area of the batch and
// returns the count affected.
func (s *Service) BulkReviewStaged(ctx context.Context, req areagendomain.BulkReviewRequest) (int, error) {
	status := areagendomain.StagedApproved
	column := "approved_count"
	if !req.Approve {
		status = areagendomain.StagedRejected
		column = "rejected_count"
	}

	now := s.clock.Now()
	var affected int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&areagendomain.StagedAdoptableArea{}).
			Where("batch_id = ? AND status = ?", req.BatchID, areagendomain.StagedPending).
			Updates(map[string]any{
				"status":         status,
				"reviewed_by_id": req.ReviewerID,
				"reviewed_at":    now,
				"updated_at":     now,
			})
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		if affected == 0 {
			return nil
		}
		return tx.Model(&areagendomain.AreaGenerationBatch{}).
			Where("id = ?", req.BatchID).
			UpdateColumn(column, gorm.Expr(column+" + ?", affected)).Error
	})
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// MaterializeApproved copies approved staged areas into permanent adoptable
// areas, skipping rows already materialized by an earlier call, and bumps
// the batch's created count.
func (s *Service) MaterializeApproved(ctx context.Context, batchID snowflake.ID) (int, error) {
	batch, err := s.GetBatch(ctx, batchID)
	if err != nil {
		return 0, err
	}

	var approved []*areagendomain.StagedAdoptableArea
	err = s.db.WithContext(ctx).
		Where("batch_id = ? AND status = ? AND materialized_at IS NULL",
			batchID, areagendomain.StagedApproved).
		Order("created_at ASC, id ASC").
		Find(&approved).Error
	if err != nil {
		return 0, err
	}

	created := 0
	for _, staged := range approved {
		if staged == nil {
			continue
		}
		area := &areadomain.AdoptableArea{
			PartnerID:   staged.PartnerID,
			Name:        staged.Name,
			Description: staged.Description,
			AreaType:    staged.AreaType,
			Geometry:    staged.Geometry,
			Latitude:    staged.Latitude,
			Longitude:   staged.Longitude,
			SourceRef:   staged.SourceRef,
			CreatedByID: batch.CreatedByID,
		}
		if err := s.areaSvc.Create(ctx, area); err != nil {
			return created, err
		}
		now := s.clock.Now()
		staged.MaterializedAt = &now
		staged.UpdatedAt = now
		if err := s.stagedrepo.Save(ctx, staged); err != nil {
			return created, err
		}
		created++
	}

	if created > 0 {
		err = s.db.WithContext(ctx).Model(&areagendomain.AreaGenerationBatch{}).
			Where("id = ?", batchID).
			UpdateColumn("created_count", gorm.Expr("created_count + ?", created)).Error
		if err != nil {
			return created, err
		}
		if s.outbox != nil {
			_ = s.outbox.Publish(ctx, events.Event{
				PartnerID: batch.PartnerID,
				Type:      events.EventAreaMaterialized,
				Payload: map[string]any{
					"batch_id": batchID.String(),
					"created":  created,
				},
				DedupeKey: events.EventAreaMaterialized + ":" + batchID.String(),
			})
		}
	}

	return created, nil
}
