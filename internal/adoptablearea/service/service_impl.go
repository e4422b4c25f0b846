package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	areadomain "github.com/trashmobeco/trashmob/internal/adoptablearea/domain"
	"github.com/trashmobeco/trashmob/pkg/repository"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	arearepo repository.Repository[areadomain.AdoptableArea]
}

func NewService(p ServiceParam) areadomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("adoptablearea.service"),

		genID:    p.GenID,
		arearepo: repository.ProvideStore[areadomain.AdoptableArea](p.DB),
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*areadomain.AdoptableArea, error) {
	record, err := s.arearepo.Get(ctx, &areadomain.AdoptableArea{ID: id})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, areadomain.ErrAreaNotFound
	}
	return record, nil
}

func (s *Service) ListByPartner(ctx context.Context, partnerID snowflake.ID) ([]areadomain.AdoptableArea, error) {
	items, err := s.arearepo.Find(ctx, &areadomain.AdoptableArea{PartnerID: partnerID})
	if err != nil {
		return nil, err
	}
	records := make([]areadomain.AdoptableArea, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		records = append(records, *item)
	}
	return records, nil
}

func (s *Service) RefsByPartner(ctx context.Context, partnerID snowflake.ID) ([]areadomain.AreaRef, error) {
	var refs []areadomain.AreaRef
	err := s.db.WithContext(ctx).Raw(
		`SELECT name, latitude, longitude
		 FROM adoptable_areas
		 WHERE partner_id = ?
		 ORDER BY id`,
		partnerID,
	).Scan(&refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}

func (s *Service) Create(ctx context.Context, area *areadomain.AdoptableArea) error {
	if area.ID == 0 {
		area.ID = s.genID.Generate()
	}
	now := time.Now().UTC()
	if area.CreatedAt.IsZero() {
		area.CreatedAt = now
	}
	area.UpdatedAt = now
	return s.arearepo.Create(ctx, area)
}
