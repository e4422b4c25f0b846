package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/trashmobeco/trashmob/internal/cache"
	partnerdomain "github.com/trashmobeco/trashmob/internal/partner/domain"
	"github.com/trashmobeco/trashmob/pkg/repository"
)

const partnerCacheTTL = 30 * time.Second

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID       *snowflake.Node
	partnerrepo repository.Repository[partnerdomain.Partner]
	lookupCache cache.Cache[snowflake.ID, *partnerdomain.Partner]
}

func NewService(p ServiceParam) partnerdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("partner.service"),

		genID:       p.GenID,
		partnerrepo: repository.ProvideStore[partnerdomain.Partner](p.DB),
		lookupCache: cache.NewTTL[snowflake.ID, *partnerdomain.Partner](partnerCacheTTL),
	}
}

func (s *Service) Create(ctx context.Context, req partnerdomain.CreatePartnerRequest) (*partnerdomain.Partner, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, partnerdomain.ErrInvalidName
	}

	record := &partnerdomain.Partner{
		ID:        s.genID.Generate(),
		Name:      name,
		Website:   strings.TrimSpace(req.Website),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if req.Bounds != nil && req.Bounds.Valid() {
		north, south := req.Bounds.North, req.Bounds.South
		east, west := req.Bounds.East, req.Bounds.West
		record.BoundsNorth = &north
		record.BoundsSouth = &south
		record.BoundsEast = &east
		record.BoundsWest = &west
	}

	if err := s.partnerrepo.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*partnerdomain.Partner, error) {
	if cached, ok := s.lookupCache.Get(id); ok {
		return cached, nil
	}

	record, err := s.partnerrepo.Get(ctx, &partnerdomain.Partner{ID: id})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, partnerdomain.ErrPartnerNotFound
	}

	s.lookupCache.Set(id, record)
	return record, nil
}

func (s *Service) List(ctx context.Context) ([]partnerdomain.Partner, error) {
	items, err := s.partnerrepo.Find(ctx, &partnerdomain.Partner{})
	if err != nil {
		return nil, err
	}
	records := make([]partnerdomain.Partner, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		records = append(records, *item)
	}
	return records, nil
}
