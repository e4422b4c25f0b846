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
	eventdomain "github.com/trashmobeco/trashmob/internal/event/domain"
	"github.com/trashmobeco/trashmob/pkg/db/option"
	"github.com/trashmobeco/trashmob/pkg/db/pagination"
	"github.com/trashmobeco/trashmob/pkg/repository"
)

const existsCacheTTL = 15 * time.Second

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
	eventrepo   repository.Repository[eventdomain.Event]
	existsCache cache.Cache[snowflake.ID, bool]
}

func NewService(p ServiceParam) eventdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("event.service"),

		genID:       p.GenID,
		eventrepo:   repository.ProvideStore[eventdomain.Event](p.DB),
		existsCache: cache.NewTTL[snowflake.ID, bool](existsCacheTTL),
	}
}

func (s *Service) Create(ctx context.Context, req eventdomain.CreateEventRequest) (*eventdomain.Event, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, eventdomain.ErrInvalidName
	}
	if req.StartsAt.IsZero() || req.EndsAt.IsZero() || !req.EndsAt.After(req.StartsAt) {
		return nil, eventdomain.ErrInvalidDates
	}

	record := &eventdomain.Event{
		ID:          s.genID.Generate(),
		PartnerID:   req.PartnerID,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Status:      eventdomain.EventStatusActive,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		City:        strings.TrimSpace(req.City),
		Region:      strings.TrimSpace(req.Region),
		StartsAt:    req.StartsAt.UTC(),
		EndsAt:      req.EndsAt.UTC(),
		CreatedByID: req.CreatedByID,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.eventrepo.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*eventdomain.Event, error) {
	record, err := s.eventrepo.Get(ctx, &eventdomain.Event{ID: id})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, eventdomain.ErrEventNotFound
	}
	return record, nil
}

func (s *Service) Exists(ctx context.Context, id snowflake.ID) (bool, error) {
	if cached, ok := s.existsCache.Get(id); ok && cached {
		return true, nil
	}

	record, err := s.eventrepo.Get(ctx, &eventdomain.Event{ID: id})
	if err != nil {
		return false, err
	}
	exists := record != nil
	if exists {
		// Only positive results are cached; a missing event may be created
		// moments later.
		s.existsCache.Set(id, true)
	}
	return exists, nil
}

// List returns a page of events in creation order with an opaque cursor for
// the next page.
func (s *Service) List(ctx context.Context, page pagination.Pagination) ([]eventdomain.Event, *pagination.PageInfo, error) {
	size := page.PageSize
	if size <= 0 {
		size = pagination.DefaultPageSize
	}

	items, err := s.eventrepo.Find(ctx, &eventdomain.Event{}, option.ApplyPagination(page))
	if err != nil {
		return nil, nil, err
	}

	info := pagination.BuildCursorPageInfo(items, size, func(last *eventdomain.Event) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        last.ID.String(),
			CreatedAt: last.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	if len(items) > size {
		items = items[:size]
	}
	records := make([]eventdomain.Event, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		records = append(records, *item)
	}
	return records, info, nil
}
