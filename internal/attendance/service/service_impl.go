package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	attendancedomain "github.com/trashmobeco/trashmob/internal/attendance/domain"
	eventdomain "github.com/trashmobeco/trashmob/internal/event/domain"
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

	genID        *snowflake.Node
	attendeerepo repository.Repository[attendancedomain.EventAttendee]
}

func NewService(p ServiceParam) attendancedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("attendance.service"),

		genID:        p.GenID,
		attendeerepo: repository.ProvideStore[attendancedomain.EventAttendee](p.DB),
	}
}

func (s *Service) Register(ctx context.Context, eventID, userID snowflake.ID) error {
	existing, err := s.attendeerepo.Get(ctx, &attendancedomain.EventAttendee{EventID: eventID, UserID: userID})
	if err != nil {
		return err
	}
	if existing != nil {
		return attendancedomain.ErrAlreadyRegistered
	}

	return s.attendeerepo.Create(ctx, &attendancedomain.EventAttendee{
		ID:         s.genID.Generate(),
		EventID:    eventID,
		UserID:     userID,
		SignedUpAt: time.Now().UTC(),
		CreatedAt:  time.Now().UTC(),
	})
}

func (s *Service) Unregister(ctx context.Context, eventID, userID snowflake.ID) error {
	existing, err := s.attendeerepo.Get(ctx, &attendancedomain.EventAttendee{EventID: eventID, UserID: userID})
	if err != nil {
		return err
	}
	if existing == nil {
		return attendancedomain.ErrNotRegistered
	}
	return s.attendeerepo.Delete(ctx, &attendancedomain.EventAttendee{EventID: eventID, UserID: userID})
}

func (s *Service) IsAttendee(ctx context.Context, eventID, userID snowflake.ID) (bool, error) {
	existing, err := s.attendeerepo.Get(ctx, &attendancedomain.EventAttendee{EventID: eventID, UserID: userID})
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

func (s *Service) EventsForUser(ctx context.Context, userID snowflake.ID, futureOnly bool) ([]eventdomain.Event, error) {
	query := s.db.WithContext(ctx).
		Table("events").
		Select("events.*").
		Joins("JOIN event_attendees ON event_attendees.event_id = events.id").
		Where("event_attendees.user_id = ?", userID)
	if futureOnly {
		query = query.Where("events.ends_at >= ?", time.Now().UTC())
	}

	var events []eventdomain.Event
	if err := query.Order("events.starts_at ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
