package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/trashmobeco/trashmob/internal/clock"
	waiverdomain "github.com/trashmobeco/trashmob/internal/waiver/domain"
	"github.com/trashmobeco/trashmob/pkg/repository"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID          *snowflake.Node
	clock          clock.Clock
	acceptancerepo repository.Repository[waiverdomain.WaiverAcceptance]
}

func NewService(p ServiceParam) waiverdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("waiver.service"),

		genID:          p.GenID,
		clock:          p.Clock,
		acceptancerepo: repository.ProvideStore[waiverdomain.WaiverAcceptance](p.DB),
	}
}

// Current returns the newest waiver already in effect.
func (s *Service) Current(ctx context.Context) (*waiverdomain.Waiver, error) {
	var waiver waiverdomain.Waiver
	err := s.db.WithContext(ctx).
		Where("effective_at <= ?", s.clock.Now()).
		Order("effective_at DESC").
		Limit(1).
		Find(&waiver).Error
	if err != nil {
		return nil, err
	}
	if waiver.ID == 0 {
		return nil, waiverdomain.ErrNoCurrentWaiver
	}
	return &waiver, nil
}

func (s *Service) Accept(ctx context.Context, userID snowflake.ID) error {
	current, err := s.Current(ctx)
	if err != nil {
		return err
	}

	existing, err := s.acceptancerepo.Get(ctx, &waiverdomain.WaiverAcceptance{WaiverID: current.ID, UserID: userID})
	if err != nil {
		return err
	}
	if existing != nil {
		return waiverdomain.ErrAlreadyAccepted
	}

	return s.acceptancerepo.Create(ctx, &waiverdomain.WaiverAcceptance{
		ID:         s.genID.Generate(),
		WaiverID:   current.ID,
		UserID:     userID,
		AcceptedAt: s.clock.Now(),
	})
}

// HasAccepted reports whether the user accepted the current waiver version.
func (s *Service) HasAccepted(ctx context.Context, userID snowflake.ID) (bool, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return false, err
	}
	existing, err := s.acceptancerepo.Get(ctx, &waiverdomain.WaiverAcceptance{WaiverID: current.ID, UserID: userID})
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}
