package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	userdomain "github.com/trashmobeco/trashmob/internal/user/domain"
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
	userrepo repository.Repository[userdomain.User]
}

func NewService(p ServiceParam) userdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("user.service"),

		genID:    p.GenID,
		userrepo: repository.ProvideStore[userdomain.User](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req userdomain.CreateUserRequest) (*userdomain.User, error) {
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		return nil, userdomain.ErrInvalidDisplay
	}

	record := &userdomain.User{
		ID:          s.genID.Generate(),
		DisplayName: displayName,
		Email:       strings.TrimSpace(req.Email),
		City:        strings.TrimSpace(req.City),
		Region:      strings.TrimSpace(req.Region),
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.userrepo.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*userdomain.User, error) {
	if id == userdomain.AnonymousID {
		return nil, userdomain.ErrUserNotFound
	}
	record, err := s.userrepo.Get(ctx, &userdomain.User{ID: id})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, userdomain.ErrUserNotFound
	}
	return record, nil
}

// Delete removes the user and reassigns their metric submissions to the
// anonymous sentinel. The numeric contribution fields are left untouched so
// historical event totals do not change.
func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	if id == userdomain.AnonymousID {
		return userdomain.ErrUserNotFound
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&userdomain.User{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return userdomain.ErrUserNotFound
		}

		if err := tx.Exec(
			`UPDATE metric_submissions SET user_id = ?, updated_at = ? WHERE user_id = ?`,
			userdomain.AnonymousID,
			time.Now().UTC(),
			id,
		).Error; err != nil {
			return err
		}

		if err := tx.Exec(
			`DELETE FROM event_attendees WHERE user_id = ?`, id,
		).Error; err != nil {
			return err
		}

		s.log.Info("user deleted and submissions anonymized", zap.String("user_id", id.String()))
		return nil
	})
}
