// Package seed bootstraps default records for a fresh database.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	partnerdomain "github.com/trashmobeco/trashmob/internal/partner/domain"
	waiverdomain "github.com/trashmobeco/trashmob/internal/waiver/domain"
)

const (
	defaultPartnerName = "TrashMob"
	defaultWaiverText  = "I volunteer at my own risk and release TrashMob and event hosts from liability."
)

// EnsureDefaults seeds the default partner and an initial waiver version.
func EnsureDefaults(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureDefaultPartner(ctx, tx, node); err != nil {
			return err
		}
		return ensureInitialWaiver(ctx, tx, node)
	})
}

func ensureDefaultPartner(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	var existing partnerdomain.Partner
	err := tx.WithContext(ctx).
		Where("name = ?", defaultPartnerName).
		Limit(1).
		Find(&existing).Error
	if err != nil {
		return err
	}
	if existing.ID != 0 {
		return nil
	}

	now := time.Now().UTC()
	return tx.WithContext(ctx).Create(&partnerdomain.Partner{
		ID:        node.Generate(),
		Name:      defaultPartnerName,
		Website:   "https://www.trashmob.eco",
		CreatedAt: now,
		UpdatedAt: now,
	}).Error
}

func ensureInitialWaiver(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	var existing waiverdomain.Waiver
	err := tx.WithContext(ctx).Limit(1).Find(&existing).Error
	if err != nil {
		return err
	}
	if existing.ID != 0 {
		return nil
	}

	now := time.Now().UTC()
	return tx.WithContext(ctx).Create(&waiverdomain.Waiver{
		ID:          node.Generate(),
		Version:     "1.0",
		Text:        defaultWaiverText,
		EffectiveAt: now,
		CreatedAt:   now,
	}).Error
}
