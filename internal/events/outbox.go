package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/trashmobeco/trashmob/internal/observability/logger"
)

// Event describes a domain event to store in the outbox.
type Event struct {
	PartnerID snowflake.ID
	Type      string
	Payload   map[string]any
	DedupeKey string
}

// Outbox inserts domain events into the domain_events table.
type Outbox struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewOutbox(db *gorm.DB, log *zap.Logger, genID *snowflake.Node) *Outbox {
	return &Outbox{db: db, log: log.Named("events.outbox"), genID: genID}
}

// Publish stores an event using the default database connection.
func (o *Outbox) Publish(ctx context.Context, event Event) error {
	return o.publish(ctx, o.db, event)
}

// PublishTx stores an event using an existing transaction.
func (o *Outbox) PublishTx(ctx context.Context, tx *gorm.DB, event Event) error {
	if tx == nil {
		return errors.New("missing_transaction")
	}
	return o.publish(ctx, tx, event)
}

func (o *Outbox) publish(ctx context.Context, db *gorm.DB, event Event) error {
	if o == nil || db == nil || o.genID == nil {
		return errors.New("outbox_unavailable")
	}
	name := strings.TrimSpace(event.Type)
	if name == "" {
		return errors.New("missing_event_type")
	}

	payload := datatypes.JSONMap{}
	for key, value := range event.Payload {
		if strings.TrimSpace(key) == "" {
			continue
		}
		payload[key] = value
	}

	dedupe := strings.TrimSpace(event.DedupeKey)
	var dedupeValue any
	if dedupe != "" {
		dedupeValue = dedupe
	}

	now := time.Now().UTC()
	err := db.WithContext(ctx).Exec(
		`INSERT INTO domain_events (id, partner_id, event_type, payload, dedupe_key, published, created_at)
		 VALUES (?, ?, ?, ?, ?, false, ?)
		 ON CONFLICT (dedupe_key) DO NOTHING`,
		o.genID.Generate(),
		event.PartnerID,
		name,
		payload,
		dedupeValue,
		now,
	).Error
	if err == nil && o.log != nil {
		o.log.Debug("event stored",
			zap.String("event_type", name),
			zap.Any("payload", logger.MaskJSON(event.Payload)),
		)
	}
	return err
}
