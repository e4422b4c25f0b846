package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/trashmobeco/trashmob/internal/clock"
	waiverdomain "github.com/trashmobeco/trashmob/internal/waiver/domain"
)

var waiverTestNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func setupWaiverTest(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&waiverdomain.Waiver{}, &waiverdomain.WaiverAcceptance{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.Fixed(waiverTestNow),
	}).(*Service)
	return svc, db
}

func insertWaiver(t *testing.T, db *gorm.DB, id snowflake.ID, version string, effectiveAt time.Time) {
	t.Helper()
	waiver := waiverdomain.Waiver{
		ID:          id,
		Version:     version,
		Text:        "release of liability",
		EffectiveAt: effectiveAt,
		CreatedAt:   effectiveAt,
	}
	if err := db.Create(&waiver).Error; err != nil {
		t.Fatalf("insert waiver: %v", err)
	}
}

func TestCurrentPicksNewestEffectiveVersion(t *testing.T) {
	svc, db := setupWaiverTest(t)
	insertWaiver(t, db, 1, "1.0", waiverTestNow.Add(-48*time.Hour))
	insertWaiver(t, db, 2, "2.0", waiverTestNow.Add(-24*time.Hour))
	insertWaiver(t, db, 3, "3.0", waiverTestNow.Add(24*time.Hour)) // not yet effective

	current, err := svc.Current(context.Background())
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current.Version != "2.0" {
		t.Fatalf("expected version 2.0, got %s", current.Version)
	}
}

func TestCurrentWithoutWaivers(t *testing.T) {
	svc, _ := setupWaiverTest(t)

	_, err := svc.Current(context.Background())
	if !errors.Is(err, waiverdomain.ErrNoCurrentWaiver) {
		t.Fatalf("expected no current waiver, got %v", err)
	}
}

func TestAcceptOncePerVersion(t *testing.T) {
	svc, db := setupWaiverTest(t)
	insertWaiver(t, db, 1, "1.0", waiverTestNow.Add(-48*time.Hour))

	if err := svc.Accept(context.Background(), 10); err != nil {
		t.Fatalf("accept: %v", err)
	}
	err := svc.Accept(context.Background(), 10)
	if !errors.Is(err, waiverdomain.ErrAlreadyAccepted) {
		t.Fatalf("expected already accepted, got %v", err)
	}

	accepted, err := svc.HasAccepted(context.Background(), 10)
	if err != nil {
		t.Fatalf("has accepted: %v", err)
	}
	if !accepted {
		t.Fatal("expected accepted")
	}

	// A newer version requires a fresh acceptance.
	insertWaiver(t, db, 2, "2.0", waiverTestNow.Add(-1*time.Hour))
	accepted, err = svc.HasAccepted(context.Background(), 10)
	if err != nil {
		t.Fatalf("has accepted v2: %v", err)
	}
	if accepted {
		t.Fatal("expected new version to require acceptance")
	}
	if err := svc.Accept(context.Background(), 10); err != nil {
		t.Fatalf("accept v2: %v", err)
	}
}
