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

	attendancedomain "github.com/trashmobeco/trashmob/internal/attendance/domain"
	metricsdomain "github.com/trashmobeco/trashmob/internal/metrics/domain"
	userdomain "github.com/trashmobeco/trashmob/internal/user/domain"
)

func setupUserTest(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&userdomain.User{},
		&metricsdomain.MetricSubmission{},
		&attendancedomain.EventAttendee{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	svc := NewService(ServiceParam{DB: db, Log: zap.NewNop(), GenID: node}).(*Service)
	return svc, db
}

func TestCreateUserRequiresDisplayName(t *testing.T) {
	svc, _ := setupUserTest(t)

	_, err := svc.Create(context.Background(), userdomain.CreateUserRequest{DisplayName: "   "})
	if !errors.Is(err, userdomain.ErrInvalidDisplay) {
		t.Fatalf("expected invalid display name, got %v", err)
	}
}

func TestGetUserRejectsSentinel(t *testing.T) {
	svc, _ := setupUserTest(t)

	_, err := svc.Get(context.Background(), userdomain.AnonymousID)
	if !errors.Is(err, userdomain.ErrUserNotFound) {
		t.Fatalf("expected not found for sentinel, got %v", err)
	}
}

func TestDeleteUserAnonymizesSubmissions(t *testing.T) {
	svc, db := setupUserTest(t)

	user, err := svc.Create(context.Background(), userdomain.CreateUserRequest{DisplayName: "casey", Email: "casey@example.org"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	bags := 5
	now := time.Now().UTC()
	sub := metricsdomain.MetricSubmission{
		ID:            7001,
		EventID:       100,
		UserID:        user.ID,
		BagsCollected: &bags,
		Status:        metricsdomain.StatusApproved,
		WeightUnit:    metricsdomain.WeightUnitPounds,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.Create(&sub).Error; err != nil {
		t.Fatalf("insert submission: %v", err)
	}
	attendee := attendancedomain.EventAttendee{ID: 8001, EventID: 100, UserID: user.ID, SignedUpAt: now, CreatedAt: now}
	if err := db.Create(&attendee).Error; err != nil {
		t.Fatalf("insert attendee: %v", err)
	}

	if err := svc.Delete(context.Background(), user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err = svc.Get(context.Background(), user.ID)
	if !errors.Is(err, userdomain.ErrUserNotFound) {
		t.Fatalf("expected user gone, got %v", err)
	}

	var stored metricsdomain.MetricSubmission
	if err := db.First(&stored, "id = ?", sub.ID).Error; err != nil {
		t.Fatalf("load submission: %v", err)
	}
	if stored.UserID != userdomain.AnonymousID {
		t.Fatalf("expected submission reassigned to sentinel, got %v", stored.UserID)
	}
	if stored.BagsCollected == nil || *stored.BagsCollected != 5 {
		t.Fatalf("expected numeric fields untouched, got %v", stored.BagsCollected)
	}
	if stored.Status != metricsdomain.StatusApproved {
		t.Fatalf("expected status untouched, got %s", stored.Status)
	}

	var attendeeCount int64
	if err := db.Model(&attendancedomain.EventAttendee{}).Where("user_id = ?", user.ID).Count(&attendeeCount).Error; err != nil {
		t.Fatalf("count attendees: %v", err)
	}
	if attendeeCount != 0 {
		t.Fatalf("expected attendee rows removed, got %d", attendeeCount)
	}
}

func TestDeleteUserRejectsSentinelAndMissing(t *testing.T) {
	svc, _ := setupUserTest(t)

	if err := svc.Delete(context.Background(), userdomain.AnonymousID); !errors.Is(err, userdomain.ErrUserNotFound) {
		t.Fatalf("expected not found for sentinel, got %v", err)
	}
	if err := svc.Delete(context.Background(), 424242); !errors.Is(err, userdomain.ErrUserNotFound) {
		t.Fatalf("expected not found for missing user, got %v", err)
	}
}
