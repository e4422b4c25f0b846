package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	attendancedomain "github.com/trashmobeco/trashmob/internal/attendance/domain"
	"github.com/trashmobeco/trashmob/internal/clock"
	eventdomain "github.com/trashmobeco/trashmob/internal/event/domain"
	"github.com/trashmobeco/trashmob/internal/events"
	metricsdomain "github.com/trashmobeco/trashmob/internal/metrics/domain"
	"github.com/trashmobeco/trashmob/internal/observability/metrics"
	userdomain "github.com/trashmobeco/trashmob/internal/user/domain"
	"github.com/trashmobeco/trashmob/pkg/repository"
)

type ServiceParam struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	EventSvc      eventdomain.Service
	AttendanceSvc attendancedomain.Service
	Outbox        *events.Outbox      `optional:"true"`
	Metrics       *metrics.AppMetrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID          *snowflake.Node
	clock          clock.Clock
	eventSvc       eventdomain.Service
	attendanceSvc  attendancedomain.Service
	submissionrepo repository.Repository[metricsdomain.MetricSubmission]
	outbox         *events.Outbox
	metrics        *metrics.AppMetrics
}

func NewService(p ServiceParam) metricsdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("metrics.service"),

		genID:          p.GenID,
		clock:          p.Clock,
		eventSvc:       p.EventSvc,
		attendanceSvc:  p.AttendanceSvc,
		submissionrepo: repository.ProvideStore[metricsdomain.MetricSubmission](p.DB),
		outbox:         p.Outbox,
		metrics:        p.Metrics,
	}
}

// SubmitMetrics creates or overwrites the (event, user) submission. All
// business-rule failures are reported in the result, never as errors.
func (s *Service) SubmitMetrics(ctx context.Context, req metricsdomain.SubmitRequest) (metricsdomain.SubmitResult, error) {
	exists, err := s.eventSvc.Exists(ctx, req.EventID)
	if err != nil {
		return metricsdomain.SubmitResult{}, err
	}
	if !exists {
		return metricsdomain.SubmitResult{
			Code:    metricsdomain.SubmitEventNotFound,
			Message: "event not found",
		}, nil
	}

	attending, err := s.attendsEvent(ctx, req.UserID, req.EventID)
	if err != nil {
		return metricsdomain.SubmitResult{}, err
	}
	if !attending {
		return metricsdomain.SubmitResult{
			Code:    metricsdomain.SubmitNotAttendee,
			Message: "user is not a registered attendee of this event",
		}, nil
	}

	existing, err := s.findSubmission(ctx, req.EventID, req.UserID)
	if err != nil {
		return metricsdomain.SubmitResult{}, err
	}

	now := s.clock.Now()
	if existing != nil {
		if existing.Status != metricsdomain.StatusPending {
			return metricsdomain.SubmitResult{
				Code:    metricsdomain.SubmitAlreadyReviewed,
				Message: "submission has already been reviewed",
			}, nil
		}
		existing.BagsCollected = req.Values.BagsCollected
		existing.PickedWeight = req.Values.PickedWeight
		existing.WeightUnit = normalizeUnit(req.Values.WeightUnit)
		existing.DurationMinutes = req.Values.DurationMinutes
		existing.UpdatedAt = now
		if err := s.submissionrepo.Save(ctx, existing); err != nil {
			return metricsdomain.SubmitResult{}, err
		}
		return metricsdomain.SubmitResult{Code: metricsdomain.SubmitOK, Submission: existing}, nil
	}

	record := &metricsdomain.MetricSubmission{
		ID:              s.genID.Generate(),
		EventID:         req.EventID,
		UserID:          req.UserID,
		BagsCollected:   req.Values.BagsCollected,
		PickedWeight:    req.Values.PickedWeight,
		WeightUnit:      normalizeUnit(req.Values.WeightUnit),
		DurationMinutes: req.Values.DurationMinutes,
		Status:          metricsdomain.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.submissionrepo.Create(ctx, record); err != nil {
		return metricsdomain.SubmitResult{}, err
	}

	if s.outbox != nil {
		_ = s.outbox.Publish(ctx, events.Event{
			Type: events.EventMetricsSubmitted,
			Payload: map[string]any{
				"submission_id": record.ID.String(),
				"event_id":      record.EventID.String(),
			},
			DedupeKey: "metrics.submitted:" + record.ID.String(),
		})
	}

	return metricsdomain.SubmitResult{Code: metricsdomain.SubmitOK, Submission: record}, nil
}

func (s *Service) Approve(ctx context.Context, req metricsdomain.ReviewRequest) error {
	return s.review(ctx, req.SubmissionID, req.ReviewerID, func(sub *metricsdomain.MetricSubmission) error {
		sub.Status = metricsdomain.StatusApproved
		return nil
	})
}

func (s *Service) Reject(ctx context.Context, req metricsdomain.ReviewRequest) error {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return metricsdomain.ErrReasonRequired
	}
	return s.review(ctx, req.SubmissionID, req.ReviewerID, func(sub *metricsdomain.MetricSubmission) error {
		sub.Status = metricsdomain.StatusRejected
		sub.RejectionReason = &reason
		return nil
	})
}

func (s *Service) Adjust(ctx context.Context, req metricsdomain.AdjustRequest) error {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return metricsdomain.ErrReasonRequired
	}
	return s.review(ctx, req.SubmissionID, req.ReviewerID, func(sub *metricsdomain.MetricSubmission) error {
		sub.Status = metricsdomain.StatusAdjusted
		sub.AdjustmentReason = &reason
		sub.AdjustedBags = req.AdjustedBags
		sub.AdjustedWeight = req.AdjustedWeight
		sub.AdjustedWeightUnit = req.AdjustedUnit
		sub.AdjustedDuration = req.AdjustedDuration
		return nil
	})
}

// review applies a reviewer transition to a currently-pending submission.
func (s *Service) review(ctx context.Context, submissionID, reviewerID snowflake.ID, apply func(*metricsdomain.MetricSubmission) error) error {
	sub, err := s.submissionrepo.Get(ctx, &metricsdomain.MetricSubmission{ID: submissionID})
	if err != nil {
		return err
	}
	if sub == nil {
		return metricsdomain.ErrSubmissionNotFound
	}
	if sub.Status != metricsdomain.StatusPending {
		return metricsdomain.ErrNotPending
	}

	if err := apply(sub); err != nil {
		return err
	}

	now := s.clock.Now()
	sub.ReviewedByID = &reviewerID
	sub.ReviewedAt = &now
	sub.UpdatedAt = now

	if err := s.submissionrepo.Save(ctx, sub); err != nil {
		return err
	}

	outcome := string(sub.Status)
	if s.metrics != nil {
		s.metrics.IncReviewed(outcome)
	}
	if s.outbox != nil {
		_ = s.outbox.Publish(ctx, events.Event{
			Type: events.EventMetricsReviewed,
			Payload: events.MetricsReviewedPayload{
				SubmissionID: sub.ID.String(),
				EventID:      sub.EventID.String(),
				Outcome:      outcome,
				ReviewerID:   reviewerID.String(),
			}.ToMap(),
			DedupeKey: "metrics.reviewed:" + sub.ID.String(),
		})
	}
	return nil
}

// ApproveAllPending bulk-approves every pending submission for the event and
// returns the count approved. A second call is a no-op returning zero.
func (s *Service) ApproveAllPending(ctx context.Context, eventID, reviewerID snowflake.ID) (int, error) {
	now := s.clock.Now()
	result := s.db.WithContext(ctx).
		Model(&metricsdomain.MetricSubmission{}).
		Where("event_id = ? AND status = ?", eventID, metricsdomain.StatusPending).
		Updates(map[string]any{
			"status":         metricsdomain.StatusApproved,
			"reviewed_by_id": reviewerID,
			"reviewed_at":    now,
			"updated_at":     now,
		})
	if result.Error != nil {
		return 0, result.Error
	}

	count := int(result.RowsAffected)
	if count > 0 && s.metrics != nil {
		for i := 0; i < count; i++ {
			s.metrics.IncReviewed(string(metricsdomain.StatusApproved))
		}
	}
	return count, nil
}

// ComputeEventTotals aggregates every submission for the event. Anonymized
// submissions count identically to active-user ones; deleting an account
// must never change historical totals.
func (s *Service) ComputeEventTotals(ctx context.Context, eventID snowflake.ID) (metricsdomain.EventTotals, error) {
	subs, err := s.submissionsForEvent(ctx, eventID)
	if err != nil {
		return metricsdomain.EventTotals{}, err
	}
	return computeTotals(subs), nil
}

// ComputePublicSummary returns the event totals plus a contributor list that
// excludes anonymized submissions.
func (s *Service) ComputePublicSummary(ctx context.Context, eventID snowflake.ID) (metricsdomain.PublicSummary, error) {
	subs, err := s.submissionsForEvent(ctx, eventID)
	if err != nil {
		return metricsdomain.PublicSummary{}, err
	}

	summary := metricsdomain.PublicSummary{
		EventTotals:  computeTotals(subs),
		Contributors: []metricsdomain.Contributor{},
	}

	names, err := s.displayNames(ctx, subs)
	if err != nil {
		return metricsdomain.PublicSummary{}, err
	}

	for _, sub := range subs {
		if !sub.CountsTowardTotals() || sub.IsAnonymized() {
			continue
		}
		bags := sub.EffectiveBags()
		weight := sub.EffectiveWeightPounds()
		if bags == 0 && weight == 0 {
			continue
		}
		summary.Contributors = append(summary.Contributors, metricsdomain.Contributor{
			DisplayName:     names[sub.UserID],
			BagsCollected:   bags,
			WeightPounds:    weight,
			DurationMinutes: sub.EffectiveDuration(),
		})
	}

	sort.SliceStable(summary.Contributors, func(i, j int) bool {
		a, b := summary.Contributors[i], summary.Contributors[j]
		if a.BagsCollected != b.BagsCollected {
			return a.BagsCollected > b.BagsCollected
		}
		return a.WeightPounds > b.WeightPounds
	})

	return summary, nil
}

// ComputeUserImpactStats aggregates the approved and adjusted submissions
// currently referencing the given user id. Passing the anonymous sentinel
// returns the aggregate of all anonymized submissions system-wide; callers
// rely on that behavior.
func (s *Service) ComputeUserImpactStats(ctx context.Context, userID snowflake.ID) (metricsdomain.UserImpactStats, error) {
	var subs []metricsdomain.MetricSubmission
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID,
			[]metricsdomain.ReviewStatus{metricsdomain.StatusApproved, metricsdomain.StatusAdjusted}).
		Order("created_at ASC, id ASC").
		Find(&subs).Error
	if err != nil {
		return metricsdomain.UserImpactStats{}, err
	}

	stats := metricsdomain.UserImpactStats{Events: []metricsdomain.EventImpact{}}
	index := make(map[snowflake.ID]int)
	for _, sub := range subs {
		bags := sub.EffectiveBags()
		weight := sub.EffectiveWeightPounds()
		duration := sub.EffectiveDuration()

		stats.TotalBagsCollected += bags
		stats.TotalWeightPounds += weight
		stats.TotalDurationMinutes += duration

		pos, ok := index[sub.EventID]
		if !ok {
			index[sub.EventID] = len(stats.Events)
			stats.Events = append(stats.Events, metricsdomain.EventImpact{EventID: sub.EventID})
			pos = index[sub.EventID]
		}
		stats.Events[pos].BagsCollected += bags
		stats.Events[pos].WeightPounds += weight
		stats.Events[pos].DurationMinutes += duration
	}
	stats.EventsWithMetrics = len(stats.Events)

	return stats, nil
}

// attendsEvent gates submission on the attendance roster, not on any metric
// state.
func (s *Service) attendsEvent(ctx context.Context, userID, eventID snowflake.ID) (bool, error) {
	if userID == userdomain.AnonymousID {
		return false, nil
	}
	attended, err := s.attendanceSvc.EventsForUser(ctx, userID, false)
	if err != nil {
		return false, err
	}
	for _, ev := range attended {
		if ev.ID == eventID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) findSubmission(ctx context.Context, eventID, userID snowflake.ID) (*metricsdomain.MetricSubmission, error) {
	var sub metricsdomain.MetricSubmission
	err := s.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *Service) submissionsForEvent(ctx context.Context, eventID snowflake.ID) ([]metricsdomain.MetricSubmission, error) {
	var subs []metricsdomain.MetricSubmission
	err := s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC, id ASC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// displayNames resolves display names for the non-anonymized submitters in
// one query. A stale association for an anonymized submission is never
// consulted because sentinel ids are filtered out before the lookup.
func (s *Service) displayNames(ctx context.Context, subs []metricsdomain.MetricSubmission) (map[snowflake.ID]string, error) {
	ids := make([]snowflake.ID, 0, len(subs))
	seen := make(map[snowflake.ID]bool, len(subs))
	for _, sub := range subs {
		if sub.IsAnonymized() || seen[sub.UserID] {
			continue
		}
		seen[sub.UserID] = true
		ids = append(ids, sub.UserID)
	}

	names := make(map[snowflake.ID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var rows []userdomain.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		names[row.ID] = row.DisplayName
	}
	return names, nil
}

func computeTotals(subs []metricsdomain.MetricSubmission) metricsdomain.EventTotals {
	totals := metricsdomain.EventTotals{}
	for _, sub := range subs {
		totals.TotalSubmissions++
		switch sub.Status {
		case metricsdomain.StatusApproved:
			totals.ApprovedSubmissions++
		case metricsdomain.StatusPending:
			totals.PendingSubmissions++
		case metricsdomain.StatusRejected:
			totals.RejectedSubmissions++
		case metricsdomain.StatusAdjusted:
			totals.AdjustedSubmissions++
		}

		if !sub.CountsTowardTotals() {
			continue
		}
		totals.TotalBagsCollected += sub.EffectiveBags()
		totals.TotalWeightPounds += sub.EffectiveWeightPounds()
		totals.TotalDurationMinutes += sub.EffectiveDuration()
	}
	return totals
}

func normalizeUnit(unit metricsdomain.WeightUnit) metricsdomain.WeightUnit {
	if unit == metricsdomain.WeightUnitKilograms {
		return unit
	}
	return metricsdomain.WeightUnitPounds
}
