package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	metricsdomain "github.com/trashmobeco/trashmob/internal/metrics/domain"
)

type submitMetricsRequest struct {
	UserID          string   `json:"user_id"`
	BagsCollected   *int     `json:"bags_collected"`
	PickedWeight    *float64 `json:"picked_weight"`
	WeightUnit      int      `json:"weight_unit"`
	DurationMinutes *int     `json:"duration_minutes"`
}

func (s *Server) SubmitMetrics(c *gin.Context) {
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req submitMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	userID, err := parseIDField(req.UserID, "user_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.metricsSvc.SubmitMetrics(c.Request.Context(), metricsdomain.SubmitRequest{
		EventID: eventID,
		UserID:  userID,
		Values: metricsdomain.MetricValues{
			BagsCollected:   req.BagsCollected,
			PickedWeight:    req.PickedWeight,
			WeightUnit:      metricsdomain.WeightUnit(req.WeightUnit),
			DurationMinutes: req.DurationMinutes,
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	switch result.Code {
	case metricsdomain.SubmitOK:
		c.JSON(http.StatusOK, gin.H{"data": result.Submission})
	case metricsdomain.SubmitEventNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "event_not_found", "message": result.Message}})
	case metricsdomain.SubmitNotAttendee:
		c.JSON(http.StatusForbidden, gin.H{"error": gin.H{"code": "not_attendee", "message": result.Message}})
	case metricsdomain.SubmitAlreadyReviewed:
		c.JSON(http.StatusConflict, gin.H{"error": gin.H{"code": "already_reviewed", "message": result.Message}})
	}
}

func (s *Server) GetEventTotals(c *gin.Context) {
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	totals, err := s.metricsSvc.ComputeEventTotals(c.Request.Context(), eventID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": totals})
}

func (s *Server) GetPublicSummary(c *gin.Context) {
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	summary, err := s.metricsSvc.ComputePublicSummary(c.Request.Context(), eventID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary})
}

func (s *Server) GetUserImpact(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	stats, err := s.metricsSvc.ComputeUserImpactStats(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}

type reviewRequest struct {
	ReviewerID string `json:"reviewer_id"`
	Reason     string `json:"reason"`
}

func (s *Server) ApproveSubmission(c *gin.Context) {
	s.reviewSubmission(c, func(req metricsdomain.ReviewRequest) error {
		return s.metricsSvc.Approve(c.Request.Context(), req)
	})
}

func (s *Server) RejectSubmission(c *gin.Context) {
	s.reviewSubmission(c, func(req metricsdomain.ReviewRequest) error {
		return s.metricsSvc.Reject(c.Request.Context(), req)
	})
}

func (s *Server) reviewSubmission(c *gin.Context, apply func(metricsdomain.ReviewRequest) error) {
	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	reviewerID, err := parseIDField(req.ReviewerID, "reviewer_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := apply(metricsdomain.ReviewRequest{
		SubmissionID: submissionID,
		ReviewerID:   reviewerID,
		Reason:       req.Reason,
	}); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type adjustRequest struct {
	ReviewerID       string   `json:"reviewer_id"`
	Reason           string   `json:"reason"`
	AdjustedBags     *int     `json:"adjusted_bags"`
	AdjustedWeight   *float64 `json:"adjusted_weight"`
	AdjustedUnit     *int     `json:"adjusted_weight_unit"`
	AdjustedDuration *int     `json:"adjusted_duration"`
}

func (s *Server) AdjustSubmission(c *gin.Context) {
	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	reviewerID, err := parseIDField(req.ReviewerID, "reviewer_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	adjust := metricsdomain.AdjustRequest{
		SubmissionID:     submissionID,
		ReviewerID:       reviewerID,
		Reason:           req.Reason,
		AdjustedBags:     req.AdjustedBags,
		AdjustedWeight:   req.AdjustedWeight,
		AdjustedDuration: req.AdjustedDuration,
	}
	if req.AdjustedUnit != nil {
		unit := metricsdomain.WeightUnit(*req.AdjustedUnit)
		adjust.AdjustedUnit = &unit
	}

	if err := s.metricsSvc.Adjust(c.Request.Context(), adjust); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ApproveAllPending(c *gin.Context) {
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	reviewerID, err := parseIDField(req.ReviewerID, "reviewer_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	count, err := s.metricsSvc.ApproveAllPending(c.Request.Context(), eventID, reviewerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"approved": count}})
}
