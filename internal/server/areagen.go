package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	areagendomain "github.com/trashmobeco/trashmob/internal/areagen/domain"
	"github.com/trashmobeco/trashmob/internal/geo"
)

type startBatchRequest struct {
	PartnerID   string      `json:"partner_id"`
	Category    string      `json:"category"`
	Bounds      *geo.Bounds `json:"bounds"`
	CreatedByID string      `json:"created_by_id"`
}

func (s *Server) StartBatch(c *gin.Context) {
	var req startBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	partnerID, err := parseIDField(req.PartnerID, "partner_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	createdBy, err := parseIDField(req.CreatedByID, "created_by_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if req.Bounds != nil && !req.Bounds.Valid() {
		AbortWithError(c, newValidationError("bounds", "invalid_bounds", "bounding box is invalid"))
		return
	}

	batch, err := s.areaGenSvc.StartBatch(c.Request.Context(), areagendomain.StartBatchRequest{
		PartnerID:   partnerID,
		Category:    strings.TrimSpace(req.Category),
		Bounds:      req.Bounds,
		CreatedByID: createdBy,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// The pipeline outlives the request, so it runs on a fresh context.
	go s.orchestrator.RunBatch(context.Background(), batch.ID)

	c.JSON(http.StatusAccepted, gin.H{"data": batch})
}

func (s *Server) GetBatch(c *gin.Context) {
	batchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	batch, err := s.areaGenSvc.GetBatch(c.Request.Context(), batchID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": batch})
}

func (s *Server) CancelBatch(c *gin.Context) {
	batchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	cancelled := s.orchestrator.Cancel(batchID)
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"cancelled": cancelled}})
}

func (s *Server) ListStaged(c *gin.Context) {
	batchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	staged, err := s.areaGenSvc.ListStaged(c.Request.Context(), batchID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": staged})
}

type reviewStagedRequest struct {
	ReviewerID string `json:"reviewer_id"`
	Approve    bool   `json:"approve"`
}

func (s *Server) ReviewStaged(c *gin.Context) {
	stagedID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req reviewStagedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	reviewerID, err := parseIDField(req.ReviewerID, "reviewer_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.areaGenSvc.ReviewStaged(c.Request.Context(), areagendomain.ReviewStagedRequest{
		StagedID:   stagedID,
		ReviewerID: reviewerID,
		Approve:    req.Approve,
	}); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) BulkReviewStaged(c *gin.Context) {
	batchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req reviewStagedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	reviewerID, err := parseIDField(req.ReviewerID, "reviewer_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	count, err := s.areaGenSvc.BulkReviewStaged(c.Request.Context(), areagendomain.BulkReviewRequest{
		BatchID:    batchID,
		ReviewerID: reviewerID,
		Approve:    req.Approve,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"reviewed": count}})
}

func (s *Server) MaterializeBatch(c *gin.Context) {
	batchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	count, err := s.areaGenSvc.MaterializeApproved(c.Request.Context(), batchID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"created": count}})
}
