package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	eventdomain "github.com/trashmobeco/trashmob/internal/event/domain"
	"github.com/trashmobeco/trashmob/pkg/db/pagination"
)

type createEventRequest struct {
	PartnerID   string    `json:"partner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	City        string    `json:"city"`
	Region      string    `json:"region"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	CreatedByID string    `json:"created_by_id"`
}

func (s *Server) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	createdBy, err := parseIDField(req.CreatedByID, "created_by_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var partnerID *snowflake.ID
	if strings.TrimSpace(req.PartnerID) != "" {
		id, err := parseIDField(req.PartnerID, "partner_id")
		if err != nil {
			AbortWithError(c, err)
			return
		}
		partnerID = &id
	}

	event, err := s.eventSvc.Create(c.Request.Context(), eventdomain.CreateEventRequest{
		PartnerID:   partnerID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		City:        strings.TrimSpace(req.City),
		Region:      strings.TrimSpace(req.Region),
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		CreatedByID: createdBy,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": event})
}

func (s *Server) ListEvents(c *gin.Context) {
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))
	events, pageInfo, err := s.eventSvc.List(c.Request.Context(), pagination.Pagination{
		PageToken: c.Query("page_token"),
		PageSize:  pageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": events, "page_info": pageInfo})
}

func (s *Server) GetEvent(c *gin.Context) {
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	event, err := s.eventSvc.Get(c.Request.Context(), eventID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": event})
}

type registerAttendeeRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) RegisterAttendee(c *gin.Context) {
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req registerAttendeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	userID, err := parseIDField(req.UserID, "user_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.attendanceSvc.Register(c.Request.Context(), eventID, userID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) UnregisterAttendee(c *gin.Context) {
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, err := parseIDField(c.Param("userId"), "userId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.attendanceSvc.Unregister(c.Request.Context(), eventID, userID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
