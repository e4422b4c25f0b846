package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/trashmobeco/trashmob/internal/geo"
	partnerdomain "github.com/trashmobeco/trashmob/internal/partner/domain"
)

type createPartnerRequest struct {
	Name    string      `json:"name"`
	Website string      `json:"website"`
	Bounds  *geo.Bounds `json:"bounds"`
}

func (s *Server) CreatePartner(c *gin.Context) {
	var req createPartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Bounds != nil && !req.Bounds.Valid() {
		AbortWithError(c, newValidationError("bounds", "invalid_bounds", "bounding box is invalid"))
		return
	}

	partner, err := s.partnerSvc.Create(c.Request.Context(), partnerdomain.CreatePartnerRequest{
		Name:    strings.TrimSpace(req.Name),
		Website: strings.TrimSpace(req.Website),
		Bounds:  req.Bounds,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": partner})
}

func (s *Server) ListPartners(c *gin.Context) {
	partners, err := s.partnerSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": partners})
}

func (s *Server) GetPartner(c *gin.Context) {
	partnerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	partner, err := s.partnerSvc.Get(c.Request.Context(), partnerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": partner})
}

func (s *Server) ListPartnerAreas(c *gin.Context) {
	partnerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	areas, err := s.areaSvc.ListByPartner(c.Request.Context(), partnerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": areas})
}
