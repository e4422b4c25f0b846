package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetCurrentWaiver(c *gin.Context) {
	waiver, err := s.waiverSvc.Current(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": waiver})
}

type acceptWaiverRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) AcceptWaiver(c *gin.Context) {
	var req acceptWaiverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	userID, err := parseIDField(req.UserID, "user_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.waiverSvc.Accept(c.Request.Context(), userID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
