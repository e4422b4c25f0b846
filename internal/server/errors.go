package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	areadomain "github.com/trashmobeco/trashmob/internal/adoptablearea/domain"
	areagendomain "github.com/trashmobeco/trashmob/internal/areagen/domain"
	attendancedomain "github.com/trashmobeco/trashmob/internal/attendance/domain"
	eventdomain "github.com/trashmobeco/trashmob/internal/event/domain"
	metricsdomain "github.com/trashmobeco/trashmob/internal/metrics/domain"
	partnerdomain "github.com/trashmobeco/trashmob/internal/partner/domain"
	userdomain "github.com/trashmobeco/trashmob/internal/user/domain"
	waiverdomain "github.com/trashmobeco/trashmob/internal/waiver/domain"
)

// ErrNotFound is the generic 404 error for the REST layer.
var ErrNotFound = errors.New("not_found")

type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *apiError) Error() string { return e.Message }

func newValidationError(field, code, message string) error {
	return &apiError{
		Status:  http.StatusBadRequest,
		Code:    code,
		Field:   field,
		Message: message,
	}
}

func invalidRequestError() error {
	return &apiError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_request",
		Message: "request body could not be parsed",
	}
}

// AbortWithError maps domain errors onto HTTP responses in one place.
func AbortWithError(c *gin.Context, err error) {
	var api *apiError
	if errors.As(err, &api) {
		c.AbortWithStatusJSON(api.Status, gin.H{"error": api})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, userdomain.ErrUserNotFound),
		errors.Is(err, partnerdomain.ErrPartnerNotFound),
		errors.Is(err, eventdomain.ErrEventNotFound),
		errors.Is(err, metricsdomain.ErrSubmissionNotFound),
		errors.Is(err, areadomain.ErrAreaNotFound),
		errors.Is(err, areagendomain.ErrBatchNotFound),
		errors.Is(err, areagendomain.ErrStagedNotFound),
		errors.Is(err, waiverdomain.ErrNoCurrentWaiver):
		status = http.StatusNotFound
	case errors.Is(err, metricsdomain.ErrNotPending),
		errors.Is(err, areagendomain.ErrStagedNotPending),
		errors.Is(err, areagendomain.ErrBatchActive),
		errors.Is(err, attendancedomain.ErrAlreadyRegistered),
		errors.Is(err, waiverdomain.ErrAlreadyAccepted):
		status = http.StatusConflict
	case errors.Is(err, metricsdomain.ErrReasonRequired),
		errors.Is(err, areagendomain.ErrInvalidCategory),
		errors.Is(err, areagendomain.ErrMissingBounds),
		errors.Is(err, eventdomain.ErrInvalidName),
		errors.Is(err, eventdomain.ErrInvalidDates),
		errors.Is(err, partnerdomain.ErrInvalidName),
		errors.Is(err, userdomain.ErrInvalidDisplay),
		errors.Is(err, attendancedomain.ErrNotRegistered):
		status = http.StatusBadRequest
	}

	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{
		"code":    errorCode(err),
		"message": err.Error(),
	}})
}

func errorCode(err error) string {
	code := err.Error()
	if idx := strings.IndexByte(code, ' '); idx > 0 {
		return "request_failed"
	}
	return code
}

// parseIDParam parses a snowflake id path parameter.
func parseIDParam(c *gin.Context, name string) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param(name)))
	if err != nil {
		AbortWithError(c, newValidationError(name, "invalid_id", "invalid id"))
		return 0, false
	}
	return id, true
}

// parseIDField parses a snowflake id from a request body field.
func parseIDField(value, field string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, newValidationError(field, "invalid_id", "invalid "+field)
	}
	return id, nil
}
