package api

import (
	"net/http"

	"coachslot/internal/apperr"
	"coachslot/internal/logger"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
	Code  string `json:"code,omitempty" example:"slot_already_booked"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// RespondError writes err using the apperr status mapping. Server-side
// failures are logged and their detail withheld from the client.
func RespondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		msg = http.StatusText(status)
	}
	c.JSON(status, ErrorResponse{Error: msg, Code: apperr.Code(err)})
}
