package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/odinnomago/valhalla-notify/pkg/errors"
)

// Respond writes a success envelope with the given extra fields merged
// in at the top level, matching the wire contract consumed by the web
// clients: {"success": true, "notifications": [...], ...}.
func Respond(c *gin.Context, status bool, fields gin.H) {
	body := gin.H{"success": status}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// RespondError writes {"success": false, "error": message} with the
// given HTTP status.
func RespondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

// RespondAppError maps an AppError (or any error) to the wire envelope.
// Non-AppError values become an opaque 500 so internals never leak.
func RespondAppError(c *gin.Context, err error) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		RespondError(c, http.StatusInternalServerError, "Server error")
		return
	}

	switch appErr.Code {
	case errors.ErrBadRequest:
		RespondError(c, http.StatusBadRequest, appErr.Message)
	case errors.ErrNotFound:
		RespondError(c, http.StatusNotFound, appErr.Message)
	case errors.ErrUnauthorized:
		RespondError(c, http.StatusUnauthorized, appErr.Message)
	case errors.ErrForbidden:
		RespondError(c, http.StatusForbidden, appErr.Message)
	default:
		RespondError(c, http.StatusInternalServerError, "Server error")
	}
}
