package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chat-core/internal/errs"
	"chat-core/internal/service"
)

const requestIDContextKey = "request_id"

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func actorFromContext(c *gin.Context) service.Actor {
	return service.Actor{
		ID:        c.GetString("userID"),
		Name:      c.GetString("userName"),
		RequestID: requestIDFromContext(c),
	}
}

// respondError maps a service error to an HTTP status. Internal causes are
// never surfaced to clients.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch errs.KindOf(err) {
	case errs.KindBadRequest:
		status = http.StatusBadRequest
	case errs.KindUnauthorized:
		status = http.StatusUnauthorized
	case errs.KindForbidden:
		status = http.StatusForbidden
	case errs.KindNotFound:
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
