package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-core/internal/service"
)

// PresenceHandler exposes the online ping endpoint.
type PresenceHandler struct {
	chats *service.ChatService
}

// NewPresenceHandler builds a PresenceHandler.
func NewPresenceHandler(chats *service.ChatService) *PresenceHandler {
	return &PresenceHandler{chats: chats}
}

// Ping refreshes the caller's last-seen timestamp.
func (h *PresenceHandler) Ping(c *gin.Context) {
	if err := h.chats.OnlinePing(c.Request.Context(), actorFromContext(c)); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
