package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-core/internal/models"
	"chat-core/internal/service"
)

// MessageHandler exposes the message write endpoints.
type MessageHandler struct {
	chats *service.ChatService
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(chats *service.ChatService) *MessageHandler {
	return &MessageHandler{chats: chats}
}

// PostMessage stores a message in a chat and broadcasts it.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.chats.SendMessage(c.Request.Context(), actorFromContext(c), c.Param("chat_id"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// ReportStatus records a delivery status reported by a recipient and returns
// the message's derived status.
func (h *MessageHandler) ReportStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	derived, err := h.chats.MessageStatus(c.Request.Context(), actorFromContext(c),
		c.Param("message_id"), models.ReportedStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": derived})
}

// UpdateContent appends a new content revision to a message.
func (h *MessageHandler) UpdateContent(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	content, err := h.chats.UpdateMessageContent(c.Request.Context(), actorFromContext(c),
		c.Param("message_id"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, content)
}
