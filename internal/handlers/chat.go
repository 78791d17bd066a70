package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chat-core/internal/service"
)

// ChatHandler exposes the chat lifecycle and query endpoints.
type ChatHandler struct {
	chats *service.ChatService
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chats *service.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

// CreateChat creates a private or group chat for the caller.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	var req struct {
		MemberIDs []string `json:"member_ids" binding:"required"`
		Name      string   `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chatID, err := h.chats.CreateChat(c.Request.Context(), actorFromContext(c), service.CreateChatInput{
		MemberIDs: req.MemberIDs,
		Name:      req.Name,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"chat_id": chatID})
}

// RenameChat sets a new chat name.
func (h *ChatHandler) RenameChat(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.chats.RenameChat(c.Request.Context(), actorFromContext(c), c.Param("chat_id"), req.Name); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ArchiveChat archives a chat. Archiving an already archived chat succeeds
// without writing anything.
func (h *ChatHandler) ArchiveChat(c *gin.Context) {
	if err := h.chats.ArchiveChat(c.Request.Context(), actorFromContext(c), c.Param("chat_id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListChats returns the chats visible to the authenticated user.
func (h *ChatHandler) ListChats(c *gin.Context) {
	previews, err := h.chats.ListChats(c.Request.Context(), actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": previews})
}

// ChatDetails returns a single chat with its members and their presence.
func (h *ChatHandler) ChatDetails(c *gin.Context) {
	details, err := h.chats.ChatDetails(c.Request.Context(), actorFromContext(c), c.Param("chat_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// GetChatMessages returns one page of a chat's messages, newest first.
func (h *ChatHandler) GetChatMessages(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	page, err := h.chats.Messages(c.Request.Context(), actorFromContext(c), c.Param("chat_id"), c.Query("cursor"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}
