package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-core/internal/capabilities"
	"chat-core/internal/flags"
	"chat-core/internal/repositories"
)

// AdminHandler exposes the flag and capability management endpoints.
type AdminHandler struct {
	flags    flags.Store
	caps     *capabilities.Registry
	capsRepo repositories.CapabilityRepository
}

// NewAdminHandler builds an AdminHandler.
func NewAdminHandler(flagStore flags.Store, caps *capabilities.Registry, capsRepo repositories.CapabilityRepository) *AdminHandler {
	return &AdminHandler{flags: flagStore, caps: caps, capsRepo: capsRepo}
}

// GetFlag reads a global flag. Flags with no stored value report the
// caller-supplied fallback.
func (h *AdminHandler) GetFlag(c *gin.Context) {
	fallback := c.Query("fallback") == "true"
	enabled, err := h.flags.GetFlag(c.Request.Context(), c.Param("name"), fallback)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read flag"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"name": c.Param("name"), "enabled": enabled})
}

// SetFlag writes a global flag.
func (h *AdminHandler) SetFlag(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.flags.SetFlag(c.Request.Context(), c.Param("name"), *req.Enabled); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write flag"})
		return
	}

	c.Status(http.StatusNoContent)
}

// CheckCapability evaluates a subject/action pair, optionally scoped to a
// chat, and reports the decision.
func (h *AdminHandler) CheckCapability(c *gin.Context) {
	subject, ok := capabilities.ParseSubject(c.Query("subject"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown subject"})
		return
	}
	action, ok := capabilities.ParseAction(c.Query("action"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
		return
	}

	allowed, err := h.caps.Can(c.Request.Context(), action, subject, capabilities.Context{ChatID: c.Query("chat_id")})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "capability check failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"allowed": allowed})
}

// SetChatCapability writes a per-chat capability override.
func (h *AdminHandler) SetChatCapability(c *gin.Context) {
	var req struct {
		Capability string `json:"capability" binding:"required"`
		Enabled    *bool  `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.capsRepo.SetChatCapability(c.Request.Context(), c.Param("chat_id"), req.Capability, *req.Enabled); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write capability"})
		return
	}

	c.Status(http.StatusNoContent)
}
