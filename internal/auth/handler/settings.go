package handler

import (
	"net/http"

	"auth-gateway/internal/logger"
	"auth-gateway/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Restart handles POST /settings/restart behind RequireAuth. It answers
// immediately; the restart signal fires after the response is written.
func (h *Handler) Restart(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c.Request.Context())

	logger.Warn("restart requested", map[string]any{
		"user_id": userID,
	})

	c.JSON(http.StatusOK, gin.H{"restarting": true})

	if h.restart != nil {
		go h.restart()
	}
}

// PurgeTokens handles POST /api/cron/purge-tokens, the scheduled sweep
// of expired magic-link rows.
func (h *Handler) PurgeTokens(c *gin.Context) {
	purged, err := h.magic.PurgeExpired(c.Request.Context())
	if err != nil {
		logger.Error("token purge failed", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"purged": purged})
}
