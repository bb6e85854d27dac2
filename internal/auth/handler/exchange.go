package handler

import (
	"errors"
	"net/http"

	"auth-gateway/internal/logger"
	"auth-gateway/internal/magiclink"
	"auth-gateway/internal/session"

	"github.com/gin-gonic/gin"
)

type exchangeRequest struct {
	Token string `json:"token"`
}

// ExchangeMagicToken handles POST /api/auth/magic-token: it consumes
// the single-use token and issues the session credential. A second call
// with the same token value gets 401.
func (h *Handler) ExchangeMagicToken(c *gin.Context) {
	var req exchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	user, err := h.magic.Consume(c.Request.Context(), req.Token)
	if err != nil {
		if errors.Is(err, magiclink.ErrTokenInvalid) ||
			errors.Is(err, magiclink.ErrTokenExpired) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		logger.Error("magic-token exchange failed", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	credential, expires, err := h.sessions.Issue(user.ID, sessionTTL)
	if err != nil {
		logger.Error("session issue failed", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	// Redeeming a link proves ownership of the address.
	if user.EmailVerified == nil {
		if err := h.users.MarkEmailVerified(c.Request.Context(), user.ID); err != nil {
			logger.Warn("failed to stamp email_verified", map[string]any{
				"user_id": user.ID,
				"error":   err.Error(),
			})
		}
	}

	session.SetCookie(c.Writer, credential, expires, h.cookies)

	c.JSON(http.StatusOK, gin.H{
		"id":    user.ID,
		"email": user.Email,
	})
}

// SessionInfo handles GET /api/auth/session. The path is public by
// classification; the handler answers for itself.
func (h *Handler) SessionInfo(c *gin.Context) {
	credential, err := session.FromRequest(c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	userID, expires, err := h.sessions.Verify(credential)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"expires": expires,
	})
}

// Logout clears both session cookies. Idempotent: a request without a
// session gets the same answer.
func (h *Handler) Logout(c *gin.Context) {
	session.ClearCookies(c.Writer, h.cookies)
	c.Status(http.StatusNoContent)
}
