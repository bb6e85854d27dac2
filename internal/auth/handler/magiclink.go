package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"auth-gateway/internal/logger"
	"auth-gateway/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// magicLinkMessage is returned for every request, registered address or
// not.
const magicLinkMessage = "If that email exists, a magic link has been sent."

type magicLinkRequest struct {
	Email string `json:"email"`
}

// RequestMagicLink handles POST /auth/request-magic-link.
func (h *Handler) RequestMagicLink(c *gin.Context) {
	var req magicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	// Throttle before touching the store, keyed on the address alone,
	// so the limiter's answer carries no registration signal.
	if err := h.limiter.Allow(c.Request.Context(), strings.ToLower(req.Email)); errors.Is(err, ratelimit.ErrRateLimited) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		return
	}

	if err := h.magic.Issue(c.Request.Context(), req.Email); err != nil {
		logger.Error("magic-link issue failed", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": magicLinkMessage})
}

// ValidateMagicToken handles GET /auth/validate-magic-token. It only
// re-shapes the redirect for the client-side exchange; consumption
// happens in the /api/auth surface. The token is never logged.
func (h *Handler) ValidateMagicToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.Redirect(http.StatusFound, "/login?error=InvalidToken")
		return
	}

	c.Redirect(http.StatusFound, "/login?magic-token="+url.QueryEscape(token))
}
