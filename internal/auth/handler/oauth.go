package handler

import (
	"net/http"

	"auth-gateway/internal/logger"
	"auth-gateway/internal/middleware"
	"auth-gateway/internal/session"

	"github.com/gin-gonic/gin"
)

// login handles GET /auth/login/:provider, the start of the OIDC
// sign-in flow.
func (h *Handler) login(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	state := generateState(c)
	_, codeChallenge := generatePKCE(c)

	authURL := p.AuthCodeURL(state, codeChallenge)
	c.Redirect(http.StatusFound, authURL)
}

// callback handles GET /auth/callback/:provider.
func (h *Handler) callback(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	if !validateState(c) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "invalid state",
		})
		return
	}

	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oidc callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		c.Redirect(http.StatusFound, "/login")
		return
	}

	code := c.Query("code")
	if code == "" {
		logger.Error("oidc callback missing code and error", nil)
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	codeVerifier := getPKCEVerifier(c)
	if codeVerifier == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "missing pkce verifier",
		})
		return
	}

	identity, err := p.ExchangeCode(
		c.Request.Context(),
		code,
		codeVerifier,
	)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "authentication failed",
		})
		return
	}

	var displayName *string
	if identity.Name != "" {
		displayName = &identity.Name
	}

	user, err := h.users.FindOrCreateByEmail(
		c.Request.Context(),
		identity.Email,
		displayName,
		identity.EmailVerified,
	)
	if err != nil {
		logger.Error("failed to resolve oidc user", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to resolve user",
		})
		return
	}

	credential, expires, err := h.sessions.Issue(user.ID, sessionTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to create session",
		})
		return
	}

	session.SetCookie(c.Writer, credential, expires, h.cookies)

	c.Redirect(http.StatusFound, "/dashboard")
}

// Connect handles GET /oauth/:provider behind RequireAuth: it sends the
// signed-in user to the data provider's authorize endpoint with their
// user id as state.
func (h *Handler) Connect(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	connector, err := h.providers.Connector(c.Param("provider"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "provider not configured"})
		return
	}

	c.Redirect(http.StatusFound, connector.AuthorizeURL(userID))
}
