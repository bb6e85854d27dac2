package handler

import (
	"time"

	"auth-gateway/internal/auth/provider"
	"auth-gateway/internal/magiclink"
	"auth-gateway/internal/middleware"
	"auth-gateway/internal/ratelimit"
	"auth-gateway/internal/session"
	"auth-gateway/internal/signup"
	"auth-gateway/internal/users"

	"github.com/gin-gonic/gin"
)

const sessionTTL = 24 * time.Hour

type Handler struct {
	signup    *signup.Service
	magic     *magiclink.Service
	sessions  *session.Manager
	providers *provider.Registry
	users     users.Store
	limiter   *ratelimit.Limiter
	cookies   session.CookieOptions

	// restart triggers a process-level restart (dev affordance).
	restart func()
}

func NewHandler(
	signupService *signup.Service,
	magicService *magiclink.Service,
	sessions *session.Manager,
	registry *provider.Registry,
	userStore users.Store,
	limiter *ratelimit.Limiter,
	cookies session.CookieOptions,
	restart func(),
) *Handler {
	return &Handler{
		signup:    signupService,
		magic:     magicService,
		sessions:  sessions,
		providers: registry,
		users:     userStore,
		limiter:   limiter,
		cookies:   cookies,
		restart:   restart,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, auth *middleware.AuthMiddleware) {

	r.POST("/auth/signup", h.Signup)
	r.POST("/auth/request-magic-link", h.RequestMagicLink)
	r.GET("/auth/validate-magic-token", h.ValidateMagicToken)

	r.GET("/auth/login/:provider", h.login)
	r.GET("/auth/callback/:provider", h.callback)

	r.POST("/api/auth/magic-token", h.ExchangeMagicToken)
	r.GET("/api/auth/session", h.SessionInfo)
	r.POST("/api/auth/logout", h.Logout)

	r.POST("/api/cron/purge-tokens", h.PurgeTokens)

	requireAuth := middleware.GinRequireAuth(auth)
	r.GET("/oauth/:provider", requireAuth, h.Connect)
	r.POST("/settings/restart", requireAuth, h.Restart)
}
