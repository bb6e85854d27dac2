package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"

	"auth-gateway/internal/auth/handler"
	"auth-gateway/internal/auth/provider"
	"auth-gateway/internal/auth/provider/google"
	"auth-gateway/internal/auth/provider/whoop"
	"auth-gateway/internal/backend"
	"auth-gateway/internal/config"
	"auth-gateway/internal/email"
	"auth-gateway/internal/logger"
	"auth-gateway/internal/magiclink"
	"auth-gateway/internal/middleware"
	"auth-gateway/internal/ratelimit"
	"auth-gateway/internal/session"
	"auth-gateway/internal/signup"
	"auth-gateway/internal/users"

	"github.com/gin-gonic/gin"
)

const (
	magicLinkRateLimit  = 5
	magicLinkRateWindow = 15 * time.Minute
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	if cfg.SessionSecret == "" {
		return nil, nil, errors.New("SESSION_SECRET must be set")
	}

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	userStore := users.NewPostgresStore(infra.DB)
	tokenStore := magiclink.NewPostgresStore(infra.DB)

	sessions := session.NewManager(cfg.SessionSecret)

	cookieOpts := session.CookieOptions{
		Secure:   strings.HasPrefix(cfg.AppBaseURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	}

	var sender email.Sender = email.ConsoleSender{}
	if cfg.ResendAPIKey != "" {
		sender = email.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom)
	} else {
		logger.Warn("RESEND_API_KEY not set, magic links will be logged", nil)
	}

	magicService := magiclink.NewService(userStore, tokenStore, sender, cfg.AppBaseURL)

	signupService := signup.NewService(userStore, backend.New(cfg.BackendAPIURL))

	limiter := ratelimit.NewLimiter(
		infra.Redis.Client,
		"magiclink:",
		magicLinkRateLimit,
		magicLinkRateWindow,
	)

	registry := provider.NewRegistry()

	if cfg.GoogleClientID != "" {
		googleProvider, err := google.New(
			ctx,
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.GoogleRedirectURL,
		)
		if err != nil {
			return nil, nil, err
		}
		registry = provider.NewRegistry(googleProvider)
	} else {
		logger.Warn("google sign-in not configured", nil)
	}

	if cfg.WhoopClientID != "" {
		whoopProvider, err := whoop.New(cfg.WhoopClientID, cfg.WhoopRedirectURL)
		if err != nil {
			return nil, nil, err
		}
		registry.AddConnector(whoopProvider)
	} else {
		logger.Warn("whoop connect not configured", nil)
	}

	authHandler := handler.NewHandler(
		signupService,
		magicService,
		sessions,
		registry,
		userStore,
		limiter,
		cookieOpts,
		restartProcess,
	)

	authMiddleware := middleware.NewAuthMiddleware(sessions)
	gate := middleware.NewGate(sessions, cookieOpts)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gate.Handler())

	authHandler.RegisterRoutes(router, authMiddleware)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return router, func() error {
		return infra.DB.Close()
	}, nil
}

// restartProcess signals the process itself, relying on the supervisor
// to bring it back up. Development-only affordance.
func restartProcess() {
	time.Sleep(100 * time.Millisecond)
	logger.Warn("restart signal sent", nil)
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		return
	}
	_ = p.Signal(syscall.SIGTERM)
}
