package middleware

import (
	"errors"
	"net/http"
	"net/url"

	"auth-gateway/internal/logger"
	"auth-gateway/internal/session"

	"github.com/gin-gonic/gin"
)

// Stable machine-readable codes returned on the 401 branches.
const (
	CodeSessionExpired = "SESSION_EXPIRED"
	CodeInvalidSession = "INVALID_SESSION"
)

// Gate is the session gate in front of the whole router. It classifies
// every path, verifies the session credential on protected ones, and
// either forwards, rejects, or redirects.
//
// Cookie purging happens only on the invalid branch: absence is the
// normal unauthenticated state and does not imply a tampered credential.
type Gate struct {
	sessions *session.Manager
	cookies  session.CookieOptions
}

func NewGate(sessions *session.Manager, cookies session.CookieOptions) *Gate {
	return &Gate{sessions: sessions, cookies: cookies}
}

func (g *Gate) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		class := Classify(c.Request.URL.Path)

		switch class {
		case RouteBypass, RoutePublic, RouteOther:
			c.Next()
			return
		}

		credential, err := session.FromRequest(c.Request)
		if err == nil {
			var userID string
			userID, _, err = g.sessions.Verify(credential)
			if err == nil {
				c.Request = c.Request.WithContext(
					WithUserID(c.Request.Context(), userID),
				)
				c.Next()
				return
			}
		}

		if errors.Is(err, session.ErrInvalid) {
			g.rejectInvalid(c, class)
			return
		}

		// Absent or simply expired.
		g.rejectAbsent(c, class)
	}
}

func (g *Gate) rejectAbsent(c *gin.Context, class RouteClass) {
	if class == RouteAPI {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "authentication required",
			"code":  CodeSessionExpired,
		})
		return
	}

	callback := url.QueryEscape(c.Request.URL.Path)
	c.Redirect(http.StatusFound, "/login?callbackUrl="+callback)
	c.Abort()
}

func (g *Gate) rejectInvalid(c *gin.Context, class RouteClass) {
	logger.Warn("session credential failed verification", map[string]any{
		"path": c.Request.URL.Path,
	})

	// Defensive invalidation: drop both cookie variants.
	session.ClearCookies(c.Writer, g.cookies)

	if class == RouteAPI {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid session",
			"code":  CodeInvalidSession,
		})
		return
	}

	c.Redirect(http.StatusFound, "/login?error=SessionExpired")
	c.Abort()
}
