package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want RouteClass
	}{
		{"/", RoutePublic},
		{"/login", RoutePublic},
		{"/login/magic", RoutePublic},
		{"/signup", RoutePublic},
		{"/api/auth/session", RoutePublic},
		{"/api/auth/magic-token", RoutePublic},
		{"/api/cron/purge-tokens", RoutePublic},

		{"/dashboard", RoutePage},
		{"/dashboard/settings", RoutePage},
		{"/api/me", RouteAPI},
		{"/api/settings/restart", RouteAPI},

		{"/favicon.ico", RouteBypass},
		{"/static/app.js", RouteBypass},
		{"/logo.png", RouteBypass},
		{"/images/hero.jpg", RouteBypass},
		{"/dashboard/chart.svg", RouteBypass},

		{"/auth/signup", RouteOther},
		{"/auth/validate-magic-token", RouteOther},
		{"/oauth/whoop", RouteOther},
		{"/settings/restart", RouteOther},
		{"/health", RouteOther},
		{"/api", RouteOther}, // no trailing slash, not an API prefix match
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.path))
		})
	}
}
