package middleware

import (
	"strings"
)

// RouteClass is the static classification of a request path. It is a
// pure function of the path prefix, computed before any I/O.
type RouteClass int

const (
	// RouteBypass paths (assets, favicon, images) skip the gate entirely.
	RouteBypass RouteClass = iota
	// RoutePublic paths pass through regardless of session state.
	RoutePublic
	// RoutePage paths require a session; failures redirect to /login.
	RoutePage
	// RouteAPI paths require a session; failures get a 401 JSON body.
	RouteAPI
	// RouteOther paths are not the gate's business.
	RouteOther
)

var publicPrefixes = []string{
	"/login",
	"/signup",
	"/api/auth",
	"/api/cron",
}

var imageExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico",
}

// Classify maps a request path onto a route class.
//
// The asset filter is an explicit early exit, not part of the public
// list: asset requests are frequent and must never cost a credential
// parse.
func Classify(path string) RouteClass {
	if strings.HasPrefix(path, "/static/") || path == "/favicon.ico" {
		return RouteBypass
	}
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return RouteBypass
		}
	}

	if path == "/" {
		return RoutePublic
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return RoutePublic
		}
	}

	if strings.HasPrefix(path, "/dashboard") {
		return RoutePage
	}
	if strings.HasPrefix(path, "/api/") {
		return RouteAPI
	}

	return RouteOther
}
