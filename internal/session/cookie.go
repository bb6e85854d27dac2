package session

import (
	"net/http"
	"time"
)

const (
	CookieName       = "session-token"
	SecureCookieName = "__Secure-session-token"
)

// CookieOptions defines how session cookies are issued.
type CookieOptions struct {
	Path     string
	HttpOnly bool
	Secure   bool
	SameSite http.SameSite
	Domain   string
}

// normalize applies safe defaults without breaking callers
func (o CookieOptions) normalize() CookieOptions {
	if o.Path == "" {
		o.Path = "/"
	}
	if !o.HttpOnly {
		o.HttpOnly = true // secure default
	}
	return o
}

// SetCookie issues the session cookie to the client. The secure-prefixed
// twin is only set when the connection allows it.
func SetCookie(
	w http.ResponseWriter,
	credential string,
	expiresAt time.Time,
	opts CookieOptions,
) {
	opts = opts.normalize()

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    credential,
		Path:     opts.Path,
		Domain:   opts.Domain,
		Expires:  expiresAt,
		HttpOnly: opts.HttpOnly,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})

	if opts.Secure {
		http.SetCookie(w, &http.Cookie{
			Name:     SecureCookieName,
			Value:    credential,
			Path:     opts.Path,
			Domain:   opts.Domain,
			Expires:  expiresAt,
			HttpOnly: opts.HttpOnly,
			Secure:   true,
			SameSite: opts.SameSite,
		})
	}
}

// ClearCookies removes both session cookies from the client. Called on
// logout and on the defensive-invalidation branch of the gate.
func ClearCookies(
	w http.ResponseWriter,
	opts CookieOptions,
) {
	opts = opts.normalize()

	for _, name := range []string{CookieName, SecureCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     opts.Path,
			Domain:   opts.Domain,
			MaxAge:   -1,
			HttpOnly: opts.HttpOnly,
			Secure:   opts.Secure || name == SecureCookieName,
			SameSite: opts.SameSite,
		})
	}
}
