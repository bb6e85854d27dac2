package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoCredential means the request carried no session cookie at all.
	ErrNoCredential = errors.New("session: no credential")
	// ErrExpired means the credential was well-formed but past its expiry.
	ErrExpired = errors.New("session: credential expired")
	// ErrInvalid means the credential could not be parsed or its
	// signature did not verify. Callers treat this as possible tampering.
	ErrInvalid = errors.New("session: invalid credential")
)

// Manager validates (and, for the login surface, issues) the opaque
// signed session credential carried in cookies. The gate only ever
// calls Verify; Issue is reserved for the /api/auth exchange endpoints
// and the OIDC callback.
type Manager struct {
	secret []byte
}

func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

// Issue signs a new session credential for the given user.
func (m *Manager) Issue(userID string, ttl time.Duration) (string, time.Time, error) {
	expires := time.Now().Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expires),
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("session: failed to sign: %w", err)
	}

	return signed, expires, nil
}

// Verify checks the credential's signature and expiry and returns the
// user id it was issued for. Expiry maps to ErrExpired, everything
// else to ErrInvalid.
func (m *Manager) Verify(credential string) (string, time.Time, error) {
	var claims jwt.RegisteredClaims

	_, err := jwt.ParseWithClaims(credential, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return m.secret, nil
		},
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", time.Time{}, ErrExpired
		}
		return "", time.Time{}, ErrInvalid
	}

	if claims.Subject == "" || claims.ExpiresAt == nil {
		return "", time.Time{}, ErrInvalid
	}

	return claims.Subject, claims.ExpiresAt.Time, nil
}

// FromRequest extracts the raw credential from either session cookie.
// The secure-prefixed cookie wins when both are present.
func FromRequest(r *http.Request) (string, error) {
	for _, name := range []string{SecureCookieName, CookieName} {
		if cookie, err := r.Cookie(name); err == nil && cookie.Value != "" {
			return cookie.Value, nil
		}
	}
	return "", ErrNoCredential
}
