package provider

import (
	"context"
)

// Identity represents a normalized external authentication identity
// returned by an OAuth provider. It contains facts only, no decisions.
type Identity struct {
	Provider       string // e.g. "google"
	ProviderUserID string // provider-scoped unique user identifier (sub)
	Email          string // verified email returned by provider
	EmailVerified  bool   // whether provider asserts email ownership
	Name           string // display name, empty when the provider has none
}

// OAuthProvider is the contract for sign-in providers. Implementations
// return identity facts only and must not perform user creation,
// linking, or session management.
type OAuthProvider interface {
	// Name returns the provider identifier (e.g. "google").
	Name() string

	// AuthCodeURL returns the OAuth authorization URL.
	// State and PKCE parameters are provided by the caller.
	AuthCodeURL(state string, codeChallenge string) string

	// ExchangeCode exchanges the authorization code for provider
	// credentials and returns a normalized identity.
	ExchangeCode(
		ctx context.Context,
		code string,
		codeVerifier string,
	) (*Identity, error)
}

// Connector is the contract for data providers an already-signed-in
// user links their account to (e.g. a wearable). Only the authorize
// redirect is built here; the provider's callback is handled elsewhere.
type Connector interface {
	Name() string

	// AuthorizeURL returns the provider's authorize endpoint with
	// response_type=code, client id, redirect URI, scopes and the
	// given state.
	AuthorizeURL(state string) string
}
