package whoop

import (
	"errors"

	"golang.org/x/oauth2"
)

const providerName = "whoop"

// WHOOP's hosted OAuth endpoints.
const (
	authURL  = "https://api.prod.whoop.com/oauth/oauth2/auth"
	tokenURL = "https://api.prod.whoop.com/oauth/oauth2/token"
)

var scopes = []string{
	"offline",
	"read:profile",
	"read:recovery",
	"read:sleep",
	"read:workout",
	"read:cycles",
}

// Provider builds the authorize redirect for connecting a WHOOP account
// to an existing session. Token exchange and data sync happen in the
// backend identity system, not here.
type Provider struct {
	oauthConfig *oauth2.Config
}

func New(clientID, redirectURL string) (*Provider, error) {
	if clientID == "" || redirectURL == "" {
		return nil, errors.New("whoop oauth config missing required fields")
	}

	return &Provider{
		oauthConfig: &oauth2.Config{
			ClientID:    clientID,
			RedirectURL: redirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
			Scopes: scopes,
		},
	}, nil
}

func (p *Provider) Name() string {
	return providerName
}

// AuthorizeURL returns the authorize endpoint carrying
// response_type=code, client_id, redirect_uri, the scope string and the
// caller-supplied state.
func (p *Provider) AuthorizeURL(state string) string {
	return p.oauthConfig.AuthCodeURL(state)
}
