package magiclink

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"auth-gateway/internal/email"
	"auth-gateway/internal/logger"
	"auth-gateway/internal/users"
	"auth-gateway/internal/utils"
)

const (
	// TokenTTL is how long an issued magic link stays redeemable.
	TokenTTL = 15 * time.Minute

	// tokenBytes gives 256 bits of entropy, a fixed 43-char string.
	tokenBytes = 32

	validatePath = "/auth/validate-magic-token"
)

var (
	ErrTokenInvalid = errors.New("magiclink: token unknown or already used")
	ErrTokenExpired = errors.New("magiclink: token expired")
)

// Service owns the magic-link lifecycle: issuing tokens for known
// addresses and consuming them during the session exchange.
type Service struct {
	users   users.Store
	tokens  Store
	sender  email.Sender
	baseURL string
}

func NewService(
	userStore users.Store,
	tokenStore Store,
	sender email.Sender,
	baseURL string,
) *Service {
	return &Service{
		users:   userStore,
		tokens:  tokenStore,
		sender:  sender,
		baseURL: baseURL,
	}
}

// Issue creates and dispatches a magic link for the given address.
//
// The caller always answers with the same generic message, so nothing
// here may change the response based on whether the address is
// registered. Failures past the lookup are logged and swallowed for the
// same reason: a 500 that only fires for known addresses would be an
// enumeration oracle. Outstanding tokens for the address stay valid;
// issuing does not revoke them.
func (s *Service) Issue(ctx context.Context, address string) error {

	user, err := s.users.FindByEmail(ctx, address)
	if err != nil {
		return fmt.Errorf("magiclink: user lookup failed: %w", err)
	}
	if user == nil {
		return nil
	}

	token := Token{
		Identifier: user.Email,
		Token:      utils.RandomString(tokenBytes),
		Expires:    time.Now().Add(TokenTTL),
	}

	if err := s.tokens.Create(ctx, token); err != nil {
		logger.Error("failed to persist magic-link token", map[string]any{
			"error": err.Error(),
		})
		return nil
	}

	link := s.baseURL + validatePath + "?token=" + url.QueryEscape(token.Token)

	if err := s.sender.SendMagicLink(ctx, user.Email, link); err != nil {
		// The token value must never reach the log.
		logger.Error("failed to send magic-link email", map[string]any{
			"error": err.Error(),
		})
	}

	return nil
}

// Consume redeems a token: at most one call per token value ever
// succeeds, and only strictly before its expiry. Returns the user the
// token was issued for.
func (s *Service) Consume(ctx context.Context, tokenValue string) (*users.User, error) {
	if tokenValue == "" {
		return nil, ErrTokenInvalid
	}

	token, err := s.tokens.Consume(ctx, tokenValue)
	if err != nil {
		return nil, fmt.Errorf("magiclink: token lookup failed: %w", err)
	}
	if token == nil {
		return nil, ErrTokenInvalid
	}

	if !time.Now().Before(token.Expires) {
		return nil, ErrTokenExpired
	}

	user, err := s.users.FindByEmail(ctx, token.Identifier)
	if err != nil {
		return nil, fmt.Errorf("magiclink: user lookup failed: %w", err)
	}
	if user == nil {
		return nil, ErrTokenInvalid
	}

	return user, nil
}

// PurgeExpired sweeps expired token rows. Redemption already rejects
// expired tokens, so this is housekeeping only.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.tokens.PurgeExpired(ctx)
}
