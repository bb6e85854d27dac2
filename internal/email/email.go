package email

import (
	"context"

	"auth-gateway/internal/logger"
)

// Sender delivers magic-link emails. Implementations must not retain
// or log the link on the production path.
type Sender interface {
	SendMagicLink(ctx context.Context, to, link string) error
}

// ConsoleSender is the development fallback used when no email API key
// is configured: it writes the link to the log instead of sending it.
type ConsoleSender struct{}

func (ConsoleSender) SendMagicLink(_ context.Context, to, link string) error {
	logger.Info("magic link (email delivery disabled)", map[string]any{
		"to":   to,
		"link": link,
	})
	return nil
}
