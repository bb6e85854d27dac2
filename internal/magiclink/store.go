package magiclink

import (
	"context"
	"time"
)

// Token is a single-use login token row. Identifier is the email the
// token was issued for.
type Token struct {
	Identifier string
	Token      string
	Expires    time.Time
	CreatedAt  time.Time
}

// Store persists magic-link tokens. Consume must be atomic: the row is
// removed in the same operation that reads it, so a token can never be
// returned twice. The token primary key is the only concurrency control.
type Store interface {
	Create(ctx context.Context, t Token) error
	Consume(ctx context.Context, tokenValue string) (*Token, error)
	PurgeExpired(ctx context.Context) (int64, error)
}
