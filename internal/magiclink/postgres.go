package magiclink

import (
	"context"
	"database/sql"

	"auth-gateway/internal/db"
)

type PostgresStore struct {
	db *db.DB
}

func NewPostgresStore(db *db.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, t Token) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verification_tokens (identifier, token, expires)
		VALUES ($1, $2, $3)
	`, t.Identifier, t.Token, t.Expires)
	return err
}

// Consume removes the token and returns the row it held. The single
// DELETE ... RETURNING statement is what makes tokens single-use:
// exactly one caller can ever see a given row.
func (s *PostgresStore) Consume(ctx context.Context, tokenValue string) (*Token, error) {
	row := s.db.QueryRowContext(ctx, `
		DELETE FROM verification_tokens
		WHERE token = $1
		RETURNING identifier, token, expires, created_at
	`, tokenValue)

	var t Token
	err := row.Scan(&t.Identifier, &t.Token, &t.Expires, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil // unknown or already consumed
	}
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM verification_tokens
		WHERE expires < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
