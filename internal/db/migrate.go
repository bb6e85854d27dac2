package db

import (
	"context"
	"database/sql"
)

type DB struct {
	*sql.DB
}

const gatewayMigration = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS users (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    email text NOT NULL,
    password_hash text,
    name text,
    email_verified timestamptz,
    backend_user_id text,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS users_email_unique
ON users (email);

CREATE TABLE IF NOT EXISTS verification_tokens (
    identifier text NOT NULL,
    token text PRIMARY KEY,
    expires timestamptz NOT NULL,
    created_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS verification_tokens_expires_idx
ON verification_tokens (expires);
`

func RunGatewayMigration(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, gatewayMigration)
	return err
}
