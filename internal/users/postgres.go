package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"auth-gateway/internal/db"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const userColumns = `
	id, email, password_hash, name, email_verified,
	backend_user_id, created_at, updated_at
`

// PostgresStore is the canonical Store. All writes lean on the
// users_email_unique index for idempotency.
type PostgresStore struct {
	db *db.DB
}

func NewPostgresStore(db *db.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, u NewUser) (*User, error) {

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, name, email_verified)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		u.Email, u.PasswordHash, u.Name, u.EmailVerified,
	)

	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return user, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email)

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *PostgresStore) FindOrCreateByEmail(
	ctx context.Context,
	email string,
	name *string,
	verified bool,
) (*User, error) {

	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	var verifiedAt *time.Time
	if verified {
		now := time.Now()
		verifiedAt = &now
	}

	user, err = s.Create(ctx, NewUser{
		Email:         email,
		Name:          name,
		EmailVerified: verifiedAt,
	})

	if errors.Is(err, ErrEmailTaken) {
		// Lost a create race; the row exists now.
		return s.FindByEmail(ctx, email)
	}

	return user, err
}

func (s *PostgresStore) SetBackendUserID(ctx context.Context, id, backendUserID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET backend_user_id = $2, updated_at = NOW()
		WHERE id = $1
	`, id, backendUserID)
	return err
}

func (s *PostgresStore) MarkEmailVerified(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET email_verified = NOW(), updated_at = NOW()
		WHERE id = $1 AND email_verified IS NULL
	`, id)
	return err
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		u  User
		id uuid.UUID
	)
	err := row.Scan(
		&id,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.EmailVerified,
		&u.BackendUserID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.ID = id.String()
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
