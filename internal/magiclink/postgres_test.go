package magiclink

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth-gateway/internal/db"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewPostgresStore(&db.DB{DB: sqlDB}), mock
}

func TestPostgresStore_Create(t *testing.T) {
	store, mock := newMockStore(t)

	expires := time.Now().Add(TokenTTL)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO verification_tokens")).
		WithArgs("a@x.com", "tok-1", expires).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Create(context.Background(), Token{
		Identifier: "a@x.com",
		Token:      "tok-1",
		Expires:    expires,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Consume(t *testing.T) {
	store, mock := newMockStore(t)

	expires := time.Now().Add(time.Minute)
	created := time.Now().Add(-time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM verification_tokens")).
		WithArgs("tok-1").
		WillReturnRows(
			sqlmock.NewRows([]string{"identifier", "token", "expires", "created_at"}).
				AddRow("a@x.com", "tok-1", expires, created),
		)

	token, err := store.Consume(context.Background(), "tok-1")

	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "a@x.com", token.Identifier)
	assert.Equal(t, "tok-1", token.Token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ConsumeUnknown(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM verification_tokens")).
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"identifier", "token", "expires", "created_at"}))

	token, err := store.Consume(context.Background(), "gone")

	require.NoError(t, err)
	assert.Nil(t, token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PurgeExpired(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM verification_tokens")).
		WillReturnResult(sqlmock.NewResult(0, 3))

	purged, err := store.PurgeExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(3), purged)
	assert.NoError(t, mock.ExpectationsWereMet())
}
