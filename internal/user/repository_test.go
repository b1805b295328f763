package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-auth-service/internal/database"
)

var userColumns = []string{"id", "name", "email", "password_hash", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T, monitorPings bool) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
		sqlmock.MonitorPingsOption(monitorPings),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return NewRepository(database.NewBunDB(sqlDB)), mock
}

func TestRepository_FindByEmail_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t, false)

	id := uuid.New()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM "users" AS "u" WHERE .*email = 'ana@x\.com'`).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(id.String(), "Ana", "ana@x.com", "$2a$10$hash", now, now))

	got, err := repo.FindByEmail(context.Background(), "ana@x.com")
	require.NoError(t, err)

	assert.Equal(t, id.String(), got.ID)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, "ana@x.com", got.Email)
	assert.Equal(t, "$2a$10$hash", got.PasswordHash)
	assert.True(t, now.Equal(got.CreatedAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByEmail_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t, false)

	mock.ExpectQuery(`SELECT .+ FROM "users"`).
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.FindByEmail(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_FindByEmail_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t, false)

	dbDown := errors.New("db down")
	mock.ExpectQuery(`SELECT .+ FROM "users"`).WillReturnError(dbDown)

	_, err := repo.FindByEmail(context.Background(), "ana@x.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, dbDown)
	assert.NotErrorIs(t, err, ErrNotFound)

	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "user_store", oopsErr.Domain())
	assert.Equal(t, "STORE_UNAVAILABLE", oopsErr.Code())
}

func TestRepository_Create_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t, false)

	id := uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery(`INSERT INTO "users" .*'Ana', 'ana@x\.com', 'hashed'.* RETURNING \*`).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(id.String(), "Ana", "ana@x.com", "hashed", now, now))

	got, err := repo.Create(context.Background(), "Ana", "ana@x.com", "hashed")
	require.NoError(t, err)

	assert.Equal(t, id.String(), got.ID)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, "hashed", got.PasswordHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create_UniqueViolation(t *testing.T) {
	repo, mock := newRepoWithMock(t, false)

	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(&pq.Error{Code: "23505", Message: `duplicate key value violates unique constraint "users_email_key"`})

	_, err := repo.Create(context.Background(), "Ana", "ana@x.com", "hashed")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRepository_Create_OtherError(t *testing.T) {
	repo, mock := newRepoWithMock(t, false)

	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(&pq.Error{Code: "53300", Message: "too many connections"})

	_, err := repo.Create(context.Background(), "Ana", "ana@x.com", "hashed")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)
}

func TestRepository_ConnectAndDisconnect(t *testing.T) {
	repo, mock := newRepoWithMock(t, true)

	mock.ExpectPing()
	require.NoError(t, repo.Connect(context.Background()))

	mock.ExpectClose()
	require.NoError(t, repo.Disconnect(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Connect_PingFails(t *testing.T) {
	repo, mock := newRepoWithMock(t, true)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	err := repo.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
