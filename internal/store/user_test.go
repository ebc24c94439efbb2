package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/authgate/apiserver/types"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertUserQuery = `(?s)^\s*INSERT\s+INTO\s+users\s*\(id,\s*username,\s*email,\s*password_hash,\s*access_token,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*$`
	byUsernameQuery = `(?s)^\s*SELECT\s+id,\s*username,\s*email,\s*password_hash,\s*access_token\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s*$`
	byTokenQuery    = `(?s)^\s*SELECT\s+id,\s*username,\s*email,\s*password_hash,\s*access_token\s+FROM\s+users\s+WHERE\s+access_token\s*=\s*\$1\s*$`
)

var userColumns = []string{"id", "username", "email", "password_hash", "access_token"}

func newRepoWithMock(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp), sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewUserRepository(db)
	seq := 0
	repo.newToken = func() (types.AccessToken, error) {
		seq++
		return types.AccessToken(fmt.Sprintf("token-%d", seq)), nil
	}
	repo.newUserID = func() string { return fmt.Sprintf("user-%d", seq) }
	return repo, mock
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(insertUserQuery).
		WithArgs("user-1", "amy", "amy@x.com", "hash", "token-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Create(context.Background(), types.User{Username: "amy", Email: "amy@x.com", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.ID)
	assert.Equal(t, types.AccessToken("token-1"), got.AccessToken)
	assert.Equal(t, "hash", got.PasswordHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolations(t *testing.T) {
	tests := []struct {
		constraint string
		message    string
	}{
		{constraint: "users_username_key", message: "username already exists"},
		{constraint: "users_email_key", message: "email already exists"},
		{constraint: "users_pkey", message: "record already exists"},
	}

	for _, tc := range tests {
		t.Run(tc.constraint, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			mock.ExpectExec(insertUserQuery).
				WillReturnError(&pq.Error{Code: "23505", Constraint: tc.constraint})

			_, err := repo.Create(context.Background(), types.User{Username: "amy", Email: "amy@x.com", PasswordHash: "hash"})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConflict)
			assert.Equal(t, tc.message, err.Error())
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCreate_RetriesTokenCollision(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(insertUserQuery).
		WithArgs("user-1", "amy", "amy@x.com", "hash", "token-1", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_access_token_key"})
	mock.ExpectExec(insertUserQuery).
		WithArgs("user-2", "amy", "amy@x.com", "hash", "token-2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Create(context.Background(), types.User{Username: "amy", Email: "amy@x.com", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.Equal(t, types.AccessToken("token-2"), got.AccessToken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(insertUserQuery).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), types.User{Username: "amy", Email: "amy@x.com", PasswordHash: "hash"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "db down")
}

func TestCreate_TokenGenerationError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	repo.newToken = func() (types.AccessToken, error) { return "", errors.New("entropy exhausted") }

	_, err := repo.Create(context.Background(), types.User{Username: "amy"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate access token")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByUsername(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(byUsernameQuery).
		WithArgs("amy").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow("user-1", "amy", "amy@x.com", "hash", "tok"))

	got, err := repo.GetByUsername(context.Background(), "amy")
	require.NoError(t, err)
	assert.Equal(t, types.User{ID: "user-1", Username: "amy", Email: "amy@x.com", PasswordHash: "hash", AccessToken: "tok"}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByUsername_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(byUsernameQuery).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByUsername_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(byUsernameQuery).WillReturnError(sql.ErrConnDone)

	_, err := repo.GetByUsername(context.Background(), "amy")
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestGetByToken(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(byTokenQuery).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow("user-1", "amy", "amy@x.com", "hash", "tok"))

	got, err := repo.GetByToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "amy", got.Username)
	assert.Equal(t, types.AccessToken("tok"), got.AccessToken)
}

func TestGetByToken_EmptySkipsQuery(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	_, err := repo.GetByToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByToken_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(byTokenQuery).
		WithArgs("garbage").
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.GetByToken(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReady(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectPing()
	require.NoError(t, repo.Ready(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, repo.Ready(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewAccessToken(t *testing.T) {
	first, err := NewAccessToken()
	require.NoError(t, err)
	second, err := NewAccessToken()
	require.NoError(t, err)

	assert.Len(t, first.Value(), 256)
	_, err = hex.DecodeString(first.Value())
	assert.NoError(t, err)
	assert.NotEqual(t, first, second)
}
