package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestServicesRepositoryGetByIDNotFound(t *testing.T) {
	db, mock := newMockRepo(t)
	repo := NewServicesRepository(NewBaseRepository(db))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, api_key, callback_url, is_active, created_at")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "api_key", "callback_url", "is_active", "created_at"}))

	s, err := repo.GetByID(context.Background(), 99)
	require.NoError(t, err)
	require.Nil(t, s)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServicesRepositoryGetByIDFound(t *testing.T) {
	db, mock := newMockRepo(t)
	repo := NewServicesRepository(NewBaseRepository(db))

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, api_key, callback_url, is_active, created_at")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "api_key", "callback_url", "is_active", "created_at"}).
			AddRow(1, "storefront-kiosk", "demo-key", "https://kiosk.example.com/callback", true, now))

	s, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "storefront-kiosk", s.Name)
	require.True(t, s.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersRepositoryGetByAuthKey(t *testing.T) {
	db, mock := newMockRepo(t)
	repo := NewUsersRepository(NewBaseRepository(db))

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, email, auth_key, is_active, last_login, created_at")).
		WithArgs("authkey-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "auth_key", "is_active", "last_login", "created_at"}).
			AddRow(1, "john_doe", "john@example.com", "authkey-1", true, nil, now))

	u, err := repo.GetByAuthKey(context.Background(), "authkey-1")
	require.NoError(t, err)
	require.Equal(t, "john_doe", u.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersRepositoryUpdateLastLogin(t *testing.T) {
	db, mock := newMockRepo(t)
	repo := NewUsersRepository(NewBaseRepository(db))

	now := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE active_users SET last_login = $2 WHERE id = $1")).
		WithArgs(int64(1), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateLastLogin(context.Background(), 1, now))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminsRepositoryGetByUsernameNotFound(t *testing.T) {
	db, mock := newMockRepo(t)
	repo := NewAdminsRepository(NewBaseRepository(db))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, password_hash, role, created_at")).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "created_at"}))

	a, err := repo.GetByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	require.Nil(t, a)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminsRepositoryGetByUsernameFound(t *testing.T) {
	db, mock := newMockRepo(t)
	repo := NewAdminsRepository(NewBaseRepository(db))

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, password_hash, role, created_at")).
		WithArgs("root").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "created_at"}).
			AddRow(1, "root", "$2a$hash", "super_admin", now))

	a, err := repo.GetByUsername(context.Background(), "root")
	require.NoError(t, err)
	require.Equal(t, "super_admin", a.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}
