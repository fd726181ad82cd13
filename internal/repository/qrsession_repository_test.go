package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/whytehoux-projecty/Registration-Login-System/internal/model"
)

func newMockRepo(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

func TestQRSessionRepositoryCreate(t *testing.T) {
	db, mock := newMockRepo(t)
	repo := NewQRSessionRepository(NewBaseRepository(db))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO qr_sessions")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	s := &model.QRSession{
		Token:     "tok",
		ServiceID: 1,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Minute),
	}
	require.NoError(t, repo.Create(context.Background(), s))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQRSessionRepositoryGetByTokenNotFound(t *testing.T) {
	db, mock := newMockRepo(t)
	repo := NewQRSessionRepository(NewBaseRepository(db))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT token, service_id, user_auth_key, pin, created_at, expires_at")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"token", "service_id", "user_auth_key", "pin", "created_at", "expires_at",
			"is_used", "is_verified", "scanned_at", "verified_at",
		}))

	s, err := repo.GetByToken(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, s)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQRSessionRepositoryScanConditionalUpdate(t *testing.T) {
	db, mock := newMockRepo(t)
	repo := NewQRSessionRepository(NewBaseRepository(db))

	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE qr_sessions")).
		WithArgs("tok", "authkey", "1234", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.Scan(context.Background(), "tok", "authkey", "1234", now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQRSessionRepositoryScanLosesRaceReturnsZeroRows(t *testing.T) {
	db, mock := newMockRepo(t)
	repo := NewQRSessionRepository(NewBaseRepository(db))

	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE qr_sessions")).
		WithArgs("tok", "authkey", "1234", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.Scan(context.Background(), "tok", "authkey", "1234", now)
	require.NoError(t, err)
	require.EqualValues(t, 0, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQRSessionRepositoryDeleteExpiredBefore(t *testing.T) {
	db, mock := newMockRepo(t)
	repo := NewQRSessionRepository(NewBaseRepository(db))

	cutoff := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM qr_sessions WHERE expires_at < $1")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpiredBefore(context.Background(), cutoff)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
