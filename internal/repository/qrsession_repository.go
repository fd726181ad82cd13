package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/whytehoux-projecty/Registration-Login-System/internal/model"
)

// QRSessionRepository persists QR challenge rows and implements the
// conditional-update primitives the state machine needs for at-most-once
// scan/verify transitions (spec.md §4.4).
type QRSessionRepository interface {
	Create(ctx context.Context, s *model.QRSession) error
	GetByToken(ctx context.Context, token string) (*model.QRSession, error)
	// Scan performs the CREATED->SCANNED transition conditionally on
	// is_used=false, returning rowsAffected so the caller can distinguish
	// "already scanned" from "succeeded".
	Scan(ctx context.Context, token, authKey, pin string, scannedAt time.Time) (int64, error)
	// Verify performs the SCANNED->VERIFIED transition conditionally on
	// is_verified=false, returning rowsAffected.
	Verify(ctx context.Context, token string, verifiedAt time.Time) (int64, error)
	// DeleteExpiredBefore removes rows whose expiry is older than cutoff,
	// used by the sweeper.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type qrSessionRepository struct {
	*BaseRepository
}

// NewQRSessionRepository builds the Postgres-backed QRSessionRepository.
func NewQRSessionRepository(base *BaseRepository) QRSessionRepository {
	return &qrSessionRepository{BaseRepository: base}
}

const insertQRSessionQuery = `
	INSERT INTO qr_sessions (token, service_id, created_at, expires_at, is_used, is_verified)
	VALUES (:token, :service_id, :created_at, :expires_at, :is_used, :is_verified)`

func (r *qrSessionRepository) Create(ctx context.Context, s *model.QRSession) error {
	_, err := r.db.NamedExecContext(ctx, insertQRSessionQuery, s)
	if err != nil {
		logx.Errorf("qrsession: create failed: %v", err)
		return fmt.Errorf("qrsession: create failed: %w", err)
	}
	return nil
}

const selectQRSessionByTokenQuery = `
	SELECT token, service_id, user_auth_key, pin, created_at, expires_at,
	       is_used, is_verified, scanned_at, verified_at
	FROM qr_sessions WHERE token = $1`

func (r *qrSessionRepository) GetByToken(ctx context.Context, token string) (*model.QRSession, error) {
	var s model.QRSession
	if err := r.db.GetContext(ctx, &s, selectQRSessionByTokenQuery, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logx.Errorf("qrsession: get by token failed: %v", err)
		return nil, fmt.Errorf("qrsession: get by token failed: %w", err)
	}
	return &s, nil
}

const scanQRSessionQuery = `
	UPDATE qr_sessions
	SET user_auth_key = $2, pin = $3, scanned_at = $4, is_used = true
	WHERE token = $1 AND is_used = false`

// Scan is the sole writer of pin for a given token: the WHERE clause
// guards against a second scan racing the first, and the caller inspects
// RowsAffected to detect whether this call actually won the race.
func (r *qrSessionRepository) Scan(ctx context.Context, token, authKey, pin string, scannedAt time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, scanQRSessionQuery, token, authKey, pin, scannedAt)
	if err != nil {
		logx.Errorf("qrsession: scan failed: %v", err)
		return 0, fmt.Errorf("qrsession: scan failed: %w", err)
	}
	return res.RowsAffected()
}

const verifyQRSessionQuery = `
	UPDATE qr_sessions
	SET verified_at = $2, is_verified = true
	WHERE token = $1 AND is_verified = false`

// Verify is the sole writer of is_verified for a given token, guarding
// against a second verify call after the first already succeeded.
func (r *qrSessionRepository) Verify(ctx context.Context, token string, verifiedAt time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, verifyQRSessionQuery, token, verifiedAt)
	if err != nil {
		logx.Errorf("qrsession: verify failed: %v", err)
		return 0, fmt.Errorf("qrsession: verify failed: %w", err)
	}
	return res.RowsAffected()
}

const deleteExpiredQRSessionsQuery = `DELETE FROM qr_sessions WHERE expires_at < $1`

func (r *qrSessionRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteExpiredQRSessionsQuery, cutoff)
	if err != nil {
		logx.Errorf("qrsession: sweep failed: %v", err)
		return 0, fmt.Errorf("qrsession: sweep failed: %w", err)
	}
	return res.RowsAffected()
}
