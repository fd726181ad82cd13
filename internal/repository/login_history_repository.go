package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/whytehoux-projecty/Registration-Login-System/internal/model"
)

// LoginHistoryRepository persists bearer session issuance/logout records.
type LoginHistoryRepository interface {
	Create(ctx context.Context, h *model.LoginHistory) error
	GetByToken(ctx context.Context, token string) (*model.LoginHistory, error)
	MarkLoggedOut(ctx context.Context, token string, loggedOutAt time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type loginHistoryRepository struct {
	*BaseRepository
}

// NewLoginHistoryRepository builds the Postgres-backed LoginHistoryRepository.
func NewLoginHistoryRepository(base *BaseRepository) LoginHistoryRepository {
	return &loginHistoryRepository{BaseRepository: base}
}

const insertLoginHistoryQuery = `
	INSERT INTO login_history (user_id, service_id, session_token, login_at,
	                           session_expires_at, client_ip, user_agent)
	VALUES (:user_id, :service_id, :session_token, :login_at,
	        :session_expires_at, :client_ip, :user_agent)`

func (r *loginHistoryRepository) Create(ctx context.Context, h *model.LoginHistory) error {
	_, err := r.db.NamedExecContext(ctx, insertLoginHistoryQuery, h)
	if err != nil {
		logx.Errorf("login_history: create failed: %v", err)
		return fmt.Errorf("login_history: create failed: %w", err)
	}
	return nil
}

const selectLoginHistoryByTokenQuery = `
	SELECT id, user_id, service_id, session_token, login_at,
	       session_expires_at, logout_at, client_ip, user_agent
	FROM login_history WHERE session_token = $1`

func (r *loginHistoryRepository) GetByToken(ctx context.Context, token string) (*model.LoginHistory, error) {
	var h model.LoginHistory
	if err := r.db.GetContext(ctx, &h, selectLoginHistoryByTokenQuery, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logx.Errorf("login_history: get by token failed: %v", err)
		return nil, fmt.Errorf("login_history: get by token failed: %w", err)
	}
	return &h, nil
}

const markLoggedOutQuery = `
	UPDATE login_history
	SET logout_at = $2
	WHERE session_token = $1`

// MarkLoggedOut is unconditional on the prior logout_at value: a repeat
// logout on an already-logged-out token still overwrites logout_at and
// reports success. affected==0 means the token itself is unknown, not
// that it was already logged out.
func (r *loginHistoryRepository) MarkLoggedOut(ctx context.Context, token string, loggedOutAt time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, markLoggedOutQuery, token, loggedOutAt)
	if err != nil {
		logx.Errorf("login_history: logout failed: %v", err)
		return 0, fmt.Errorf("login_history: logout failed: %w", err)
	}
	return res.RowsAffected()
}

const deleteOldLoginHistoryQuery = `DELETE FROM login_history WHERE login_at < $1`

func (r *loginHistoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteOldLoginHistoryQuery, cutoff)
	if err != nil {
		logx.Errorf("login_history: sweep failed: %v", err)
		return 0, fmt.Errorf("login_history: sweep failed: %w", err)
	}
	return res.RowsAffected()
}
