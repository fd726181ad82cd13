package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/whytehoux-projecty/Registration-Login-System/internal/model"
)

// UsersRepository reads/updates active user principals.
type UsersRepository interface {
	GetByAuthKey(ctx context.Context, authKey string) (*model.ActiveUser, error)
	GetByID(ctx context.Context, id int64) (*model.ActiveUser, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

type usersRepository struct {
	*BaseRepository
}

// NewUsersRepository builds the Postgres-backed UsersRepository.
func NewUsersRepository(base *BaseRepository) UsersRepository {
	return &usersRepository{BaseRepository: base}
}

const selectUserByAuthKeyQuery = `
	SELECT id, username, email, auth_key, is_active, last_login, created_at
	FROM active_users WHERE auth_key = $1`

func (r *usersRepository) GetByAuthKey(ctx context.Context, authKey string) (*model.ActiveUser, error) {
	var u model.ActiveUser
	if err := r.db.GetContext(ctx, &u, selectUserByAuthKeyQuery, authKey); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logx.Errorf("users: get by auth key failed: %v", err)
		return nil, fmt.Errorf("users: get by auth key failed: %w", err)
	}
	return &u, nil
}

const selectUserByIDQuery = `
	SELECT id, username, email, auth_key, is_active, last_login, created_at
	FROM active_users WHERE id = $1`

func (r *usersRepository) GetByID(ctx context.Context, id int64) (*model.ActiveUser, error) {
	var u model.ActiveUser
	if err := r.db.GetContext(ctx, &u, selectUserByIDQuery, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logx.Errorf("users: get by id failed: %v", err)
		return nil, fmt.Errorf("users: get by id failed: %w", err)
	}
	return &u, nil
}

const updateLastLoginQuery = `UPDATE active_users SET last_login = $2 WHERE id = $1`

func (r *usersRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, updateLastLoginQuery, id, at)
	if err != nil {
		logx.Errorf("users: update last_login failed: %v", err)
		return fmt.Errorf("users: update last_login failed: %w", err)
	}
	return nil
}
