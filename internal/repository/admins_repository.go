package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/whytehoux-projecty/Registration-Login-System/internal/model"
)

// AdminsRepository reads admin accounts for the bearer-gated admin routes.
type AdminsRepository interface {
	GetByUsername(ctx context.Context, username string) (*model.Admin, error)
}

type adminsRepository struct {
	*BaseRepository
}

// NewAdminsRepository builds the Postgres-backed AdminsRepository.
func NewAdminsRepository(base *BaseRepository) AdminsRepository {
	return &adminsRepository{BaseRepository: base}
}

const selectAdminByUsernameQuery = `
	SELECT id, username, password_hash, role, created_at
	FROM admins WHERE username = $1`

func (r *adminsRepository) GetByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var a model.Admin
	if err := r.db.GetContext(ctx, &a, selectAdminByUsernameQuery, username); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logx.Errorf("admins: get by username failed: %v", err)
		return nil, fmt.Errorf("admins: get by username failed: %w", err)
	}
	return &a, nil
}
