package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/whytehoux-projecty/Registration-Login-System/internal/model"
)

// ServicesRepository reads registered relying-party services.
type ServicesRepository interface {
	GetByID(ctx context.Context, id int64) (*model.RegisteredService, error)
}

type servicesRepository struct {
	*BaseRepository
}

// NewServicesRepository builds the Postgres-backed ServicesRepository.
func NewServicesRepository(base *BaseRepository) ServicesRepository {
	return &servicesRepository{BaseRepository: base}
}

const selectServiceByIDQuery = `
	SELECT id, name, api_key, callback_url, is_active, created_at
	FROM registered_services WHERE id = $1`

func (r *servicesRepository) GetByID(ctx context.Context, id int64) (*model.RegisteredService, error) {
	var s model.RegisteredService
	if err := r.db.GetContext(ctx, &s, selectServiceByIDQuery, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logx.Errorf("services: get by id failed: %v", err)
		return nil, fmt.Errorf("services: get by id failed: %w", err)
	}
	return &s, nil
}
