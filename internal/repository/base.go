// Package repository holds the sqlx-backed accessors for every entity in
// the data model, adapted from the teacher's shared/repository.BaseRepository.
package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/zeromicro/go-zero/core/logx"
)

// BaseRepository is embedded by every concrete repository to share the
// connection handle and the transaction helper.
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository wraps an open connection pool.
func NewBaseRepository(db *sqlx.DB) *BaseRepository {
	return &BaseRepository{db: db}
}

// DB exposes the underlying pool for repositories that need it directly.
func (r *BaseRepository) DB() *sqlx.DB {
	return r.db
}

// Transaction runs fn within a single transaction, rolling back on error
// or panic (re-panicking after rollback) and committing otherwise.
func (r *BaseRepository) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		logx.Errorf("repository: failed to begin transaction: %v", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(tx)
	return err
}
