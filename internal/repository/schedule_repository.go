package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/whytehoux-projecty/Registration-Login-System/internal/model"
)

// ScheduleRepository persists the system_schedule singleton and its audit
// trail. It is an interface so the Window Controller's backend can be
// selected at startup and injected, rather than reached for as a global
// singleton (spec.md §9).
type ScheduleRepository interface {
	Get(ctx context.Context) (*model.SystemSchedule, error)
	Update(ctx context.Context, s *model.SystemSchedule) error
	UpdateTx(ctx context.Context, tx *sqlx.Tx, s *model.SystemSchedule) error
	InsertAuditTx(ctx context.Context, tx *sqlx.Tx, entry *model.ScheduleAuditEntry) error
	WithTransaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	ListAudit(ctx context.Context, limit, offset int) ([]model.ScheduleAuditEntry, error)
}

type scheduleRepository struct {
	*BaseRepository
}

// NewScheduleRepository builds the Postgres-backed ScheduleRepository.
func NewScheduleRepository(base *BaseRepository) ScheduleRepository {
	return &scheduleRepository{BaseRepository: base}
}

const selectScheduleQuery = `
	SELECT id, opening_hour, opening_minute, closing_hour, closing_minute,
	       warning_minutes, timezone, manual_status, override_reason,
	       override_expires_at, updated_by, updated_at
	FROM system_schedule
	ORDER BY id
	LIMIT 1`

// Get loads the singleton schedule row.
func (r *scheduleRepository) Get(ctx context.Context) (*model.SystemSchedule, error) {
	var s model.SystemSchedule
	if err := r.db.GetContext(ctx, &s, selectScheduleQuery); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("system_schedule: no row seeded")
		}
		logx.Errorf("schedule: get failed: %v", err)
		return nil, fmt.Errorf("schedule: get failed: %w", err)
	}
	return &s, nil
}

const updateScheduleQuery = `
	UPDATE system_schedule
	SET opening_hour = :opening_hour, opening_minute = :opening_minute,
	    closing_hour = :closing_hour, closing_minute = :closing_minute,
	    warning_minutes = :warning_minutes, timezone = :timezone,
	    manual_status = :manual_status, override_reason = :override_reason,
	    override_expires_at = :override_expires_at, updated_by = :updated_by,
	    updated_at = :updated_at
	WHERE id = :id`

// Update persists the schedule outside a caller-managed transaction.
func (r *scheduleRepository) Update(ctx context.Context, s *model.SystemSchedule) error {
	_, err := r.db.NamedExecContext(ctx, updateScheduleQuery, s)
	if err != nil {
		logx.Errorf("schedule: update failed: %v", err)
		return fmt.Errorf("schedule: update failed: %w", err)
	}
	return nil
}

// UpdateTx persists the schedule within tx, so mutation + audit row commit
// atomically (spec.md §4.2).
func (r *scheduleRepository) UpdateTx(ctx context.Context, tx *sqlx.Tx, s *model.SystemSchedule) error {
	_, err := tx.NamedExecContext(ctx, updateScheduleQuery, s)
	if err != nil {
		logx.Errorf("schedule: update tx failed: %v", err)
		return fmt.Errorf("schedule: update tx failed: %w", err)
	}
	return nil
}

const insertAuditQuery = `
	INSERT INTO system_schedule_audit (admin_id, action, old_value, new_value, reason, timestamp)
	VALUES (:admin_id, :action, :old_value, :new_value, :reason, :timestamp)`

// InsertAuditTx appends one audit row within tx.
func (r *scheduleRepository) InsertAuditTx(ctx context.Context, tx *sqlx.Tx, entry *model.ScheduleAuditEntry) error {
	_, err := tx.NamedExecContext(ctx, insertAuditQuery, entry)
	if err != nil {
		logx.Errorf("schedule: audit insert failed: %v", err)
		return fmt.Errorf("schedule: audit insert failed: %w", err)
	}
	return nil
}

const listAuditQuery = `
	SELECT id, admin_id, action, old_value, new_value, reason, timestamp
	FROM system_schedule_audit
	ORDER BY timestamp DESC
	LIMIT $1 OFFSET $2`

// ListAudit returns a page of the audit trail, most recent first.
func (r *scheduleRepository) ListAudit(ctx context.Context, limit, offset int) ([]model.ScheduleAuditEntry, error) {
	var entries []model.ScheduleAuditEntry
	if err := r.db.SelectContext(ctx, &entries, listAuditQuery, limit, offset); err != nil {
		logx.Errorf("schedule: list audit failed: %v", err)
		return nil, fmt.Errorf("schedule: list audit failed: %w", err)
	}
	return entries, nil
}

// WithTransaction runs fn inside a single Postgres transaction, rolling
// back on error or panic and committing otherwise, mirroring the
// teacher's BaseRepository.Transaction helper.
func (r *scheduleRepository) WithTransaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return r.Transaction(ctx, fn)
}
