// Package window implements the Window Controller (spec.md §4.2): the
// schedule + manual-override decision procedure gating every authentication
// attempt, plus the admin mutations that change it.
package window

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/whytehoux-projecty/Registration-Login-System/internal/apierr"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/broadcast"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/clockid"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/model"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/repository"
)

const (
	manualOpen   = "open"
	manualClosed = "closed"
)

// Status is the descriptor returned by Status(t).
type Status struct {
	Status            string     `json:"status"`
	Warning           bool       `json:"warning"`
	Message           string     `json:"message"`
	MinutesUntilClose *int       `json:"minutes_until_close,omitempty"`
	IsManualOverride  bool       `json:"is_manual_override"`
	OverrideReason    string     `json:"override_reason,omitempty"`
	OverrideExpiresAt *time.Time `json:"override_expires_at,omitempty"`
}

// Controller answers is_open/status and applies admin mutations. Its
// backend is a ScheduleRepository selected and injected at startup — no
// global singleton (spec.md §9).
type Controller struct {
	repo  repository.ScheduleRepository
	clock clockid.Source
	bus   *broadcast.Broadcaster
}

// New builds a Controller over repo, publishing status changes on bus.
func New(repo repository.ScheduleRepository, clock clockid.Source, bus *broadcast.Broadcaster) *Controller {
	return &Controller{repo: repo, clock: clock, bus: bus}
}

// IsOpen implements the decision procedure of spec.md §4.2 step 1-3.
func (c *Controller) IsOpen(ctx context.Context, t time.Time) (bool, error) {
	sched, err := c.repo.Get(ctx)
	if err != nil {
		return false, apierr.New(apierr.Internal, "failed to load schedule")
	}

	if sched.ManualStatus.Valid {
		if sched.OverrideExpires.Valid && !t.Before(sched.OverrideExpires.Time) {
			if err := c.autoRestore(ctx, sched, t); err != nil {
				return false, err
			}
			return c.withinHours(sched, t), nil
		}
		return sched.ManualStatus.String == manualOpen, nil
	}

	return c.withinHours(sched, t), nil
}

func (c *Controller) withinHours(sched *model.SystemSchedule, t time.Time) bool {
	loc, err := time.LoadLocation(sched.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := t.In(loc)
	minuteOfDay := local.Hour()*60 + local.Minute()
	opening := sched.OpeningHour*60 + sched.OpeningMinute
	closing := sched.ClosingHour*60 + sched.ClosingMinute
	return minuteOfDay >= opening && minuteOfDay < closing
}

// autoRestore clears an expired override, attributing the audit entry to
// the admin who set it when known, otherwise to the system itself —
// matching original_source's schedule_service.is_system_open, which
// clears the override lazily on the first read past override_expires_at
// rather than on a separate timer.
func (c *Controller) autoRestore(ctx context.Context, sched *model.SystemSchedule, t time.Time) error {
	before, err := json.Marshal(sched)
	if err != nil {
		return apierr.New(apierr.Internal, "failed to snapshot schedule")
	}

	restored := *sched
	restored.ManualStatus = sql.NullString{}
	restored.OverrideReason = sql.NullString{}
	restored.OverrideExpires = sql.NullTime{}
	restored.UpdatedAt = t

	after, err := json.Marshal(restored)
	if err != nil {
		return apierr.New(apierr.Internal, "failed to snapshot schedule")
	}

	err = c.repo.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if err := c.repo.UpdateTx(ctx, tx, &restored); err != nil {
			return err
		}
		entry := &model.ScheduleAuditEntry{
			AdminID:   sched.UpdatedBy,
			Action:    "auto_restore",
			OldValue:  string(before),
			NewValue:  string(after),
			Reason:    "override expired",
			Timestamp: t,
		}
		return c.repo.InsertAuditTx(ctx, tx, entry)
	})
	if err != nil {
		return apierr.New(apierr.Internal, "failed to auto-restore schedule")
	}

	*sched = restored
	c.publish(ctx, t)
	return nil
}

// Status implements spec.md §4.2's status(t).
func (c *Controller) Status(ctx context.Context, t time.Time) (*Status, error) {
	sched, err := c.repo.Get(ctx)
	if err != nil {
		return nil, apierr.New(apierr.Internal, "failed to load schedule")
	}

	if sched.ManualStatus.Valid && sched.OverrideExpires.Valid && !t.Before(sched.OverrideExpires.Time) {
		if err := c.autoRestore(ctx, sched, t); err != nil {
			return nil, err
		}
	}

	if sched.ManualStatus.Valid {
		st := manualClosed
		if sched.ManualStatus.String == manualOpen {
			st = manualOpen
		}
		expiresAt := (*time.Time)(nil)
		if sched.OverrideExpires.Valid {
			v := sched.OverrideExpires.Time
			expiresAt = &v
		}
		return &Status{
			Status:            st,
			Warning:           false,
			Message:           overrideMessage(st, sched.OverrideReason.String),
			IsManualOverride:  true,
			OverrideReason:    sched.OverrideReason.String,
			OverrideExpiresAt: expiresAt,
		}, nil
	}

	open := c.withinHours(sched, t)
	status := &Status{IsManualOverride: false}
	if open {
		status.Status = manualOpen
		status.Message = "system is open"
		minutes := minutesUntilClose(sched, t)
		status.MinutesUntilClose = &minutes
		status.Warning = minutes <= sched.WarningMinutes
		if status.Warning {
			status.Message = fmt.Sprintf("closing in %d minutes", minutes)
		}
	} else {
		status.Status = manualClosed
		status.Message = "system is closed"
	}
	return status, nil
}

func minutesUntilClose(sched *model.SystemSchedule, t time.Time) int {
	loc, err := time.LoadLocation(sched.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := t.In(loc)
	minuteOfDay := local.Hour()*60 + local.Minute()
	closing := sched.ClosingHour*60 + sched.ClosingMinute
	return closing - minuteOfDay
}

func overrideMessage(status, reason string) string {
	if reason == "" {
		return fmt.Sprintf("manual override: %s", status)
	}
	return fmt.Sprintf("manual override: %s (%s)", status, reason)
}

// ScheduleDescriptor is the public shape of the underlying schedule row,
// returned by GET /system/operating-hours and GET /admin/system/schedule.
type ScheduleDescriptor struct {
	OpeningHour      int        `json:"opening_hour"`
	OpeningMinute    int        `json:"opening_minute"`
	ClosingHour      int        `json:"closing_hour"`
	ClosingMinute    int        `json:"closing_minute"`
	WarningMinutes   int        `json:"warning_minutes"`
	Timezone         string     `json:"timezone"`
	ManualStatus     string     `json:"manual_status,omitempty"`
	OverrideReason   string     `json:"override_reason,omitempty"`
	OverrideExpiresAt *time.Time `json:"override_expires_at,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Schedule returns the current schedule row's public fields.
func (c *Controller) Schedule(ctx context.Context) (*ScheduleDescriptor, error) {
	sched, err := c.repo.Get(ctx)
	if err != nil {
		return nil, apierr.New(apierr.Internal, "failed to load schedule")
	}
	d := &ScheduleDescriptor{
		OpeningHour:    sched.OpeningHour,
		OpeningMinute:  sched.OpeningMinute,
		ClosingHour:    sched.ClosingHour,
		ClosingMinute:  sched.ClosingMinute,
		WarningMinutes: sched.WarningMinutes,
		Timezone:       sched.Timezone,
		ManualStatus:   sched.ManualStatus.String,
		OverrideReason: sched.OverrideReason.String,
		UpdatedAt:      sched.UpdatedAt,
	}
	if sched.OverrideExpires.Valid {
		v := sched.OverrideExpires.Time
		d.OverrideExpiresAt = &v
	}
	return d, nil
}

func (c *Controller) publish(ctx context.Context, t time.Time) {
	if c.bus == nil {
		return
	}
	st, err := c.Status(ctx, t)
	if err != nil {
		return
	}
	c.bus.Publish(st)
}

// UpdateHoursInput validates to spec.md §4.2's mutation contract.
type UpdateHoursInput struct {
	OpeningHour    int
	OpeningMinute  int
	ClosingHour    int
	ClosingMinute  int
	WarningMinutes int
	Timezone       string
	AdminID        int64
}

func (in UpdateHoursInput) validate() error {
	if in.OpeningHour < 0 || in.OpeningHour > 23 || in.ClosingHour < 0 || in.ClosingHour > 23 {
		return apierr.New(apierr.ValidationError, "hour must be 0-23")
	}
	if in.OpeningMinute < 0 || in.OpeningMinute > 59 || in.ClosingMinute < 0 || in.ClosingMinute > 59 {
		return apierr.New(apierr.ValidationError, "minute must be 0-59")
	}
	if in.WarningMinutes < 0 {
		return apierr.New(apierr.ValidationError, "warning_minutes must be >= 0")
	}
	opening := in.OpeningHour*60 + in.OpeningMinute
	closing := in.ClosingHour*60 + in.ClosingMinute
	if opening >= closing {
		return apierr.New(apierr.ValidationError, "opening time must be strictly before closing time")
	}
	return nil
}

// UpdateHours validates and persists new operating hours.
func (c *Controller) UpdateHours(ctx context.Context, in UpdateHoursInput) error {
	if err := in.validate(); err != nil {
		return err
	}

	sched, err := c.repo.Get(ctx)
	if err != nil {
		return apierr.New(apierr.Internal, "failed to load schedule")
	}
	before, _ := json.Marshal(sched)

	now := c.clock.Now()
	updated := *sched
	updated.OpeningHour = in.OpeningHour
	updated.OpeningMinute = in.OpeningMinute
	updated.ClosingHour = in.ClosingHour
	updated.ClosingMinute = in.ClosingMinute
	updated.WarningMinutes = in.WarningMinutes
	if in.Timezone != "" {
		updated.Timezone = in.Timezone
	}
	updated.UpdatedBy = sql.NullInt64{Int64: in.AdminID, Valid: true}
	updated.UpdatedAt = now
	after, _ := json.Marshal(updated)

	err = c.repo.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if err := c.repo.UpdateTx(ctx, tx, &updated); err != nil {
			return err
		}
		entry := &model.ScheduleAuditEntry{
			AdminID:   sql.NullInt64{Int64: in.AdminID, Valid: true},
			Action:    "update_hours",
			OldValue:  string(before),
			NewValue:  string(after),
			Reason:    "",
			Timestamp: now,
		}
		return c.repo.InsertAuditTx(ctx, tx, entry)
	})
	if err != nil {
		return apierr.New(apierr.Internal, "failed to update hours")
	}

	c.publish(ctx, now)
	return nil
}

// SetOverrideInput validates to spec.md §4.2's mutation contract.
type SetOverrideInput struct {
	Status          string
	Reason          string
	DurationMinutes *int
	AdminID         int64
}

// SetOverride applies a manual open/closed override, optionally expiring
// after DurationMinutes (B3: cleared automatically at set_at + duration,
// observed on the next status read per autoRestore).
func (c *Controller) SetOverride(ctx context.Context, in SetOverrideInput) error {
	if in.Status != manualOpen && in.Status != manualClosed {
		return apierr.New(apierr.ValidationError, "status must be open or closed")
	}

	sched, err := c.repo.Get(ctx)
	if err != nil {
		return apierr.New(apierr.Internal, "failed to load schedule")
	}
	before, _ := json.Marshal(sched)

	now := c.clock.Now()
	updated := *sched
	updated.ManualStatus = sql.NullString{String: in.Status, Valid: true}
	updated.OverrideReason = sql.NullString{String: in.Reason, Valid: in.Reason != ""}
	if in.DurationMinutes != nil {
		updated.OverrideExpires = sql.NullTime{Time: now.Add(time.Duration(*in.DurationMinutes) * time.Minute), Valid: true}
	} else {
		updated.OverrideExpires = sql.NullTime{}
	}
	updated.UpdatedBy = sql.NullInt64{Int64: in.AdminID, Valid: true}
	updated.UpdatedAt = now
	after, _ := json.Marshal(updated)

	err = c.repo.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if err := c.repo.UpdateTx(ctx, tx, &updated); err != nil {
			return err
		}
		entry := &model.ScheduleAuditEntry{
			AdminID:   sql.NullInt64{Int64: in.AdminID, Valid: true},
			Action:    "manual_override",
			OldValue:  string(before),
			NewValue:  string(after),
			Reason:    in.Reason,
			Timestamp: now,
		}
		return c.repo.InsertAuditTx(ctx, tx, entry)
	})
	if err != nil {
		return apierr.New(apierr.Internal, "failed to set override")
	}

	c.publish(ctx, now)
	return nil
}

// AuditLog returns a page of the schedule mutation trail, most recent
// first, for GET /admin/system/audit-log.
func (c *Controller) AuditLog(ctx context.Context, limit, offset int) ([]model.ScheduleAuditEntry, error) {
	entries, err := c.repo.ListAudit(ctx, limit, offset)
	if err != nil {
		return nil, apierr.New(apierr.Internal, "failed to load audit log")
	}
	return entries, nil
}

// ClearOverride removes any active manual override immediately.
func (c *Controller) ClearOverride(ctx context.Context, adminID int64) error {
	sched, err := c.repo.Get(ctx)
	if err != nil {
		return apierr.New(apierr.Internal, "failed to load schedule")
	}
	before, _ := json.Marshal(sched)

	now := c.clock.Now()
	updated := *sched
	updated.ManualStatus = sql.NullString{}
	updated.OverrideReason = sql.NullString{}
	updated.OverrideExpires = sql.NullTime{}
	updated.UpdatedBy = sql.NullInt64{Int64: adminID, Valid: true}
	updated.UpdatedAt = now
	after, _ := json.Marshal(updated)

	err = c.repo.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if err := c.repo.UpdateTx(ctx, tx, &updated); err != nil {
			return err
		}
		entry := &model.ScheduleAuditEntry{
			AdminID:   sql.NullInt64{Int64: adminID, Valid: true},
			Action:    "auto_restore",
			OldValue:  string(before),
			NewValue:  string(after),
			Reason:    "",
			Timestamp: now,
		}
		return c.repo.InsertAuditTx(ctx, tx, entry)
	})
	if err != nil {
		return apierr.New(apierr.Internal, "failed to clear override")
	}

	c.publish(ctx, now)
	return nil
}
