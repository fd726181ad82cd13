package window

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whytehoux-projecty/Registration-Login-System/internal/clockid/clockidtest"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/model"
)

// fakeScheduleRepo is an in-memory ScheduleRepository double; the real
// backend is covered by sqlmock-based repository tests, so the controller's
// decision procedure is tested against a transparent fake instead.
type fakeScheduleRepo struct {
	sched  model.SystemSchedule
	audits []model.ScheduleAuditEntry
}

func (f *fakeScheduleRepo) Get(ctx context.Context) (*model.SystemSchedule, error) {
	cp := f.sched
	return &cp, nil
}

func (f *fakeScheduleRepo) Update(ctx context.Context, s *model.SystemSchedule) error {
	f.sched = *s
	return nil
}

func (f *fakeScheduleRepo) UpdateTx(ctx context.Context, tx *sqlx.Tx, s *model.SystemSchedule) error {
	f.sched = *s
	return nil
}

func (f *fakeScheduleRepo) InsertAuditTx(ctx context.Context, tx *sqlx.Tx, entry *model.ScheduleAuditEntry) error {
	f.audits = append(f.audits, *entry)
	return nil
}

func (f *fakeScheduleRepo) WithTransaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(nil)
}

func (f *fakeScheduleRepo) ListAudit(ctx context.Context, limit, offset int) ([]model.ScheduleAuditEntry, error) {
	// newest-first, mirroring the real repository's ORDER BY timestamp DESC
	reversed := make([]model.ScheduleAuditEntry, len(f.audits))
	for i, e := range f.audits {
		reversed[len(f.audits)-1-i] = e
	}
	if offset >= len(reversed) {
		return nil, nil
	}
	end := offset + limit
	if end > len(reversed) {
		end = len(reversed)
	}
	return reversed[offset:end], nil
}

func baseSchedule() model.SystemSchedule {
	return model.SystemSchedule{
		ID:             1,
		OpeningHour:    9,
		OpeningMinute:  0,
		ClosingHour:    17,
		ClosingMinute:  0,
		WarningMinutes: 15,
		Timezone:       "UTC",
		UpdatedAt:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestIsOpenWithinScheduledHours(t *testing.T) {
	repo := &fakeScheduleRepo{sched: baseSchedule()}
	clock := clockidtest.New(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	c := New(repo, clock, nil)

	open, err := c.IsOpen(context.Background(), clock.Now())
	require.NoError(t, err)
	assert.True(t, open)
}

func TestIsOpenOutsideScheduledHours(t *testing.T) {
	repo := &fakeScheduleRepo{sched: baseSchedule()}
	clock := clockidtest.New(time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC))
	c := New(repo, clock, nil)

	open, err := c.IsOpen(context.Background(), clock.Now())
	require.NoError(t, err)
	assert.False(t, open)
}

// TestIsOpenBoundaryAtClosing covers B2: the scheduled window is closed-open
// [opening, closing), so the closing instant itself is already closed.
func TestIsOpenBoundaryAtClosing(t *testing.T) {
	repo := &fakeScheduleRepo{sched: baseSchedule()}
	closingInstant := time.Date(2026, 1, 1, 17, 0, 0, 0, time.UTC)
	clock := clockidtest.New(closingInstant)
	c := New(repo, clock, nil)

	open, err := c.IsOpen(context.Background(), clock.Now())
	require.NoError(t, err)
	assert.False(t, open)

	oneMinuteBefore := closingInstant.Add(-time.Minute)
	open, err = c.IsOpen(context.Background(), oneMinuteBefore)
	require.NoError(t, err)
	assert.True(t, open)
}

func TestIsOpenManualOverrideClosed(t *testing.T) {
	sched := baseSchedule()
	sched.ManualStatus = sql.NullString{String: manualClosed, Valid: true}
	repo := &fakeScheduleRepo{sched: sched}
	clock := clockidtest.New(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	c := New(repo, clock, nil)

	open, err := c.IsOpen(context.Background(), clock.Now())
	require.NoError(t, err)
	assert.False(t, open)
}

// TestIsOpenOverrideAutoRestoreAtExpiry covers B3: a manual override with
// duration clears automatically at override_set_at + duration, observed
// lazily on the next read.
func TestIsOpenOverrideAutoRestoreAtExpiry(t *testing.T) {
	sched := baseSchedule()
	expiresAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sched.ManualStatus = sql.NullString{String: manualClosed, Valid: true}
	sched.OverrideExpires = sql.NullTime{Time: expiresAt, Valid: true}
	repo := &fakeScheduleRepo{sched: sched}
	clock := clockidtest.New(expiresAt.Add(-time.Second))
	c := New(repo, clock, nil)

	open, err := c.IsOpen(context.Background(), clock.Now())
	require.NoError(t, err)
	assert.False(t, open)
	assert.True(t, repo.sched.ManualStatus.Valid, "override not yet expired")

	clock.Set(expiresAt)
	open, err = c.IsOpen(context.Background(), clock.Now())
	require.NoError(t, err)
	assert.True(t, open, "within scheduled hours once override restored")
	assert.False(t, repo.sched.ManualStatus.Valid, "override cleared on expiry read")
	require.Len(t, repo.audits, 1)
	assert.Equal(t, "auto_restore", repo.audits[0].Action)
}

func TestStatusWarningNearClosing(t *testing.T) {
	repo := &fakeScheduleRepo{sched: baseSchedule()}
	clock := clockidtest.New(time.Date(2026, 1, 1, 16, 50, 0, 0, time.UTC))
	c := New(repo, clock, nil)

	st, err := c.Status(context.Background(), clock.Now())
	require.NoError(t, err)
	assert.True(t, st.Warning)
	require.NotNil(t, st.MinutesUntilClose)
	assert.Equal(t, 10, *st.MinutesUntilClose)
}

func TestStatusSuppressesWarningDuringOverride(t *testing.T) {
	sched := baseSchedule()
	sched.ManualStatus = sql.NullString{String: manualOpen, Valid: true}
	repo := &fakeScheduleRepo{sched: sched}
	clock := clockidtest.New(time.Date(2026, 1, 1, 16, 59, 0, 0, time.UTC))
	c := New(repo, clock, nil)

	st, err := c.Status(context.Background(), clock.Now())
	require.NoError(t, err)
	assert.False(t, st.Warning)
	assert.True(t, st.IsManualOverride)
}

func TestUpdateHoursRejectsInvalidRange(t *testing.T) {
	repo := &fakeScheduleRepo{sched: baseSchedule()}
	clock := clockidtest.New(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := New(repo, clock, nil)

	err := c.UpdateHours(context.Background(), UpdateHoursInput{
		OpeningHour: 18, ClosingHour: 9, WarningMinutes: 5, AdminID: 1,
	})
	require.Error(t, err)
}

func TestUpdateHoursPersistsAndAudits(t *testing.T) {
	repo := &fakeScheduleRepo{sched: baseSchedule()}
	clock := clockidtest.New(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := New(repo, clock, nil)

	err := c.UpdateHours(context.Background(), UpdateHoursInput{
		OpeningHour: 8, ClosingHour: 18, WarningMinutes: 10, Timezone: "UTC", AdminID: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, 8, repo.sched.OpeningHour)
	require.Len(t, repo.audits, 1)
	assert.Equal(t, "update_hours", repo.audits[0].Action)
}

func TestSetOverrideThenClearOverride(t *testing.T) {
	repo := &fakeScheduleRepo{sched: baseSchedule()}
	clock := clockidtest.New(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	c := New(repo, clock, nil)

	err := c.SetOverride(context.Background(), SetOverrideInput{Status: manualClosed, Reason: "maintenance", AdminID: 3})
	require.NoError(t, err)
	open, err := c.IsOpen(context.Background(), clock.Now())
	require.NoError(t, err)
	assert.False(t, open)

	err = c.ClearOverride(context.Background(), 3)
	require.NoError(t, err)
	open, err = c.IsOpen(context.Background(), clock.Now())
	require.NoError(t, err)
	assert.True(t, open)
	require.Len(t, repo.audits, 2)
	assert.Equal(t, "auto_restore", repo.audits[1].Action)
}

func TestScheduleReturnsPublicFields(t *testing.T) {
	repo := &fakeScheduleRepo{sched: baseSchedule()}
	clock := clockidtest.New(time.Now())
	c := New(repo, clock, nil)

	d, err := c.Schedule(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, d.OpeningHour)
	assert.Equal(t, 17, d.ClosingHour)
	assert.Equal(t, "UTC", d.Timezone)
	assert.Empty(t, d.ManualStatus)
	assert.Nil(t, d.OverrideExpiresAt)
}

func TestScheduleReflectsActiveOverride(t *testing.T) {
	repo := &fakeScheduleRepo{sched: baseSchedule()}
	clock := clockidtest.New(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	c := New(repo, clock, nil)

	require.NoError(t, c.SetOverride(context.Background(), SetOverrideInput{
		Status: manualClosed, Reason: "maintenance", AdminID: 3,
	}))

	d, err := c.Schedule(context.Background())
	require.NoError(t, err)
	assert.Equal(t, manualClosed, d.ManualStatus)
	assert.Equal(t, "maintenance", d.OverrideReason)
}

func TestAuditLogReturnsMostRecentFirstAndPaginates(t *testing.T) {
	repo := &fakeScheduleRepo{sched: baseSchedule()}
	clock := clockidtest.New(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := New(repo, clock, nil)

	require.NoError(t, c.UpdateHours(context.Background(), UpdateHoursInput{
		OpeningHour: 8, ClosingHour: 18, WarningMinutes: 10, Timezone: "UTC", AdminID: 1,
	}))
	require.NoError(t, c.SetOverride(context.Background(), SetOverrideInput{
		Status: manualClosed, Reason: "maintenance", AdminID: 2,
	}))

	all, err := c.AuditLog(context.Background(), 50, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "manual_override", all[0].Action)
	assert.Equal(t, "update_hours", all[1].Action)

	page, err := c.AuditLog(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "manual_override", page[0].Action)

	rest, err := c.AuditLog(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "update_hours", rest[0].Action)
}
