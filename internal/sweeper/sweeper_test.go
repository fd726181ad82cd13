package sweeper

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/whytehoux-projecty/Registration-Login-System/internal/clockid/clockidtest"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/model"
)

type fakeQRRepo struct {
	mu       sync.Mutex
	expiries []time.Time
	deleted  int64
}

func (f *fakeQRRepo) Create(context.Context, *model.QRSession) error { return nil }
func (f *fakeQRRepo) GetByToken(context.Context, string) (*model.QRSession, error) {
	return nil, nil
}
func (f *fakeQRRepo) Scan(context.Context, string, string, string, time.Time) (int64, error) {
	return 0, nil
}
func (f *fakeQRRepo) Verify(context.Context, string, time.Time) (int64, error) { return 0, nil }
func (f *fakeQRRepo) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []time.Time
	var removed int64
	for _, e := range f.expiries {
		if e.Before(cutoff) {
			removed++
		} else {
			kept = append(kept, e)
		}
	}
	f.expiries = kept
	f.deleted += removed
	return removed, nil
}

type fakeLoginRepo struct {
	mu        sync.Mutex
	loginAts  []time.Time
	deleted   int64
}

func (f *fakeLoginRepo) Create(context.Context, *model.LoginHistory) error { return nil }
func (f *fakeLoginRepo) GetByToken(context.Context, string) (*model.LoginHistory, error) {
	return nil, nil
}
func (f *fakeLoginRepo) MarkLoggedOut(context.Context, string, time.Time) (int64, error) {
	return 0, nil
}
func (f *fakeLoginRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []time.Time
	var removed int64
	for _, a := range f.loginAts {
		if a.Before(cutoff) {
			removed++
		} else {
			kept = append(kept, a)
		}
	}
	f.loginAts = kept
	f.deleted += removed
	return removed, nil
}

func TestSweepOnceRemovesExpiredQRSessionsAndOldLoginHistory(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := clockidtest.New(now)

	qr := &fakeQRRepo{expiries: []time.Time{
		now.Add(-time.Hour),  // expired, should be swept
		now.Add(time.Hour),   // not yet expired
	}}
	login := &fakeLoginRepo{loginAts: []time.Time{
		now.Add(-100 * 24 * time.Hour), // older than retention, should be swept
		now.Add(-1 * time.Hour),        // recent, kept
	}}

	s := New(qr, login, clock)
	require.NoError(t, s.sweepOnce(context.Background()))

	require.Len(t, qr.expiries, 1)
	require.EqualValues(t, 1, qr.deleted)
	require.Len(t, login.loginAts, 1)
	require.EqualValues(t, 1, login.deleted)
}

func TestRunStopsCleanly(t *testing.T) {
	clock := clockidtest.New(time.Now())
	s := New(&fakeQRRepo{}, &fakeLoginRepo{}, clock)

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()

	s.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
