package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whytehoux-projecty/Registration-Login-System/internal/apierr"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/clockid/clockidtest"
)

func testConfigs() map[Class]Config {
	return map[Class]Config{
		Login: {MaxRequests: 3, Window: 10 * time.Second},
	}
}

func TestCheckAdmitsUpToMaxThenDenies(t *testing.T) {
	clock := clockidtest.New(time.Unix(0, 0))
	l := New(clock, testConfigs())
	defer l.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Check(Login, "1.2.3.4"))
	}

	err := l.Check(Login, "1.2.3.4")
	require.Error(t, err)
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	assert.Equal(t, apierr.RateLimited, apiErr.Kind)
}

func TestCheckSlidesWindowForward(t *testing.T) {
	clock := clockidtest.New(time.Unix(0, 0))
	l := New(clock, testConfigs())
	defer l.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Check(Login, "9.9.9.9"))
	}
	require.Error(t, l.Check(Login, "9.9.9.9"))

	clock.Advance(11 * time.Second)
	assert.NoError(t, l.Check(Login, "9.9.9.9"))
}

func TestCheckIsIndependentPerKey(t *testing.T) {
	clock := clockidtest.New(time.Unix(0, 0))
	l := New(clock, testConfigs())
	defer l.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Check(Login, "a"))
	}
	require.Error(t, l.Check(Login, "a"))
	assert.NoError(t, l.Check(Login, "b"))
}

func TestCheckUnknownClassDenies(t *testing.T) {
	clock := clockidtest.New(time.Unix(0, 0))
	l := New(clock, testConfigs())
	defer l.Stop()

	err := l.Check(Class("unknown"), "a")
	require.Error(t, err)
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	assert.Equal(t, apierr.Internal, apiErr.Kind)
}

// TestCheckNeverExceedsMaxUnderConcurrency exercises P6: for any key, the
// count of admitted requests inside any window never exceeds max_requests,
// even when many goroutines race on the same key.
func TestCheckNeverExceedsMaxUnderConcurrency(t *testing.T) {
	clock := clockidtest.New(time.Unix(0, 0))
	l := New(clock, testConfigs())
	defer l.Stop()

	const attempts = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Check(Login, "race"); err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, admitted)
}
