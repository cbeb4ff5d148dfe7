package marketlock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

func TestCompute_NoGamesToday(t *testing.T) {
	t.Parallel()

	loc := newYork(t)
	now := time.Date(2026, 10, 17, 10, 15, 0, 0, loc)

	lock, err := Compute(DefaultPolicy(loc), now, nil)
	require.NoError(t, err)
	require.True(t, lock.NoGamesToday)
	require.True(t, lock.LockStart.Equal(time.Date(2026, 10, 17, 7, 0, 0, 0, loc)))
	require.True(t, lock.LockEnd.Equal(time.Date(2026, 10, 18, 7, 0, 0, 0, loc)))
}

func TestCompute_EarliestGameMinusLead(t *testing.T) {
	t.Parallel()

	loc := newYork(t)
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, loc)
	starts := []time.Time{
		time.Date(2026, 10, 17, 22, 30, 0, 0, loc).UTC(),
		time.Date(2026, 10, 17, 20, 0, 0, 0, loc).UTC(),
		time.Date(2026, 10, 17, 21, 0, 0, 0, loc).UTC(),
	}

	lock, err := Compute(DefaultPolicy(loc), now, starts)
	require.NoError(t, err)
	require.False(t, lock.NoGamesToday)
	require.True(t, lock.LockStart.Equal(time.Date(2026, 10, 17, 19, 30, 0, 0, loc)))
	require.True(t, lock.LockEnd.Equal(time.Date(2026, 10, 18, 7, 0, 0, 0, loc)))
	require.True(t, lock.LockStart.Before(lock.LockEnd))
}

func TestCompute_DayStartSurvivesDSTChange(t *testing.T) {
	t.Parallel()

	loc := newYork(t)
	// clocks fall back on 2026-11-01
	now := time.Date(2026, 10, 31, 12, 0, 0, 0, loc)

	lock, err := Compute(DefaultPolicy(loc), now, nil)
	require.NoError(t, err)
	require.Equal(t, 7, lock.LockEnd.In(loc).Hour())
	require.Equal(t, 25*time.Hour, lock.LockEnd.Sub(lock.LockStart))
}

func TestLock_IsLockedInclusiveBounds(t *testing.T) {
	t.Parallel()

	loc := newYork(t)
	lock := Lock{
		LockStart: time.Date(2026, 10, 17, 19, 30, 0, 0, loc),
		LockEnd:   time.Date(2026, 10, 18, 7, 0, 0, 0, loc),
	}

	require.False(t, lock.IsLocked(lock.LockStart.Add(-time.Second), loc))
	require.True(t, lock.IsLocked(lock.LockStart, loc))
	require.True(t, lock.IsLocked(time.Date(2026, 10, 18, 0, 5, 0, 0, loc), loc), "just after local midnight")
	require.True(t, lock.IsLocked(lock.LockEnd, loc))
	require.False(t, lock.IsLocked(lock.LockEnd.Add(time.Second), loc))

	// the same instant expressed in UTC gives the same answer
	require.True(t, lock.IsLocked(time.Date(2026, 10, 18, 4, 5, 0, 0, time.UTC), loc))
}

func TestStatusAt_NoRowMeansOpen(t *testing.T) {
	t.Parallel()

	status := StatusAt(Lock{}, false, time.Now(), time.UTC)
	require.False(t, status.IsLocked)
	require.True(t, status.NoGamesToday)
	require.Nil(t, status.LockStart)
	require.Nil(t, status.LockEnd)
}

func TestPolicy_Today(t *testing.T) {
	t.Parallel()

	loc := newYork(t)
	now := time.Date(2026, 10, 18, 3, 0, 0, 0, time.UTC)
	require.Equal(t, "2026-10-17", DefaultPolicy(loc).Today(now))
}
