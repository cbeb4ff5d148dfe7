package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// lockDriver answers the two advisory lock statements and counts closed sessions.
type lockDriver struct {
	mu        sync.Mutex
	unlockErr error
	closed    int
}

func (d *lockDriver) Connect(context.Context) (driver.Conn, error) { return &lockConn{d: d}, nil }
func (d *lockDriver) Driver() driver.Driver                        { return d }
func (d *lockDriver) Open(string) (driver.Conn, error)             { return &lockConn{d: d}, nil }

func (d *lockDriver) closedSessions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

type lockConn struct {
	d *lockDriver
}

func (c *lockConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *lockConn) Close() error {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	c.d.closed++
	return nil
}

func (c *lockConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

func (c *lockConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	if strings.Contains(query, "pg_advisory_unlock") && c.d.unlockErr != nil {
		return nil, c.d.unlockErr
	}
	return &boolRows{value: true}, nil
}

type boolRows struct {
	value bool
	done  bool
}

func (r *boolRows) Columns() []string { return []string{"result"} }
func (r *boolRows) Close() error      { return nil }

func (r *boolRows) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	r.done = true
	dest[0] = r.value
	return nil
}

func newLockDB(t *testing.T, d *lockDriver) *sqlx.DB {
	t.Helper()
	db := sqlx.NewDb(sql.OpenDB(d), "postgres")
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestAdvisoryLocker_ReleasedSessionReturnsToPool(t *testing.T) {
	t.Parallel()

	d := &lockDriver{}
	db := newLockDB(t, d)
	locker := NewAdvisoryLocker(db)

	unlock, ok, err := locker.TryLock(t.Context(), "settlement:daily")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, unlock(t.Context()))
	require.Zero(t, d.closedSessions())
	require.Equal(t, 1, db.Stats().Idle)
}

func TestAdvisoryLocker_FailedUnlockDiscardsSession(t *testing.T) {
	t.Parallel()

	d := &lockDriver{unlockErr: errors.New("connection reset by peer")}
	db := newLockDB(t, d)
	locker := NewAdvisoryLocker(db)

	unlock, ok, err := locker.TryLock(t.Context(), "settlement:daily")
	require.NoError(t, err)
	require.True(t, ok)

	err = unlock(t.Context())
	require.ErrorContains(t, err, "connection reset by peer")
	require.Equal(t, 1, d.closedSessions())
	require.Zero(t, db.Stats().Idle)

	// Repeated unlocks report the first failure without touching the pool again.
	require.ErrorContains(t, unlock(t.Context()), "connection reset by peer")
	require.Equal(t, 1, d.closedSessions())
}
