package postgres

import (
	"context"
	"database/sql/driver"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
)

// AdvisoryLocker takes session-level advisory locks. Each held lock pins one
// pooled connection until it is released, since the lock belongs to that session.
type AdvisoryLocker struct {
	db *sqlx.DB
}

func NewAdvisoryLocker(db *sqlx.DB) *AdvisoryLocker {
	return &AdvisoryLocker{db: db}
}

func (l *AdvisoryLocker) TryLock(ctx context.Context, name string) (func(context.Context) error, bool, error) {
	conn, err := l.db.Connx(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("reserve connection for advisory lock %q: %w", name, err)
	}

	var acquired bool
	if err := conn.GetContext(ctx, &acquired, `SELECT pg_try_advisory_lock(hashtext($1))`, name); err != nil {
		_ = conn.Close()
		return nil, false, fmt.Errorf("try advisory lock %q: %w", name, err)
	}
	if !acquired {
		_ = conn.Close()
		return nil, false, nil
	}

	var (
		once      sync.Once
		unlockErr error
	)
	unlock := func(ctx context.Context) error {
		once.Do(func() {
			defer func() {
				_ = conn.Close()
			}()
			var released bool
			if err := conn.GetContext(ctx, &released, `SELECT pg_advisory_unlock(hashtext($1))`, name); err != nil {
				// The session may still hold the lock; it must not go back to the pool.
				_ = conn.Raw(func(any) error { return driver.ErrBadConn })
				unlockErr = fmt.Errorf("advisory unlock %q: %w", name, err)
				return
			}
			if !released {
				unlockErr = fmt.Errorf("advisory unlock %q: lock was not held", name)
			}
		})
		return unlockErr
	}
	return unlock, true, nil
}
