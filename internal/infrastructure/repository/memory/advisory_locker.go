package memory

import (
	"context"
	"sync"
)

// AdvisoryLocker mimics pg_try_advisory_lock within one process.
type AdvisoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewAdvisoryLocker() *AdvisoryLocker {
	return &AdvisoryLocker{held: make(map[string]struct{})}
}

func (l *AdvisoryLocker) TryLock(_ context.Context, name string) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[name]; ok {
		return nil, false, nil
	}
	l.held[name] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, name)
			l.mu.Unlock()
		})
		return nil
	}, true, nil
}
