package marketlock

import "context"

// Repository persists lock windows append-only.
type Repository interface {
	Append(ctx context.Context, lock Lock) (Lock, error)
	Latest(ctx context.Context) (Lock, bool, error)
}
