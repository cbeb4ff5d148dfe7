package player

import "context"

// Repository describes player catalogue reads outside a trade transaction.
type Repository interface {
	GetByID(ctx context.Context, playerID int64) (Player, bool, error)
}
