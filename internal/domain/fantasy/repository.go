package fantasy

import "context"

// Repository describes fantasy team reads outside a transaction.
type Repository interface {
	GetTeamForOwner(ctx context.Context, teamID int64, ownerUserID string) (Team, bool, error)
	IsOnRoster(ctx context.Context, teamID, playerID int64) (bool, error)
}
