package settlement

import (
	"context"
	"time"

	"github.com/riskibarqy/fantasy-settlement/internal/domain/fantasy"
	"github.com/shopspring/decimal"
)

// Store reads idempotency markers outside a transaction and opens ledger transactions.
type Store interface {
	ProcessedGameIDs(ctx context.Context, gameIDs []int64) (map[int64]struct{}, error)
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the ledger unit of work for one settlement pass.
type Tx interface {
	ProcessedGameIDs(ctx context.Context, gameIDs []int64) (map[int64]struct{}, error)
	// InsertPointEvent is a conditional insert; inserted is false when the key already exists.
	InsertPointEvent(ctx context.Context, event PointEvent) (inserted bool, err error)
	HoldingsByPlayers(ctx context.Context, playerIDs []int64) ([]fantasy.Holding, error)
	AddTeamPlayerDailyPoints(ctx context.Context, key TeamPlayerKey, points decimal.Decimal) error
	AddRosterSlotPoints(ctx context.Context, teamID, playerID int64, points decimal.Decimal) error
	// AddTeamPoints increments the team total and every league aggregate the team belongs to.
	AddTeamPoints(ctx context.Context, teamID int64, points decimal.Decimal) error
	AddTeamDailyPoints(ctx context.Context, key TeamDayKey, points decimal.Decimal) error
	MarkGamesProcessed(ctx context.Context, gameIDs []int64, at time.Time) error
}

// RunRepository keeps the settlement run history.
type RunRepository interface {
	RecordRun(ctx context.Context, run Run) error
}
