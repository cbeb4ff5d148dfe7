package trade

import (
	"context"
	"errors"
	"time"

	"github.com/riskibarqy/fantasy-settlement/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/player"
	"github.com/shopspring/decimal"
)

// ErrDuplicateRosterEntry is returned by Tx.InsertRosterSlot on a unique violation.
// The transaction is unusable afterwards and must be rolled back.
var ErrDuplicateRosterEntry = errors.New("duplicate roster entry")

// Store opens trade transactions.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of reads and writes the ledger performs atomically.
type Tx interface {
	// Now is the transaction clock.
	Now(ctx context.Context) (time.Time, error)
	// LockTeam reads the team row for update, scoped to its owner.
	LockTeam(ctx context.Context, teamID int64, ownerUserID string) (fantasy.Team, bool, error)
	// CountMovements counts distinct movements in [from, to).
	CountMovements(ctx context.Context, teamID int64, from, to time.Time) (int, error)
	DeleteRosterSlot(ctx context.Context, teamID, playerID int64) (fantasy.RosterSlot, bool, error)
	GetPlayer(ctx context.Context, playerID int64) (player.Player, bool, error)
	InsertRosterSlot(ctx context.Context, slot fantasy.RosterSlot) error
	SetBudget(ctx context.Context, teamID int64, budget decimal.Decimal) error
	LeagueIDs(ctx context.Context, teamID int64) ([]int64, error)
	InsertRecords(ctx context.Context, records []Record) error
}
