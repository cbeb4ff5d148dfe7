package postgres

import (
	"time"

	"github.com/shopspring/decimal"
)

const rosterSlotsPrimaryKey = "roster_slots_pkey"

type fantasyTeamTableModel struct {
	ID          int64           `db:"id"`
	OwnerUserID string          `db:"owner_user_id"`
	Name        string          `db:"name"`
	Budget      decimal.Decimal `db:"budget"`
	TotalPoints decimal.Decimal `db:"total_points"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

var fantasyTeamColumns = []string{"id", "owner_user_id", "name", "budget", "total_points", "created_at", "updated_at"}

type rosterSlotTableModel struct {
	TeamID             int64           `db:"team_id"`
	PlayerID           int64           `db:"player_id"`
	AcquiredPrice      decimal.Decimal `db:"acquired_price"`
	IsCaptain          bool            `db:"is_captain"`
	TotalPointsAccrued decimal.Decimal `db:"total_points_accrued"`
	AcquiredAt         time.Time       `db:"acquired_at"`
}

var rosterSlotColumns = []string{"team_id", "player_id", "acquired_price", "is_captain", "total_points_accrued", "acquired_at"}

type rosterSlotInsertModel struct {
	TeamID        int64           `db:"team_id"`
	PlayerID      int64           `db:"player_id"`
	AcquiredPrice decimal.Decimal `db:"acquired_price"`
	IsCaptain     bool            `db:"is_captain"`
	AcquiredAt    time.Time       `db:"acquired_at"`
}

type holdingRow struct {
	TeamID      int64  `db:"team_id"`
	OwnerUserID string `db:"owner_user_id"`
	PlayerID    int64  `db:"player_id"`
	IsCaptain   bool   `db:"is_captain"`
}
