package postgres

import (
	"time"

	"github.com/shopspring/decimal"
)

type playerTableModel struct {
	ID        int64           `db:"id"`
	Name      string          `db:"name"`
	NBATeamID int64           `db:"nba_team_id"`
	Price     decimal.Decimal `db:"price"`
	CreatedAt time.Time       `db:"created_at,readonly"`
	UpdatedAt time.Time       `db:"updated_at,readonly"`
}

var playerColumns = []string{"id", "name", "nba_team_id", "price", "created_at", "updated_at"}
