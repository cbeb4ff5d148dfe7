package postgres

import (
	"time"

	"github.com/shopspring/decimal"
)

type pointEventInsertModel struct {
	PlayerID int64           `db:"player_id"`
	GameID   int64           `db:"game_id"`
	DateKey  string          `db:"date_key"`
	Points   decimal.Decimal `db:"points"`
}

type teamPlayerDailyPointsInsertModel struct {
	TeamID   int64           `db:"team_id"`
	PlayerID int64           `db:"player_id"`
	DateKey  string          `db:"date_key"`
	Points   decimal.Decimal `db:"points"`
}

type teamDailyPointsInsertModel struct {
	TeamID  int64           `db:"team_id"`
	DateKey string          `db:"date_key"`
	Points  decimal.Decimal `db:"points"`
}

type processedGameInsertModel struct {
	GameID      int64     `db:"game_id"`
	ProcessedAt time.Time `db:"processed_at"`
}

type settlementRunInsertModel struct {
	ID            string          `db:"id"`
	Trigger       string          `db:"trigger"`
	Status        string          `db:"status"`
	FinalState    string          `db:"final_state"`
	GamesSettled  int             `db:"games_settled"`
	TeamsCredited int             `db:"teams_credited"`
	PointsAwarded decimal.Decimal `db:"points_awarded"`
	SkippedLines  int             `db:"skipped_lines"`
	Error         *string         `db:"error"`
	StartedAt     time.Time       `db:"started_at"`
	FinishedAt    time.Time       `db:"finished_at"`
}
