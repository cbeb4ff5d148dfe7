package postgres

import "time"

type tradeRecordInsertModel struct {
	ID         string    `db:"id"`
	MovementID string    `db:"movement_id"`
	TeamID     int64     `db:"team_id"`
	PlayerID   int64     `db:"player_id"`
	Action     string    `db:"action"`
	LeagueID   *int64    `db:"league_id"`
	CreatedAt  time.Time `db:"created_at"`
}
