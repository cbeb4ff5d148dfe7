package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/settlement"
	qb "github.com/riskibarqy/fantasy-settlement/internal/platform/querybuilder"
	"github.com/shopspring/decimal"
)

// SettlementRepository persists point events and their aggregates.
type SettlementRepository struct {
	db *sqlx.DB
}

func NewSettlementRepository(db *sqlx.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

func (r *SettlementRepository) ProcessedGameIDs(ctx context.Context, gameIDs []int64) (map[int64]struct{}, error) {
	return processedGameIDs(ctx, r.db, gameIDs)
}

func (r *SettlementRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx settlement.Tx) error) error {
	return runInTx(ctx, r.db, "settlement", func(tx *sqlx.Tx) error {
		return fn(ctx, &settlementTx{tx: tx})
	})
}

type settlementTx struct {
	tx *sqlx.Tx
}

func (t *settlementTx) ProcessedGameIDs(ctx context.Context, gameIDs []int64) (map[int64]struct{}, error) {
	return processedGameIDs(ctx, t.tx, gameIDs)
}

func (t *settlementTx) InsertPointEvent(ctx context.Context, event settlement.PointEvent) (bool, error) {
	query, args, err := insertPointEventSQL(event)
	if err != nil {
		return false, fmt.Errorf("build insert point event query: %w", err)
	}

	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert point event player=%d game=%d: %w", event.PlayerID, event.GameID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("point event rows affected: %w", err)
	}
	return affected == 1, nil
}

func (t *settlementTx) HoldingsByPlayers(ctx context.Context, playerIDs []int64) ([]fantasy.Holding, error) {
	if len(playerIDs) == 0 {
		return nil, nil
	}

	query, args, err := qb.Select("rs.team_id", "ft.owner_user_id", "rs.player_id", "rs.is_captain").
		From("roster_slots rs JOIN fantasy_teams ft ON ft.id = rs.team_id").
		Where(qb.In("rs.player_id", playerIDs)).
		OrderBy("rs.team_id", "rs.player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build holdings query: %w", err)
	}

	var rows []holdingRow
	if err := t.tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list holdings for %d players: %w", len(playerIDs), err)
	}

	out := make([]fantasy.Holding, 0, len(rows))
	for _, row := range rows {
		out = append(out, fantasy.Holding{
			TeamID:      row.TeamID,
			OwnerUserID: row.OwnerUserID,
			PlayerID:    row.PlayerID,
			IsCaptain:   row.IsCaptain,
		})
	}
	return out, nil
}

func (t *settlementTx) AddTeamPlayerDailyPoints(ctx context.Context, key settlement.TeamPlayerKey, points decimal.Decimal) error {
	query, args, err := upsertTeamPlayerDailyPointsSQL(key, points)
	if err != nil {
		return fmt.Errorf("build upsert team player daily points query: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert team player daily points team=%d player=%d date=%s: %w", key.TeamID, key.PlayerID, key.DateKey, err)
	}
	return nil
}

func (t *settlementTx) AddRosterSlotPoints(ctx context.Context, teamID, playerID int64, points decimal.Decimal) error {
	query, args, err := accrueRosterSlotPointsSQL(teamID, playerID, points)
	if err != nil {
		return fmt.Errorf("build accrue roster slot points query: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("accrue roster slot points team=%d player=%d: %w", teamID, playerID, err)
	}
	return nil
}

func (t *settlementTx) AddTeamPoints(ctx context.Context, teamID int64, points decimal.Decimal) error {
	teamQuery, teamArgs, err := addTeamPointsSQL(teamID, points)
	if err != nil {
		return fmt.Errorf("build add team points query: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, teamQuery, teamArgs...); err != nil {
		return fmt.Errorf("add team points team=%d: %w", teamID, err)
	}

	leagueQuery, leagueArgs, err := addLeaguePointsSQL(teamID, points)
	if err != nil {
		return fmt.Errorf("build add league points query: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, leagueQuery, leagueArgs...); err != nil {
		return fmt.Errorf("add league points team=%d: %w", teamID, err)
	}
	return nil
}

func (t *settlementTx) AddTeamDailyPoints(ctx context.Context, key settlement.TeamDayKey, points decimal.Decimal) error {
	query, args, err := upsertTeamDailyPointsSQL(key, points)
	if err != nil {
		return fmt.Errorf("build upsert team daily points query: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert team daily points team=%d date=%s: %w", key.TeamID, key.DateKey, err)
	}
	return nil
}

func (t *settlementTx) MarkGamesProcessed(ctx context.Context, gameIDs []int64, at time.Time) error {
	if len(gameIDs) == 0 {
		return nil
	}

	rows := make([]processedGameInsertModel, 0, len(gameIDs))
	for _, id := range gameIDs {
		rows = append(rows, processedGameInsertModel{GameID: id, ProcessedAt: at})
	}
	query, args, err := qb.InsertModels("processed_games", rows, "ON CONFLICT (game_id) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build mark games processed query: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark %d games processed: %w", len(gameIDs), err)
	}
	return nil
}

func processedGameIDs(ctx context.Context, q sqlx.QueryerContext, gameIDs []int64) (map[int64]struct{}, error) {
	out := make(map[int64]struct{}, len(gameIDs))
	if len(gameIDs) == 0 {
		return out, nil
	}

	query, args, err := qb.Select("game_id").
		From("processed_games").
		Where(qb.In("game_id", gameIDs)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build processed games query: %w", err)
	}

	var ids []int64
	if err := sqlx.SelectContext(ctx, q, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list processed games: %w", err)
	}
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

// Ledger statements only ever increment point totals.

const (
	pointEventConflict            = "ON CONFLICT (player_id, game_id) DO NOTHING"
	teamPlayerDailyPointsConflict = "ON CONFLICT (team_id, player_id, date_key) DO UPDATE SET points = team_player_daily_points.points + EXCLUDED.points"
	teamDailyPointsConflict       = "ON CONFLICT (team_id, date_key) DO UPDATE SET points = team_daily_points.points + EXCLUDED.points"
)

func insertPointEventSQL(event settlement.PointEvent) (string, []any, error) {
	return qb.InsertModel("fantasy_point_events", pointEventInsertModel{
		PlayerID: event.PlayerID,
		GameID:   event.GameID,
		DateKey:  event.DateKey,
		Points:   event.Points,
	}, pointEventConflict)
}

func upsertTeamPlayerDailyPointsSQL(key settlement.TeamPlayerKey, points decimal.Decimal) (string, []any, error) {
	return qb.InsertModel("team_player_daily_points", teamPlayerDailyPointsInsertModel{
		TeamID:   key.TeamID,
		PlayerID: key.PlayerID,
		DateKey:  key.DateKey,
		Points:   points,
	}, teamPlayerDailyPointsConflict)
}

func upsertTeamDailyPointsSQL(key settlement.TeamDayKey, points decimal.Decimal) (string, []any, error) {
	return qb.InsertModel("team_daily_points", teamDailyPointsInsertModel{
		TeamID:  key.TeamID,
		DateKey: key.DateKey,
		Points:  points,
	}, teamDailyPointsConflict)
}

func accrueRosterSlotPointsSQL(teamID, playerID int64, points decimal.Decimal) (string, []any, error) {
	return qb.Update("roster_slots").
		SetExpr("total_points_accrued", "total_points_accrued + ?", points).
		Where(
			qb.Eq("team_id", teamID),
			qb.Eq("player_id", playerID),
		).
		ToSQL()
}

func addTeamPointsSQL(teamID int64, points decimal.Decimal) (string, []any, error) {
	return qb.Update("fantasy_teams").
		SetExpr("total_points", "total_points + ?", points).
		SetExpr("updated_at", "now()").
		Where(qb.Eq("id", teamID)).
		ToSQL()
}

func addLeaguePointsSQL(teamID int64, points decimal.Decimal) (string, []any, error) {
	return qb.Update("league_members").
		SetExpr("points", "points + ?", points).
		Where(qb.Eq("team_id", teamID)).
		ToSQL()
}
