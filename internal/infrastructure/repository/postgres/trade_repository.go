package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/player"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/trade"
	qb "github.com/riskibarqy/fantasy-settlement/internal/platform/querybuilder"
	"github.com/shopspring/decimal"
)

// TradeRepository opens trade ledger transactions.
type TradeRepository struct {
	db *sqlx.DB
}

func NewTradeRepository(db *sqlx.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

func (r *TradeRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx trade.Tx) error) error {
	return runInTx(ctx, r.db, "trade", func(tx *sqlx.Tx) error {
		return fn(ctx, &tradeTx{tx: tx})
	})
}

type tradeTx struct {
	tx *sqlx.Tx
}

func (t *tradeTx) Now(ctx context.Context) (time.Time, error) {
	var now time.Time
	if err := t.tx.GetContext(ctx, &now, `SELECT now()`); err != nil {
		return time.Time{}, fmt.Errorf("select transaction time: %w", err)
	}
	return now, nil
}

func (t *tradeTx) LockTeam(ctx context.Context, teamID int64, ownerUserID string) (fantasy.Team, bool, error) {
	query, args, err := qb.Select(fantasyTeamColumns...).
		From("fantasy_teams").
		Where(
			qb.Eq("id", teamID),
			qb.Eq("owner_user_id", ownerUserID),
		).
		ForUpdate().
		ToSQL()
	if err != nil {
		return fantasy.Team{}, false, fmt.Errorf("build lock team query: %w", err)
	}

	var row fantasyTeamTableModel
	if err := t.tx.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return fantasy.Team{}, false, nil
		}
		return fantasy.Team{}, false, fmt.Errorf("lock team %d: %w", teamID, err)
	}
	return teamFromRow(row), true, nil
}

func (t *tradeTx) CountMovements(ctx context.Context, teamID int64, from, to time.Time) (int, error) {
	query, args, err := countMovementsSQL(teamID, from, to)
	if err != nil {
		return 0, fmt.Errorf("build count movements query: %w", err)
	}

	var count int
	if err := t.tx.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count movements team=%d: %w", teamID, err)
	}
	return count, nil
}

func (t *tradeTx) DeleteRosterSlot(ctx context.Context, teamID, playerID int64) (fantasy.RosterSlot, bool, error) {
	const query = `
DELETE FROM roster_slots
WHERE team_id = $1
  AND player_id = $2
RETURNING team_id, player_id, acquired_price, is_captain, total_points_accrued, acquired_at`

	var row rosterSlotTableModel
	if err := t.tx.GetContext(ctx, &row, query, teamID, playerID); err != nil {
		if isNotFound(err) {
			return fantasy.RosterSlot{}, false, nil
		}
		return fantasy.RosterSlot{}, false, fmt.Errorf("delete roster slot team=%d player=%d: %w", teamID, playerID, err)
	}
	return rosterSlotFromRow(row), true, nil
}

func (t *tradeTx) GetPlayer(ctx context.Context, playerID int64) (player.Player, bool, error) {
	return getPlayer(ctx, t.tx, playerID)
}

func (t *tradeTx) InsertRosterSlot(ctx context.Context, slot fantasy.RosterSlot) error {
	query, args, err := qb.InsertModel("roster_slots", rosterSlotInsertModel{
		TeamID:        slot.TeamID,
		PlayerID:      slot.PlayerID,
		AcquiredPrice: slot.AcquiredPrice,
		IsCaptain:     slot.IsCaptain,
		AcquiredAt:    slot.AcquiredAt,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert roster slot query: %w", err)
	}

	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err, rosterSlotsPrimaryKey) {
			return trade.ErrDuplicateRosterEntry
		}
		return fmt.Errorf("insert roster slot team=%d player=%d: %w", slot.TeamID, slot.PlayerID, err)
	}
	return nil
}

func (t *tradeTx) SetBudget(ctx context.Context, teamID int64, budget decimal.Decimal) error {
	query, args, err := qb.Update("fantasy_teams").
		Set("budget", budget).
		SetExpr("updated_at", "now()").
		Where(qb.Eq("id", teamID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set budget query: %w", err)
	}

	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: team=%d", fantasy.ErrNegativeBudget, teamID)
		}
		return fmt.Errorf("set budget team=%d: %w", teamID, err)
	}
	return nil
}

func (t *tradeTx) LeagueIDs(ctx context.Context, teamID int64) ([]int64, error) {
	return leagueIDsForTeam(ctx, t.tx, teamID)
}

func (t *tradeTx) InsertRecords(ctx context.Context, records []trade.Record) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]tradeRecordInsertModel, 0, len(records))
	for _, r := range records {
		rows = append(rows, tradeRecordInsertModel{
			ID:         r.ID,
			MovementID: r.MovementID,
			TeamID:     r.TeamID,
			PlayerID:   r.PlayerID,
			Action:     string(r.Action),
			LeagueID:   r.LeagueID,
			CreatedAt:  r.CreatedAt,
		})
	}

	query, args, err := qb.InsertModels("trade_records", rows, "")
	if err != nil {
		return fmt.Errorf("build insert trade records query: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %d trade records: %w", len(rows), err)
	}
	return nil
}

func leagueIDsForTeam(ctx context.Context, q sqlx.QueryerContext, teamID int64) ([]int64, error) {
	query, args, err := qb.Select("league_id").
		From("league_members").
		Where(qb.Eq("team_id", teamID)).
		OrderBy("league_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list team leagues query: %w", err)
	}

	var ids []int64
	if err := sqlx.SelectContext(ctx, q, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list leagues team=%d: %w", teamID, err)
	}
	return ids, nil
}

func teamFromRow(row fantasyTeamTableModel) fantasy.Team {
	return fantasy.Team{
		ID:          row.ID,
		OwnerUserID: row.OwnerUserID,
		Name:        row.Name,
		Budget:      row.Budget,
		TotalPoints: row.TotalPoints,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func rosterSlotFromRow(row rosterSlotTableModel) fantasy.RosterSlot {
	return fantasy.RosterSlot{
		TeamID:             row.TeamID,
		PlayerID:           row.PlayerID,
		AcquiredPrice:      row.AcquiredPrice,
		IsCaptain:          row.IsCaptain,
		TotalPointsAccrued: row.TotalPointsAccrued,
		AcquiredAt:         row.AcquiredAt,
	}
}

// countMovementsSQL counts movements, not records: one movement fans out to a
// record per league.
func countMovementsSQL(teamID int64, from, to time.Time) (string, []any, error) {
	return qb.Select("COUNT(DISTINCT movement_id)").
		From("trade_records").
		Where(
			qb.Eq("team_id", teamID),
			qb.Gte("created_at", from),
			qb.Lt("created_at", to),
		).
		ToSQL()
}
