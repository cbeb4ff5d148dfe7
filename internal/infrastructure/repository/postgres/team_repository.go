package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/fantasy"
	qb "github.com/riskibarqy/fantasy-settlement/internal/platform/querybuilder"
)

// TeamRepository serves the read-only team lookups made outside trade transactions.
type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) GetTeamForOwner(ctx context.Context, teamID int64, ownerUserID string) (fantasy.Team, bool, error) {
	query, args, err := qb.Select(fantasyTeamColumns...).
		From("fantasy_teams").
		Where(
			qb.Eq("id", teamID),
			qb.Eq("owner_user_id", ownerUserID),
		).
		ToSQL()
	if err != nil {
		return fantasy.Team{}, false, fmt.Errorf("build get team query: %w", err)
	}

	var row fantasyTeamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return fantasy.Team{}, false, nil
		}
		return fantasy.Team{}, false, fmt.Errorf("get team %d: %w", teamID, err)
	}
	return teamFromRow(row), true, nil
}

func (r *TeamRepository) IsOnRoster(ctx context.Context, teamID, playerID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM roster_slots WHERE team_id = $1 AND player_id = $2)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, teamID, playerID); err != nil {
		return false, fmt.Errorf("check roster team=%d player=%d: %w", teamID, playerID, err)
	}
	return exists, nil
}
