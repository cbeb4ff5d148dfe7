package memory

import (
	"context"

	"github.com/riskibarqy/fantasy-settlement/internal/domain/fantasy"
)

type TeamRepository struct {
	db *DB
}

func NewTeamRepository(db *DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) GetTeamForOwner(_ context.Context, teamID int64, ownerUserID string) (fantasy.Team, bool, error) {
	team, ok := r.db.Team(teamID)
	if !ok || team.OwnerUserID != ownerUserID {
		return fantasy.Team{}, false, nil
	}
	return team, true, nil
}

func (r *TeamRepository) IsOnRoster(_ context.Context, teamID, playerID int64) (bool, error) {
	_, ok := r.db.RosterSlot(teamID, playerID)
	return ok, nil
}
