package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/player"
	qb "github.com/riskibarqy/fantasy-settlement/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) GetByID(ctx context.Context, playerID int64) (player.Player, bool, error) {
	return getPlayer(ctx, r.db, playerID)
}

func getPlayer(ctx context.Context, q sqlx.QueryerContext, playerID int64) (player.Player, bool, error) {
	query, args, err := qb.Select(playerColumns...).
		From("players").
		Where(qb.Eq("id", playerID)).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build get player query: %w", err)
	}

	var row playerTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("get player %d: %w", playerID, err)
	}

	return player.Player{
		ID:        row.ID,
		Name:      row.Name,
		NBATeamID: row.NBATeamID,
		Price:     row.Price,
	}, true, nil
}
