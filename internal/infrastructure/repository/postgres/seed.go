package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-settlement/internal/infrastructure/repository/memory"
)

// BootstrapSeed loads the demo players, league and team into an empty database.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM players`); err != nil {
		return fmt.Errorf("count players for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	return runInTx(ctx, db, "seed", func(tx *sqlx.Tx) error {
		for _, p := range memory.SeedPlayers() {
			sqlQuery, args, err := sqlx.Named(`
INSERT INTO players (id, name, nba_team_id, price)
VALUES (:id, :name, :nba_team_id, :price)
ON CONFLICT (id) DO NOTHING`, map[string]any{
				"id":          p.ID,
				"name":        p.Name,
				"nba_team_id": p.NBATeamID,
				"price":       p.Price,
			})
			if err != nil {
				return fmt.Errorf("bind seed player %d query: %w", p.ID, err)
			}
			sqlQuery = tx.Rebind(sqlQuery)
			if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
				return fmt.Errorf("seed player %d: %w", p.ID, err)
			}
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO leagues (id, name) VALUES ($1, 'Demo League')
ON CONFLICT (id) DO NOTHING`, memory.DemoLeagueID); err != nil {
			return fmt.Errorf("seed league: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO fantasy_teams (id, owner_user_id, name, budget)
VALUES ($1, $2, 'Demo Ballers', 100)
ON CONFLICT (id) DO NOTHING`, memory.DemoTeamID, memory.DemoOwnerUserID); err != nil {
			return fmt.Errorf("seed team: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO league_members (league_id, team_id) VALUES ($1, $2)
ON CONFLICT (league_id, team_id) DO NOTHING`, memory.DemoLeagueID, memory.DemoTeamID); err != nil {
			return fmt.Errorf("seed league member: %w", err)
		}
		return nil
	})
}
