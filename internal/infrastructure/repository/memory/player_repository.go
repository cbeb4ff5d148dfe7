package memory

import (
	"context"

	"github.com/riskibarqy/fantasy-settlement/internal/domain/player"
)

type PlayerRepository struct {
	db *DB
}

func NewPlayerRepository(db *DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) GetByID(_ context.Context, playerID int64) (player.Player, bool, error) {
	var (
		p  player.Player
		ok bool
	)
	r.db.with(func(st *state) { p, ok = st.players[playerID] })
	return p, ok, nil
}
