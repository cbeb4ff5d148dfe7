package memory

import (
	"context"

	"github.com/riskibarqy/fantasy-settlement/internal/domain/settlement"
)

type RunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) RecordRun(_ context.Context, run settlement.Run) error {
	run.Intents = nil
	r.db.with(func(st *state) { st.runs = append(st.runs, run) })
	return nil
}
