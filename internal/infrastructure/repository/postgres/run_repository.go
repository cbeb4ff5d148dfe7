package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/settlement"
	qb "github.com/riskibarqy/fantasy-settlement/internal/platform/querybuilder"
)

type RunRepository struct {
	db *sqlx.DB
}

func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) RecordRun(ctx context.Context, run settlement.Run) error {
	query, args, err := qb.InsertModel("settlement_runs", settlementRunInsertModelFrom(run), "")
	if err != nil {
		return fmt.Errorf("build insert settlement run query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert settlement run %s: %w", run.ID, err)
	}
	return nil
}

func settlementRunInsertModelFrom(run settlement.Run) settlementRunInsertModel {
	model := settlementRunInsertModel{
		ID:            run.ID,
		Trigger:       string(run.Trigger),
		Status:        string(run.Status),
		FinalState:    string(run.FinalState),
		GamesSettled:  run.GamesSettled,
		TeamsCredited: run.TeamsCredited,
		PointsAwarded: run.PointsAwarded,
		SkippedLines:  run.SkippedLines,
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
	}
	if run.Error != "" {
		msg := run.Error
		model.Error = &msg
	}
	return model
}
