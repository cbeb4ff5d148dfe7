package postgres

import (
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-settlement/internal/domain/settlement"
	qb "github.com/riskibarqy/fantasy-settlement/internal/platform/querybuilder"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestSettlementRunInsertModel_NullErrorWhenEmpty(t *testing.T) {
	t.Parallel()

	started := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	run := settlement.Run{
		ID:            "run-1",
		Trigger:       settlement.TriggerCron,
		Status:        settlement.StatusDone,
		FinalState:    settlement.StateDone,
		GamesSettled:  3,
		PointsAwarded: decimal.RequireFromString("88.4"),
		StartedAt:     started,
		FinishedAt:    started.Add(time.Second),
	}

	model := settlementRunInsertModelFrom(run)
	require.Nil(t, model.Error)
	require.Equal(t, "cron", model.Trigger)
	require.Equal(t, "DONE", model.FinalState)

	run.Error = "fetch stats: upstream 503"
	model = settlementRunInsertModelFrom(run)
	require.NotNil(t, model.Error)
	require.Equal(t, run.Error, *model.Error)
}

func TestPlayerModel_ReadonlyColumnsStayOutOfInserts(t *testing.T) {
	t.Parallel()

	query, args, err := qb.InsertModel("players", playerTableModel{ID: 1, Name: "A", NBATeamID: 2, Price: decimal.NewFromInt(5)}, "")
	require.NoError(t, err)
	require.Equal(t, "INSERT INTO players (id, name, nba_team_id, price) VALUES ($1, $2, $3, $4)", query)
	require.Len(t, args, 4)
}

func TestTradeRecordInsertModels_NullableLeague(t *testing.T) {
	t.Parallel()

	league := int64(9)
	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	query, args, err := qb.InsertModels("trade_records", []tradeRecordInsertModel{
		{ID: "a", MovementID: "m", TeamID: 1, PlayerID: 2, Action: "add", LeagueID: &league, CreatedAt: at},
		{ID: "b", MovementID: "n", TeamID: 1, PlayerID: 3, Action: "drop", CreatedAt: at},
	}, "")
	require.NoError(t, err)
	require.Contains(t, query, "(id, movement_id, team_id, player_id, action, league_id, created_at)")
	require.Len(t, args, 14)
	require.Nil(t, args[12])
}
