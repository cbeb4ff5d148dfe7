package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/player"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/trade"
	"github.com/riskibarqy/fantasy-settlement/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

const (
	tradeTeamID int64 = 77
	tradeOwner        = "owner-77"
)

type countingTradeStore struct {
	trade.Store
	calls int
}

func (s *countingTradeStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx trade.Tx) error) error {
	s.calls++
	return s.Store.RunInTx(ctx, fn)
}

type tradeFixture struct {
	db      *memory.DB
	clock   *clockwork.FakeClock
	store   *countingTradeStore
	metrics *countingMetrics
}

func newTradeFixture(t *testing.T, budget string) *tradeFixture {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 17, 12, 0, 0, 0, newYork))
	db := memory.NewDB(clock)
	require.NoError(t, db.PutTeam(fantasy.Team{ID: tradeTeamID, OwnerUserID: tradeOwner, Budget: dec(budget)}))
	db.PutPlayer(player.Player{ID: 1, Name: "Max Price", Price: dec("1000")})
	db.PutPlayer(player.Player{ID: 2, Name: "Min Price", Price: dec("1")})
	db.PutPlayer(player.Player{ID: 3, Name: "Mid Price", Price: dec("45")})
	db.PutPlayer(player.Player{ID: 4, Name: "Cheap", Price: dec("5")})

	return &tradeFixture{
		db:      db,
		clock:   clock,
		store:   &countingTradeStore{Store: memory.NewTradeStore(db)},
		metrics: newCountingMetrics(),
	}
}

func (f *tradeFixture) service(locked bool) *TradeService {
	return NewTradeService(
		f.store,
		memory.NewTeamRepository(f.db),
		staticLock{locked: locked},
		nil,
		f.metrics,
		logging.NewNop(),
		fantasy.DefaultRules(),
		newYork,
	)
}

func requireReason(t *testing.T, err error, want trade.Reason) {
	t.Helper()
	require.ErrorIs(t, err, trade.ErrRejected)
	got, ok := trade.ReasonOf(err)
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestTradeService_BudgetScenario(t *testing.T) {
	t.Parallel()

	f := newTradeFixture(t, "1000")
	svc := f.service(false)

	res, err := svc.ApplyTrades(t.Context(), trade.Input{OwnerUserID: tradeOwner, TeamID: tradeTeamID, Add: []int64{1}})
	require.NoError(t, err)
	require.True(t, res.Budget.IsZero())
	require.True(t, res.SettledAt.Equal(f.clock.Now()))
	require.Equal(t, []int64{1}, f.db.RosterPlayerIDs(tradeTeamID))

	_, err = svc.ApplyTrades(t.Context(), trade.Input{OwnerUserID: tradeOwner, TeamID: tradeTeamID, Add: []int64{2}})
	requireReason(t, err, trade.ReasonInsufficientBudget)

	team, _ := f.db.Team(tradeTeamID)
	require.True(t, team.Budget.IsZero(), "budget must not be re-debited, got %s", team.Budget)
	require.Equal(t, []int64{1}, f.db.RosterPlayerIDs(tradeTeamID))
	require.Equal(t, 1, f.metrics.trades[string(trade.ReasonInsufficientBudget)])
}

func TestTradeService_Quota(t *testing.T) {
	t.Parallel()

	f := newTradeFixture(t, "100")
	f.db.AppendTradeRecords(trade.Record{
		ID: "r0", MovementID: "m0", TeamID: tradeTeamID, PlayerID: 9, Action: trade.ActionAdd, CreatedAt: f.clock.Now().Add(-time.Hour),
	})
	svc := f.service(false)

	_, err := svc.ApplyTrades(t.Context(), trade.Input{OwnerUserID: tradeOwner, TeamID: tradeTeamID, Add: []int64{3, 4}})
	requireReason(t, err, trade.ReasonQuotaExceeded)
	require.Empty(t, f.db.RosterPlayerIDs(tradeTeamID))

	_, err = svc.ApplyTrades(t.Context(), trade.Input{OwnerUserID: tradeOwner, TeamID: tradeTeamID, Add: []int64{4}})
	require.NoError(t, err)

	_, err = svc.ApplyTrades(t.Context(), trade.Input{OwnerUserID: tradeOwner, TeamID: tradeTeamID, Add: []int64{3}})
	requireReason(t, err, trade.ReasonQuotaExceeded)
}

func TestTradeService_QuotaDayFollowsOperatingTimezone(t *testing.T) {
	t.Parallel()

	f := newTradeFixture(t, "100")
	// 23:30 on Oct 16 in New York, already Oct 17 in UTC.
	lateYesterday := time.Date(2026, 10, 17, 3, 30, 0, 0, time.UTC)
	f.db.AppendTradeRecords(
		trade.Record{ID: "a", MovementID: "m1", TeamID: tradeTeamID, PlayerID: 8, Action: trade.ActionAdd, CreatedAt: lateYesterday},
		trade.Record{ID: "b", MovementID: "m2", TeamID: tradeTeamID, PlayerID: 9, Action: trade.ActionAdd, CreatedAt: lateYesterday},
	)

	_, err := f.service(false).ApplyTrades(t.Context(), trade.Input{OwnerUserID: tradeOwner, TeamID: tradeTeamID, Add: []int64{3, 4}})
	require.NoError(t, err)
}

func TestTradeService_MarketLockedWinsOverEverything(t *testing.T) {
	t.Parallel()

	f := newTradeFixture(t, "0")
	_, err := f.service(true).ApplyTrades(t.Context(), trade.Input{OwnerUserID: tradeOwner, TeamID: tradeTeamID, Add: []int64{1, 2, 3}})
	requireReason(t, err, trade.ReasonMarketLocked)
	require.Zero(t, f.store.calls, "lock is checked before the transaction opens")
}

func TestTradeService_NoTeamForOwner(t *testing.T) {
	t.Parallel()

	f := newTradeFixture(t, "100")
	_, err := f.service(false).ApplyTrades(t.Context(), trade.Input{OwnerUserID: "someone-else", TeamID: tradeTeamID, Add: []int64{4}})
	requireReason(t, err, trade.ReasonNoTeam)
}

func TestTradeService_DropsBeforeAddsAndRefunds(t *testing.T) {
	t.Parallel()

	f := newTradeFixture(t, "10")
	f.db.PutRosterSlot(fantasy.RosterSlot{TeamID: tradeTeamID, PlayerID: 2, AcquiredPrice: dec("40")})
	f.db.JoinLeague(tradeTeamID, 1)
	f.db.JoinLeague(tradeTeamID, 2)

	res, err := f.service(false).ApplyTrades(t.Context(), trade.Input{
		OwnerUserID: tradeOwner, TeamID: tradeTeamID, Add: []int64{3}, Drop: []int64{2},
	})
	require.NoError(t, err)
	require.True(t, res.Budget.Equal(dec("5")), "10 + 40 refund - 45, got %s", res.Budget)
	require.Equal(t, []int64{3}, f.db.RosterPlayerIDs(tradeTeamID))

	records := f.db.TradeRecords(tradeTeamID)
	require.Len(t, records, 4, "two movements fanned out to two leagues")
	require.Equal(t, trade.ActionDrop, records[0].Action)
	require.Equal(t, records[0].MovementID, records[1].MovementID)
	require.NotEqual(t, records[0].MovementID, records[2].MovementID)
	for _, r := range records {
		require.NotNil(t, r.LeagueID)
	}
}

func TestTradeService_NoLeagueWritesSingleNullLeagueRecord(t *testing.T) {
	t.Parallel()

	f := newTradeFixture(t, "100")
	_, err := f.service(false).ApplyTrades(t.Context(), trade.Input{OwnerUserID: tradeOwner, TeamID: tradeTeamID, Add: []int64{4}})
	require.NoError(t, err)

	records := f.db.TradeRecords(tradeTeamID)
	require.Len(t, records, 1)
	require.Nil(t, records[0].LeagueID)
}

func TestTradeService_BatchRollsBackOnLaterFailure(t *testing.T) {
	t.Parallel()

	f := newTradeFixture(t, "50")
	f.db.PutRosterSlot(fantasy.RosterSlot{TeamID: tradeTeamID, PlayerID: 4, AcquiredPrice: dec("5")})
	svc := f.service(false)

	// drop refunds 5, add 3 costs 45 leaving 10, add 1 costs 1000
	_, err := svc.ApplyTrades(t.Context(), trade.Input{OwnerUserID: tradeOwner, TeamID: tradeTeamID, Drop: []int64{4}, Add: []int64{3}})
	require.NoError(t, err)

	f.db.PutRosterSlot(fantasy.RosterSlot{TeamID: tradeTeamID, PlayerID: 2, AcquiredPrice: dec("1")})
	f.clock.Advance(24 * time.Hour)
	_, err = svc.ApplyTrades(t.Context(), trade.Input{OwnerUserID: tradeOwner, TeamID: tradeTeamID, Drop: []int64{2}, Add: []int64{1}})
	requireReason(t, err, trade.ReasonInsufficientBudget)

	team, _ := f.db.Team(tradeTeamID)
	require.True(t, team.Budget.Equal(dec("10")), "got %s", team.Budget)
	require.Equal(t, []int64{2, 3}, f.db.RosterPlayerIDs(tradeTeamID), "the drop must roll back too")
	require.Len(t, f.db.TradeRecords(tradeTeamID), 2)
}

func TestTradeService_BatchDuplicateAddFailsWholeTransaction(t *testing.T) {
	t.Parallel()

	f := newTradeFixture(t, "100")
	f.db.PutRosterSlot(fantasy.RosterSlot{TeamID: tradeTeamID, PlayerID: 4, AcquiredPrice: dec("5")})
	f.db.PutRosterSlot(fantasy.RosterSlot{TeamID: tradeTeamID, PlayerID: 2, AcquiredPrice: dec("1")})

	_, err := f.service(false).ApplyTrades(t.Context(), trade.Input{OwnerUserID: tradeOwner, TeamID: tradeTeamID, Drop: []int64{2}, Add: []int64{4}})
	requireReason(t, err, trade.ReasonDuplicateRosterEntry)
	require.Equal(t, 1, f.store.calls)

	require.Equal(t, []int64{2, 4}, f.db.RosterPlayerIDs(tradeTeamID))
	team, _ := f.db.Team(tradeTeamID)
	require.True(t, team.Budget.Equal(dec("100")))
}

func TestTradeService_AddPlayerPrechecksDuplicateWithoutTransaction(t *testing.T) {
	t.Parallel()

	f := newTradeFixture(t, "100")
	f.db.PutRosterSlot(fantasy.RosterSlot{TeamID: tradeTeamID, PlayerID: 4, AcquiredPrice: dec("5")})
	svc := f.service(false)

	_, err := svc.AddPlayer(t.Context(), tradeOwner, tradeTeamID, 4)
	requireReason(t, err, trade.ReasonDuplicateRosterEntry)
	require.Zero(t, f.store.calls)

	res, err := svc.AddPlayer(t.Context(), tradeOwner, tradeTeamID, 3)
	require.NoError(t, err)
	require.True(t, res.Budget.Equal(dec("55")))
}

func TestTradeService_DropPlayer(t *testing.T) {
	t.Parallel()

	f := newTradeFixture(t, "0")
	f.db.PutRosterSlot(fantasy.RosterSlot{TeamID: tradeTeamID, PlayerID: 3, AcquiredPrice: dec("45")})
	svc := f.service(false)

	res, err := svc.DropPlayer(t.Context(), tradeOwner, tradeTeamID, 3)
	require.NoError(t, err)
	require.True(t, res.Budget.Equal(dec("45")))

	res, err = svc.DropPlayer(t.Context(), tradeOwner, tradeTeamID, 3)
	require.NoError(t, err)
	require.True(t, res.Budget.Equal(dec("45")), "absent drop must not refund, got %s", res.Budget)
	require.Equal(t, []int64{3}, res.Dropped)

	records := f.db.TradeRecords(tradeTeamID)
	require.Len(t, records, 2)
	for _, r := range records {
		require.Equal(t, trade.ActionDrop, r.Action)
	}
}

func TestTradeService_AbsentDropDoesNotBlockAdd(t *testing.T) {
	t.Parallel()

	f := newTradeFixture(t, "100")
	svc := f.service(false)

	res, err := svc.ApplyTrades(t.Context(), trade.Input{
		OwnerUserID: tradeOwner,
		TeamID:      tradeTeamID,
		Drop:        []int64{3},
		Add:         []int64{4},
	})
	require.NoError(t, err)
	require.True(t, res.Budget.Equal(dec("95")))
	require.Equal(t, []int64{4}, f.db.RosterPlayerIDs(tradeTeamID))

	team, _ := f.db.Team(tradeTeamID)
	require.True(t, team.Budget.Equal(dec("95")))

	actions := map[trade.Action]int{}
	for _, r := range f.db.TradeRecords(tradeTeamID) {
		actions[r.Action]++
	}
	require.Equal(t, map[trade.Action]int{trade.ActionAdd: 1, trade.ActionDrop: 1}, actions)

	_, err = svc.ApplyTrades(t.Context(), trade.Input{OwnerUserID: tradeOwner, TeamID: tradeTeamID, Add: []int64{2}})
	requireReason(t, err, trade.ReasonQuotaExceeded)
}

func TestTradeService_RejectsEmptyAndMalformedInput(t *testing.T) {
	t.Parallel()

	f := newTradeFixture(t, "100")
	svc := f.service(false)

	_, err := svc.ApplyTrades(t.Context(), trade.Input{OwnerUserID: tradeOwner, TeamID: tradeTeamID})
	requireReason(t, err, trade.ReasonEmptyTrade)

	_, err = svc.ApplyTrades(t.Context(), trade.Input{OwnerUserID: tradeOwner, TeamID: tradeTeamID, Add: []int64{4, 4}})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.ApplyTrades(t.Context(), trade.Input{OwnerUserID: tradeOwner, TeamID: tradeTeamID, Add: []int64{999}})
	requireReason(t, err, trade.ReasonUnknownPlayer)
}

func TestTradeService_LockCheckErrorIsNotARejection(t *testing.T) {
	t.Parallel()

	f := newTradeFixture(t, "100")
	svc := NewTradeService(f.store, memory.NewTeamRepository(f.db), staticLock{err: errors.New("db down")}, nil, nil, logging.NewNop(), fantasy.Rules{}, newYork)

	_, err := svc.ApplyTrades(t.Context(), trade.Input{OwnerUserID: tradeOwner, TeamID: tradeTeamID, Add: []int64{4}})
	require.Error(t, err)
	require.NotErrorIs(t, err, trade.ErrRejected)
}

func TestQuotaDay(t *testing.T) {
	t.Parallel()

	from, to := QuotaDay(time.Date(2026, 10, 17, 3, 30, 0, 0, time.UTC), newYork)
	require.True(t, from.Equal(time.Date(2026, 10, 16, 0, 0, 0, 0, newYork)))
	require.True(t, to.Equal(time.Date(2026, 10, 17, 0, 0, 0, 0, newYork)))
}
