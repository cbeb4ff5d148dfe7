package memory

import (
	"context"
	"slices"
	"time"

	"github.com/riskibarqy/fantasy-settlement/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/player"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/trade"
	"github.com/shopspring/decimal"
)

type TradeStore struct {
	db *DB
}

func NewTradeStore(db *DB) *TradeStore {
	return &TradeStore{db: db}
}

func (s *TradeStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx trade.Tx) error) error {
	return s.db.runInTx(func(st *state, now time.Time) error {
		return fn(ctx, &tradeTx{db: s.db, st: st, now: now})
	})
}

type tradeTx struct {
	db  *DB
	st  *state
	now time.Time
}

func (tx *tradeTx) Now(context.Context) (time.Time, error) {
	return tx.now, nil
}

func (tx *tradeTx) LockTeam(_ context.Context, teamID int64, ownerUserID string) (fantasy.Team, bool, error) {
	if err := tx.db.failure("LockTeam"); err != nil {
		return fantasy.Team{}, false, err
	}
	team, ok := tx.st.teams[teamID]
	if !ok || team.OwnerUserID != ownerUserID {
		return fantasy.Team{}, false, nil
	}
	return team, true, nil
}

func (tx *tradeTx) CountMovements(_ context.Context, teamID int64, from, to time.Time) (int, error) {
	if err := tx.db.failure("CountMovements"); err != nil {
		return 0, err
	}
	movements := make(map[string]struct{})
	for _, r := range tx.st.records {
		if r.TeamID != teamID || r.CreatedAt.Before(from) || !r.CreatedAt.Before(to) {
			continue
		}
		movements[r.MovementID] = struct{}{}
	}
	return len(movements), nil
}

func (tx *tradeTx) DeleteRosterSlot(_ context.Context, teamID, playerID int64) (fantasy.RosterSlot, bool, error) {
	if err := tx.db.failure("DeleteRosterSlot"); err != nil {
		return fantasy.RosterSlot{}, false, err
	}
	key := slotKey{teamID, playerID}
	slot, ok := tx.st.slots[key]
	if !ok {
		return fantasy.RosterSlot{}, false, nil
	}
	delete(tx.st.slots, key)
	return slot, true, nil
}

func (tx *tradeTx) GetPlayer(_ context.Context, playerID int64) (player.Player, bool, error) {
	if err := tx.db.failure("GetPlayer"); err != nil {
		return player.Player{}, false, err
	}
	p, ok := tx.st.players[playerID]
	return p, ok, nil
}

func (tx *tradeTx) InsertRosterSlot(_ context.Context, slot fantasy.RosterSlot) error {
	if err := tx.db.failure("InsertRosterSlot"); err != nil {
		return err
	}
	key := slotKey{slot.TeamID, slot.PlayerID}
	if _, ok := tx.st.slots[key]; ok {
		return trade.ErrDuplicateRosterEntry
	}
	if slot.TotalPointsAccrued.IsZero() {
		slot.TotalPointsAccrued = decimal.Zero
	}
	tx.st.slots[key] = slot
	return nil
}

func (tx *tradeTx) SetBudget(_ context.Context, teamID int64, budget decimal.Decimal) error {
	if err := tx.db.failure("SetBudget"); err != nil {
		return err
	}
	if budget.IsNegative() {
		return fantasy.ErrNegativeBudget
	}
	team := tx.st.teams[teamID]
	team.Budget = budget
	team.UpdatedAt = tx.now
	tx.st.teams[teamID] = team
	return nil
}

func (tx *tradeTx) LeagueIDs(_ context.Context, teamID int64) ([]int64, error) {
	if err := tx.db.failure("LeagueIDs"); err != nil {
		return nil, err
	}
	out := make([]int64, 0, len(tx.st.leaguePoints[teamID]))
	for leagueID := range tx.st.leaguePoints[teamID] {
		out = append(out, leagueID)
	}
	slices.Sort(out)
	return out, nil
}

func (tx *tradeTx) InsertRecords(_ context.Context, records []trade.Record) error {
	if err := tx.db.failure("InsertRecords"); err != nil {
		return err
	}
	tx.st.records = append(tx.st.records, records...)
	return nil
}
