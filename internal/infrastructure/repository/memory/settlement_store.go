package memory

import (
	"context"
	"time"

	"github.com/riskibarqy/fantasy-settlement/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/settlement"
	"github.com/shopspring/decimal"
)

type SettlementStore struct {
	db *DB
}

func NewSettlementStore(db *DB) *SettlementStore {
	return &SettlementStore{db: db}
}

func (s *SettlementStore) ProcessedGameIDs(_ context.Context, gameIDs []int64) (map[int64]struct{}, error) {
	var out map[int64]struct{}
	s.db.with(func(st *state) { out = processedIn(st, gameIDs) })
	return out, nil
}

func (s *SettlementStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx settlement.Tx) error) error {
	return s.db.runInTx(func(st *state, now time.Time) error {
		return fn(ctx, &settlementTx{db: s.db, st: st})
	})
}

func processedIn(st *state, gameIDs []int64) map[int64]struct{} {
	out := make(map[int64]struct{})
	for _, gameID := range gameIDs {
		if _, ok := st.processed[gameID]; ok {
			out[gameID] = struct{}{}
		}
	}
	return out
}

type settlementTx struct {
	db *DB
	st *state
}

func (tx *settlementTx) ProcessedGameIDs(_ context.Context, gameIDs []int64) (map[int64]struct{}, error) {
	if err := tx.db.failure("ProcessedGameIDs"); err != nil {
		return nil, err
	}
	return processedIn(tx.st, gameIDs), nil
}

func (tx *settlementTx) InsertPointEvent(_ context.Context, event settlement.PointEvent) (bool, error) {
	if err := tx.db.failure("InsertPointEvent"); err != nil {
		return false, err
	}
	if _, ok := tx.st.events[event.Key()]; ok {
		return false, nil
	}
	tx.st.events[event.Key()] = event
	return true, nil
}

func (tx *settlementTx) HoldingsByPlayers(_ context.Context, playerIDs []int64) ([]fantasy.Holding, error) {
	if err := tx.db.failure("HoldingsByPlayers"); err != nil {
		return nil, err
	}
	wanted := make(map[int64]struct{}, len(playerIDs))
	for _, playerID := range playerIDs {
		wanted[playerID] = struct{}{}
	}

	var out []fantasy.Holding
	for key, slot := range tx.st.slots {
		if _, ok := wanted[key.playerID]; !ok {
			continue
		}
		out = append(out, fantasy.Holding{
			TeamID:      slot.TeamID,
			OwnerUserID: tx.st.teams[slot.TeamID].OwnerUserID,
			PlayerID:    slot.PlayerID,
			IsCaptain:   slot.IsCaptain,
		})
	}
	return out, nil
}

func (tx *settlementTx) AddTeamPlayerDailyPoints(_ context.Context, key settlement.TeamPlayerKey, points decimal.Decimal) error {
	if err := tx.db.failure("AddTeamPlayerDailyPoints"); err != nil {
		return err
	}
	tx.st.teamPlayerDaily[key] = tx.st.teamPlayerDaily[key].Add(points)
	return nil
}

func (tx *settlementTx) AddRosterSlotPoints(_ context.Context, teamID, playerID int64, points decimal.Decimal) error {
	if err := tx.db.failure("AddRosterSlotPoints"); err != nil {
		return err
	}
	key := slotKey{teamID, playerID}
	slot, ok := tx.st.slots[key]
	if !ok {
		return nil
	}
	slot.TotalPointsAccrued = slot.TotalPointsAccrued.Add(points)
	tx.st.slots[key] = slot
	return nil
}

func (tx *settlementTx) AddTeamPoints(_ context.Context, teamID int64, points decimal.Decimal) error {
	if err := tx.db.failure("AddTeamPoints"); err != nil {
		return err
	}
	team, ok := tx.st.teams[teamID]
	if !ok {
		return nil
	}
	team.TotalPoints = team.TotalPoints.Add(points)
	tx.st.teams[teamID] = team

	for leagueID, current := range tx.st.leaguePoints[teamID] {
		tx.st.leaguePoints[teamID][leagueID] = current.Add(points)
	}
	return nil
}

func (tx *settlementTx) AddTeamDailyPoints(_ context.Context, key settlement.TeamDayKey, points decimal.Decimal) error {
	if err := tx.db.failure("AddTeamDailyPoints"); err != nil {
		return err
	}
	tx.st.teamDaily[key] = tx.st.teamDaily[key].Add(points)
	return nil
}

func (tx *settlementTx) MarkGamesProcessed(_ context.Context, gameIDs []int64, at time.Time) error {
	if err := tx.db.failure("MarkGamesProcessed"); err != nil {
		return err
	}
	for _, gameID := range gameIDs {
		if _, ok := tx.st.processed[gameID]; !ok {
			tx.st.processed[gameID] = at
		}
	}
	return nil
}
