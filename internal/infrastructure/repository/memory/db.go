package memory

import (
	"cmp"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/marketlock"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/player"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/settlement"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/trade"
	"github.com/shopspring/decimal"
)

type slotKey struct {
	teamID   int64
	playerID int64
}

type state struct {
	players         map[int64]player.Player
	teams           map[int64]fantasy.Team
	leaguePoints    map[int64]map[int64]decimal.Decimal // team -> league -> points
	slots           map[slotKey]fantasy.RosterSlot
	records         []trade.Record
	events          map[settlement.EventKey]settlement.PointEvent
	teamPlayerDaily map[settlement.TeamPlayerKey]decimal.Decimal
	teamDaily       map[settlement.TeamDayKey]decimal.Decimal
	processed       map[int64]time.Time
	locks           []marketlock.Lock
	runs            []settlement.Run
}

func newState() *state {
	return &state{
		players:         make(map[int64]player.Player),
		teams:           make(map[int64]fantasy.Team),
		leaguePoints:    make(map[int64]map[int64]decimal.Decimal),
		slots:           make(map[slotKey]fantasy.RosterSlot),
		events:          make(map[settlement.EventKey]settlement.PointEvent),
		teamPlayerDaily: make(map[settlement.TeamPlayerKey]decimal.Decimal),
		teamDaily:       make(map[settlement.TeamDayKey]decimal.Decimal),
		processed:       make(map[int64]time.Time),
	}
}

// clone is the transaction snapshot. Values are immutable structs or decimals,
// so copying the maps is enough.
func (s *state) clone() *state {
	out := &state{
		players:         maps.Clone(s.players),
		teams:           maps.Clone(s.teams),
		leaguePoints:    make(map[int64]map[int64]decimal.Decimal, len(s.leaguePoints)),
		slots:           maps.Clone(s.slots),
		records:         slices.Clone(s.records),
		events:          maps.Clone(s.events),
		teamPlayerDaily: maps.Clone(s.teamPlayerDaily),
		teamDaily:       maps.Clone(s.teamDaily),
		processed:       maps.Clone(s.processed),
		locks:           slices.Clone(s.locks),
		runs:            slices.Clone(s.runs),
	}
	for teamID, leagues := range s.leaguePoints {
		out.leaguePoints[teamID] = maps.Clone(leagues)
	}
	return out
}

// DB is an in-process stand-in for Postgres. Transactions run one at a time
// against a snapshot that replaces the committed state only on success.
type DB struct {
	mu       sync.Mutex
	state    *state
	clock    clockwork.Clock
	failures map[string]error
	lockSeq  int64
}

func NewDB(clock clockwork.Clock) *DB {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &DB{
		state:    newState(),
		clock:    clock,
		failures: make(map[string]error),
	}
}

// FailOn makes the named transaction operation return err until cleared with a nil err.
func (db *DB) FailOn(op string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err == nil {
		delete(db.failures, op)
		return
	}
	db.failures[op] = err
}

func (db *DB) failure(op string) error {
	return db.failures[op]
}

// runInTx must be called without db.mu held.
func (db *DB) runInTx(fn func(st *state, now time.Time) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	work := db.state.clone()
	if err := fn(work, db.clock.Now()); err != nil {
		return err
	}
	db.state = work
	return nil
}

func (db *DB) with(fn func(st *state)) {
	db.mu.Lock()
	defer db.mu.Unlock()
	fn(db.state)
}

var errTeamExists = errors.New("team already exists")

func (db *DB) PutPlayer(p player.Player) {
	db.with(func(st *state) { st.players[p.ID] = p })
}

func (db *DB) PutTeam(t fantasy.Team) error {
	var err error
	db.with(func(st *state) {
		if _, ok := st.teams[t.ID]; ok {
			err = errTeamExists
			return
		}
		st.teams[t.ID] = t
	})
	return err
}

func (db *DB) JoinLeague(teamID, leagueID int64) {
	db.with(func(st *state) {
		if st.leaguePoints[teamID] == nil {
			st.leaguePoints[teamID] = make(map[int64]decimal.Decimal)
		}
		if _, ok := st.leaguePoints[teamID][leagueID]; !ok {
			st.leaguePoints[teamID][leagueID] = decimal.Zero
		}
	})
}

func (db *DB) PutRosterSlot(slot fantasy.RosterSlot) {
	db.with(func(st *state) { st.slots[slotKey{slot.TeamID, slot.PlayerID}] = slot })
}

func (db *DB) AppendTradeRecords(records ...trade.Record) {
	db.with(func(st *state) { st.records = append(st.records, records...) })
}

func (db *DB) Team(teamID int64) (fantasy.Team, bool) {
	var (
		t  fantasy.Team
		ok bool
	)
	db.with(func(st *state) { t, ok = st.teams[teamID] })
	return t, ok
}

func (db *DB) RosterSlot(teamID, playerID int64) (fantasy.RosterSlot, bool) {
	var (
		slot fantasy.RosterSlot
		ok   bool
	)
	db.with(func(st *state) { slot, ok = st.slots[slotKey{teamID, playerID}] })
	return slot, ok
}

func (db *DB) RosterPlayerIDs(teamID int64) []int64 {
	var out []int64
	db.with(func(st *state) {
		for k := range st.slots {
			if k.teamID == teamID {
				out = append(out, k.playerID)
			}
		}
	})
	slices.Sort(out)
	return out
}

func (db *DB) TradeRecords(teamID int64) []trade.Record {
	var out []trade.Record
	db.with(func(st *state) {
		for _, r := range st.records {
			if r.TeamID == teamID {
				out = append(out, r)
			}
		}
	})
	return out
}

func (db *DB) PointEvents() []settlement.PointEvent {
	var out []settlement.PointEvent
	db.with(func(st *state) {
		for _, e := range st.events {
			out = append(out, e)
		}
	})
	slices.SortFunc(out, func(a, b settlement.PointEvent) int {
		if c := cmp.Compare(a.GameID, b.GameID); c != 0 {
			return c
		}
		return cmp.Compare(a.PlayerID, b.PlayerID)
	})
	return out
}

func (db *DB) LeaguePoints(teamID, leagueID int64) decimal.Decimal {
	var out decimal.Decimal
	db.with(func(st *state) { out = st.leaguePoints[teamID][leagueID] })
	return out
}

func (db *DB) TeamDailyPoints(teamID int64, dateKey string) decimal.Decimal {
	var out decimal.Decimal
	db.with(func(st *state) { out = st.teamDaily[settlement.TeamDayKey{TeamID: teamID, DateKey: dateKey}] })
	return out
}

func (db *DB) TeamPlayerDailyPoints(teamID, playerID int64, dateKey string) decimal.Decimal {
	var out decimal.Decimal
	db.with(func(st *state) {
		out = st.teamPlayerDaily[settlement.TeamPlayerKey{TeamID: teamID, PlayerID: playerID, DateKey: dateKey}]
	})
	return out
}

func (db *DB) ProcessedGames() []int64 {
	var out []int64
	db.with(func(st *state) {
		for gameID := range st.processed {
			out = append(out, gameID)
		}
	})
	slices.Sort(out)
	return out
}

func (db *DB) Runs() []settlement.Run {
	var out []settlement.Run
	db.with(func(st *state) { out = slices.Clone(st.runs) })
	return out
}
