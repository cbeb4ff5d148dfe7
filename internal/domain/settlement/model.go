package settlement

import (
	"time"

	"github.com/shopspring/decimal"
)

// State is a settlement run phase.
type State string

const (
	StateFetching     State = "FETCHING"
	StateFiltering    State = "FILTERING"
	StateDeduping     State = "DEDUPING"
	StateAccumulating State = "ACCUMULATING"
	StateFinalizing   State = "FINALIZING"
	StateDone         State = "DONE"
	StateAborted      State = "ABORTED"
)

// Status is the persisted outcome of a run.
type Status string

const (
	StatusDone    Status = "done"
	StatusAborted Status = "aborted"
	StatusSkipped Status = "skipped"
)

type Trigger string

const (
	TriggerCron   Trigger = "cron"
	TriggerHTTP   Trigger = "http"
	TriggerManual Trigger = "manual"
)

// PointEvent is the scored value of one player in one game. (PlayerID, GameID)
// is unique and guards against scoring a game twice.
type PointEvent struct {
	PlayerID int64
	GameID   int64
	DateKey  string
	Points   decimal.Decimal
}

type EventKey struct {
	PlayerID int64
	GameID   int64
}

func (e PointEvent) Key() EventKey {
	return EventKey{PlayerID: e.PlayerID, GameID: e.GameID}
}

type TeamPlayerKey struct {
	TeamID   int64
	PlayerID int64
	DateKey  string
}

type TeamDayKey struct {
	TeamID  int64
	DateKey string
}

// NotificationIntent is emitted after commit, one per team credited in a run.
type NotificationIntent struct {
	ID          string
	TeamID      int64
	OwnerUserID string
	DateKey     string
	Points      decimal.Decimal
	CreatedAt   time.Time
}

// Run summarises one invocation of the settlement job.
type Run struct {
	ID            string
	Trigger       Trigger
	Status        Status
	FinalState    State
	GamesSettled  int
	TeamsCredited int
	PointsAwarded decimal.Decimal
	SkippedLines  int
	Error         string
	StartedAt     time.Time
	FinishedAt    time.Time
	Intents       []NotificationIntent
}
