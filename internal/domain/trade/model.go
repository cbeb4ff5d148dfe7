package trade

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Action string

const (
	ActionAdd  Action = "add"
	ActionDrop Action = "drop"
)

// Reason is the closed set of business-rule rejections for a trade.
type Reason string

const (
	ReasonMarketLocked         Reason = "market_locked"
	ReasonNoTeam               Reason = "no_team"
	ReasonQuotaExceeded        Reason = "quota_exceeded"
	ReasonInsufficientBudget   Reason = "insufficient_budget"
	ReasonDuplicateRosterEntry Reason = "duplicate_roster_entry"
	ReasonUnknownPlayer        Reason = "unknown_player"
	ReasonEmptyTrade           Reason = "empty_trade"
)

var AllReasons = []Reason{
	ReasonMarketLocked,
	ReasonNoTeam,
	ReasonQuotaExceeded,
	ReasonInsufficientBudget,
	ReasonDuplicateRosterEntry,
	ReasonUnknownPlayer,
	ReasonEmptyTrade,
}

func (r Reason) Message() string {
	switch r {
	case ReasonMarketLocked:
		return "market is locked"
	case ReasonNoTeam:
		return "fantasy team not found"
	case ReasonQuotaExceeded:
		return "daily trade quota exceeded"
	case ReasonInsufficientBudget:
		return "insufficient budget"
	case ReasonDuplicateRosterEntry:
		return "player is already on the roster"
	case ReasonUnknownPlayer:
		return "player not found"
	case ReasonEmptyTrade:
		return "trade must add or drop at least one player"
	default:
		return string(r)
	}
}

// ErrRejected matches every *RejectionError via errors.Is.
var ErrRejected = errors.New("trade rejected")

// RejectionError is a business-rule violation; nothing was persisted.
type RejectionError struct {
	Reason   Reason
	PlayerID int64
	Detail   string
}

func Reject(reason Reason, detail string) *RejectionError {
	return &RejectionError{Reason: reason, Detail: detail}
}

func RejectPlayer(reason Reason, playerID int64) *RejectionError {
	return &RejectionError{Reason: reason, PlayerID: playerID}
}

func (e *RejectionError) Error() string {
	msg := "trade rejected: " + e.Reason.Message()
	if e.PlayerID > 0 {
		msg += fmt.Sprintf(" (player %d)", e.PlayerID)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *RejectionError) Is(target error) bool {
	return target == ErrRejected
}

// ReasonOf extracts the rejection reason from err, if any.
func ReasonOf(err error) (Reason, bool) {
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return rejection.Reason, true
	}
	return "", false
}

// Record is one append-only audit row. Records written for the same movement
// across several leagues share a MovementID.
type Record struct {
	ID         string
	MovementID string
	TeamID     int64
	PlayerID   int64
	Action     Action
	LeagueID   *int64
	CreatedAt  time.Time
}

// Input is one batch of roster movements for a team.
type Input struct {
	OwnerUserID string
	TeamID      int64
	Add         []int64
	Drop        []int64
}

func (in Input) Size() int {
	return len(in.Add) + len(in.Drop)
}

// Validate checks shape only; business rules run inside the ledger.
func (in Input) Validate() error {
	if in.TeamID <= 0 {
		return fmt.Errorf("team id is required")
	}
	if in.OwnerUserID == "" {
		return fmt.Errorf("owner user id is required")
	}
	if err := uniquePositive("add", in.Add); err != nil {
		return err
	}
	return uniquePositive("drop", in.Drop)
}

func uniquePositive(field string, ids []int64) error {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return fmt.Errorf("%s contains invalid player id %d", field, id)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%s contains duplicate player id %d", field, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Result is returned after a committed trade.
type Result struct {
	TeamID    int64
	Budget    decimal.Decimal
	Added     []int64
	Dropped   []int64
	SettledAt time.Time
	Records   []Record
}
