package fantasy

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Team is a user-owned fantasy roster with a spending budget.
type Team struct {
	ID          int64
	OwnerUserID string
	Name        string
	Budget      decimal.Decimal
	TotalPoints decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t Team) ValidateBasic() error {
	if t.ID <= 0 {
		return fmt.Errorf("team id is required")
	}
	if t.OwnerUserID == "" {
		return fmt.Errorf("owner user id is required")
	}
	if t.Budget.IsNegative() {
		return fmt.Errorf("%w: %s", ErrNegativeBudget, t.Budget)
	}

	return nil
}

// RosterSlot is one player held by one fantasy team.
type RosterSlot struct {
	TeamID             int64
	PlayerID           int64
	AcquiredPrice      decimal.Decimal
	IsCaptain          bool
	TotalPointsAccrued decimal.Decimal
	AcquiredAt         time.Time
}

// Holding joins a roster slot with its team's owner, which settlement needs
// to address per-team notifications.
type Holding struct {
	TeamID      int64
	OwnerUserID string
	PlayerID    int64
	IsCaptain   bool
}
