package player

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Player is a real athlete that fantasy teams can roster.
type Player struct {
	ID        int64
	Name      string
	NBATeamID int64
	Price     decimal.Decimal
}

func (p Player) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("player id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("player price must not be negative")
	}

	return nil
}
