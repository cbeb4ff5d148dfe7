package fantasy

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeBudget     = errors.New("budget must not be negative")
	ErrInsufficientBudget = errors.New("insufficient budget")
	ErrQuotaExceeded      = errors.New("daily trade quota exceeded")
)

// DefaultDailyTradeQuota is the number of add/drop actions a team may make per local day.
const DefaultDailyTradeQuota = 2

// Rules stores trade validation parameters.
type Rules struct {
	DailyTradeQuota int
}

func DefaultRules() Rules {
	return Rules{DailyTradeQuota: DefaultDailyTradeQuota}
}

// CheckQuota reports whether used plus requested actions fit in the daily quota.
func (r Rules) CheckQuota(used, requested int) error {
	quota := r.DailyTradeQuota
	if quota <= 0 {
		quota = DefaultDailyTradeQuota
	}
	if used+requested > quota {
		return fmt.Errorf("%w: used=%d requested=%d quota=%d", ErrQuotaExceeded, used, requested, quota)
	}
	return nil
}

// Debit subtracts price from budget, refusing to go below zero.
func Debit(budget, price decimal.Decimal) (decimal.Decimal, error) {
	if budget.LessThan(price) {
		return budget, fmt.Errorf("%w: budget=%s price=%s", ErrInsufficientBudget, budget, price)
	}
	return budget.Sub(price), nil
}

// Refund credits the price paid for a dropped slot back to budget.
func Refund(budget, acquiredPrice decimal.Decimal) decimal.Decimal {
	return budget.Add(acquiredPrice)
}
