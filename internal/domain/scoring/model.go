package scoring

import (
	"github.com/riskibarqy/fantasy-settlement/internal/domain/game"
	"github.com/shopspring/decimal"
)

// MinMinutesPlayed is the playing time below which a line earns nothing.
const MinMinutesPlayed = 2

var (
	weightPoints    = decimal.NewFromInt(1)
	weightRebounds  = decimal.RequireFromString("1.2")
	weightAssists   = decimal.RequireFromString("1.5")
	weightBlocks    = decimal.NewFromInt(3)
	weightSteals    = decimal.NewFromInt(3)
	weightTurnovers = decimal.NewFromInt(-2)

	captainMultiplier = decimal.NewFromInt(2)
)

// SkipReason explains why a stat line produced no points.
type SkipReason string

const (
	SkipNone        SkipReason = ""
	SkipLowMinutes  SkipReason = "low_minutes"
	SkipNonPositive SkipReason = "non_positive_score"
)

// Raw applies the weighted formula and rounds to one decimal place.
// It does not apply the eligibility filter.
func Raw(stat game.PlayerStat) decimal.Decimal {
	total := weightPoints.Mul(decimal.NewFromInt(int64(stat.Points))).
		Add(weightRebounds.Mul(decimal.NewFromInt(int64(stat.Rebounds)))).
		Add(weightAssists.Mul(decimal.NewFromInt(int64(stat.Assists)))).
		Add(weightBlocks.Mul(decimal.NewFromInt(int64(stat.Blocks)))).
		Add(weightSteals.Mul(decimal.NewFromInt(int64(stat.Steals)))).
		Add(weightTurnovers.Mul(decimal.NewFromInt(int64(stat.Turnovers))))
	return total.Round(1)
}

// Score returns the fantasy value of a stat line and whether it counts.
// Lines under MinMinutesPlayed, or scoring <= 0 after rounding, do not count.
func Score(stat game.PlayerStat) (decimal.Decimal, SkipReason) {
	if stat.MinutesPlayed < MinMinutesPlayed {
		return decimal.Zero, SkipLowMinutes
	}
	value := Raw(stat)
	if !value.IsPositive() {
		return value, SkipNonPositive
	}
	return value, SkipNone
}

// Award is the amount credited to a roster slot; captains earn double.
func Award(score decimal.Decimal, isCaptain bool) decimal.Decimal {
	if isCaptain {
		return score.Mul(captainMultiplier)
	}
	return score
}
