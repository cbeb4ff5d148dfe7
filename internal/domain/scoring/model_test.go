package scoring

import (
	"testing"

	"github.com/riskibarqy/fantasy-settlement/internal/domain/game"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stat   game.PlayerStat
		want   string
		reason SkipReason
	}{
		{
			name: "full line",
			stat: game.PlayerStat{MinutesPlayed: 34, Points: 25, Rebounds: 10, Assists: 5, Blocks: 1, Steals: 2, Turnovers: 3},
			// 25 + 12 + 7.5 + 3 + 6 - 6
			want: "47.5",
		},
		{
			name: "rebound weight rounds to one decimal",
			stat: game.PlayerStat{MinutesPlayed: 12, Rebounds: 3},
			want: "3.6",
		},
		{
			name:   "under two minutes is excluded even with points",
			stat:   game.PlayerStat{MinutesPlayed: 1, Points: 10},
			want:   "0",
			reason: SkipLowMinutes,
		},
		{
			name: "exactly two minutes counts",
			stat: game.PlayerStat{MinutesPlayed: 2, Points: 2},
			want: "2",
		},
		{
			name:   "zero score is excluded",
			stat:   game.PlayerStat{MinutesPlayed: 10, Points: 2, Turnovers: 1},
			want:   "0",
			reason: SkipNonPositive,
		},
		{
			name:   "negative score is excluded",
			stat:   game.PlayerStat{MinutesPlayed: 10, Turnovers: 3},
			want:   "-6",
			reason: SkipNonPositive,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, reason := Score(tc.stat)
			require.Equal(t, tc.reason, reason)
			require.Truef(t, decimal.RequireFromString(tc.want).Equal(got), "want %s, got %s", tc.want, got)
		})
	}
}

func TestAward_CaptainDoubles(t *testing.T) {
	t.Parallel()

	score := decimal.RequireFromString("12.3")
	require.True(t, Award(score, false).Equal(score))
	require.True(t, Award(score, true).Equal(decimal.RequireFromString("24.6")))
}

func TestScore_IsDeterministic(t *testing.T) {
	t.Parallel()

	stat := game.PlayerStat{MinutesPlayed: 30, Points: 17, Rebounds: 7, Assists: 3, Steals: 1}
	first, _ := Score(stat)
	for i := 0; i < 10; i++ {
		again, _ := Score(stat)
		require.True(t, first.Equal(again))
	}
}
