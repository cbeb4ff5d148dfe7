package fantasy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRules_CheckQuota(t *testing.T) {
	t.Parallel()

	rules := DefaultRules()

	require.NoError(t, rules.CheckQuota(1, 1))
	require.ErrorIs(t, rules.CheckQuota(1, 2), ErrQuotaExceeded)
	require.NoError(t, rules.CheckQuota(0, 2))
	require.ErrorIs(t, rules.CheckQuota(2, 1), ErrQuotaExceeded)

	// zero falls back to the default quota
	require.NoError(t, Rules{}.CheckQuota(0, 2))
}

func TestDebit_NeverGoesNegative(t *testing.T) {
	t.Parallel()

	budget := decimal.NewFromInt(1000)

	left, err := Debit(budget, decimal.NewFromInt(1000))
	require.NoError(t, err)
	require.True(t, left.IsZero())

	after, err := Debit(left, decimal.NewFromInt(1))
	require.ErrorIs(t, err, ErrInsufficientBudget)
	require.True(t, after.Equal(left), "budget must be returned unchanged")
}

func TestRefund(t *testing.T) {
	t.Parallel()

	got := Refund(decimal.RequireFromString("2.50"), decimal.RequireFromString("7.25"))
	require.True(t, got.Equal(decimal.RequireFromString("9.75")))
}

func TestTeam_ValidateBasic(t *testing.T) {
	t.Parallel()

	team := Team{ID: 1, OwnerUserID: "user-1", Budget: decimal.Zero}
	require.NoError(t, team.ValidateBasic())

	team.Budget = decimal.NewFromInt(-1)
	require.ErrorIs(t, team.ValidateBasic(), ErrNegativeBudget)
}
