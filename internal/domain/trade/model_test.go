package trade

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRejectionError_MatchesSentinelThroughWrapping(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("apply trades: %w", RejectPlayer(ReasonInsufficientBudget, 99))

	require.ErrorIs(t, err, ErrRejected)
	reason, ok := ReasonOf(err)
	require.True(t, ok)
	require.Equal(t, ReasonInsufficientBudget, reason)
	require.Contains(t, err.Error(), "player 99")

	_, ok = ReasonOf(errors.New("boom"))
	require.False(t, ok)
}

func TestReason_MessagesAreDistinct(t *testing.T) {
	t.Parallel()

	seen := map[string]Reason{}
	for _, r := range AllReasons {
		msg := r.Message()
		require.NotEqual(t, string(r), msg)
		prev, dup := seen[msg]
		require.Falsef(t, dup, "%s and %s share a message", prev, r)
		seen[msg] = r
	}
}

func TestInput_Validate(t *testing.T) {
	t.Parallel()

	base := Input{OwnerUserID: "u1", TeamID: 1, Add: []int64{1, 2}, Drop: []int64{3}}
	require.NoError(t, base.Validate())
	require.Equal(t, 3, base.Size())

	dup := base
	dup.Add = []int64{5, 5}
	require.ErrorContains(t, dup.Validate(), "duplicate")

	bad := base
	bad.Drop = []int64{0}
	require.ErrorContains(t, bad.Validate(), "invalid player id")

	noOwner := base
	noOwner.OwnerUserID = ""
	require.Error(t, noOwner.Validate())

	// an empty batch is shape-valid; the ledger rejects it with a tagged reason
	require.NoError(t, Input{OwnerUserID: "u1", TeamID: 1}.Validate())
}
