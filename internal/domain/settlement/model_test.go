package settlement

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPointEvent_KeyIgnoresDateAndPoints(t *testing.T) {
	t.Parallel()

	a := PointEvent{PlayerID: 1, GameID: 2, DateKey: "2026-10-17"}
	b := PointEvent{PlayerID: 1, GameID: 2, DateKey: "2026-10-18"}
	require.Equal(t, a.Key(), b.Key())
	require.NotEqual(t, a.Key(), PointEvent{PlayerID: 2, GameID: 1}.Key())
}
