package player

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestPlayer_Validate(t *testing.T) {
	t.Parallel()

	valid := Player{ID: 237, Name: "LeBron James", NBATeamID: 17, Price: decimal.NewFromInt(45)}
	require.NoError(t, valid.Validate())

	noID := valid
	noID.ID = 0
	require.Error(t, noID.Validate())

	negative := valid
	negative.Price = decimal.NewFromInt(-1)
	require.Error(t, negative.Validate())

	free := valid
	free.Price = decimal.Zero
	require.NoError(t, free.Validate())
}
