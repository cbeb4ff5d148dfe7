package usecase

import (
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/player"
	"github.com/riskibarqy/fantasy-settlement/internal/infrastructure/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerService_GetPlayer(t *testing.T) {
	t.Parallel()

	db := memory.NewDB(clockwork.NewFakeClock())
	db.PutPlayer(player.Player{ID: 77, Name: "Role Player", NBATeamID: 4, Price: decimal.NewFromInt(8)})
	svc := NewPlayerService(memory.NewPlayerRepository(db))

	got, err := svc.GetPlayer(t.Context(), 77)
	require.NoError(t, err)
	assert.Equal(t, "Role Player", got.Name)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(8)))

	_, err = svc.GetPlayer(t.Context(), 78)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetPlayer(t.Context(), 0)
	require.ErrorIs(t, err, ErrInvalidInput)
}
