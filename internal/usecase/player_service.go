package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/fantasy-settlement/internal/domain/player"
)

type PlayerService struct {
	playerRepo player.Repository
}

func NewPlayerService(playerRepo player.Repository) *PlayerService {
	return &PlayerService{playerRepo: playerRepo}
}

// GetPlayer returns the catalogue entry, including the current trade price.
func (s *PlayerService) GetPlayer(ctx context.Context, playerID int64) (player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.GetPlayer")
	defer span.End()

	if playerID <= 0 {
		return player.Player{}, fmt.Errorf("%w: player id must be positive", ErrInvalidInput)
	}

	item, exists, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return player.Player{}, fmt.Errorf("get player: %w", err)
	}
	if !exists {
		return player.Player{}, fmt.Errorf("%w: player=%d", ErrNotFound, playerID)
	}

	return item, nil
}
