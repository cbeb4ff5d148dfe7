package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/riskibarqy/fantasy-settlement/internal/domain/player"
	basecache "github.com/riskibarqy/fantasy-settlement/internal/platform/cache"
)

const playerKeyPrefix = "player:id:"

type cachedPlayer struct {
	value  player.Player
	exists bool
}

// PlayerRepository is a read-through cache over the player catalogue.
// Prices change only through migrations or seeds, so entries simply expire.
type PlayerRepository struct {
	next  player.Repository
	cache *basecache.Store[cachedPlayer]
}

func NewPlayerRepository(next player.Repository, ttl time.Duration) *PlayerRepository {
	return &PlayerRepository{next: next, cache: basecache.NewStore[cachedPlayer](ttl)}
}

func (r *PlayerRepository) GetByID(ctx context.Context, playerID int64) (player.Player, bool, error) {
	key := playerKeyPrefix + strconv.FormatInt(playerID, 10)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (cachedPlayer, error) {
		item, exists, err := r.next.GetByID(ctx, playerID)
		if err != nil {
			return cachedPlayer{}, err
		}
		return cachedPlayer{value: item, exists: exists}, nil
	})
	if err != nil {
		return player.Player{}, false, err
	}

	return v.value, v.exists, nil
}

// Invalidate drops every cached player.
func (r *PlayerRepository) Invalidate(ctx context.Context) {
	r.cache.DeletePrefix(ctx, playerKeyPrefix)
}
