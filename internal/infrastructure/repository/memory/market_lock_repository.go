package memory

import (
	"context"

	"github.com/riskibarqy/fantasy-settlement/internal/domain/marketlock"
)

type MarketLockRepository struct {
	db *DB
}

func NewMarketLockRepository(db *DB) *MarketLockRepository {
	return &MarketLockRepository{db: db}
}

func (r *MarketLockRepository) Append(_ context.Context, lock marketlock.Lock) (marketlock.Lock, error) {
	r.db.with(func(st *state) {
		r.db.lockSeq++
		lock.ID = r.db.lockSeq
		lock.CreatedAt = r.db.clock.Now()
		st.locks = append(st.locks, lock)
	})
	return lock, nil
}

func (r *MarketLockRepository) Latest(_ context.Context) (marketlock.Lock, bool, error) {
	var (
		lock  marketlock.Lock
		found bool
	)
	r.db.with(func(st *state) {
		if len(st.locks) == 0 {
			return
		}
		lock, found = st.locks[len(st.locks)-1], true
	})
	return lock, found, nil
}
