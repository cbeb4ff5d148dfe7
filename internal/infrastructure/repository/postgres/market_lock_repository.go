package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/marketlock"
	qb "github.com/riskibarqy/fantasy-settlement/internal/platform/querybuilder"
)

type MarketLockRepository struct {
	db *sqlx.DB
}

func NewMarketLockRepository(db *sqlx.DB) *MarketLockRepository {
	return &MarketLockRepository{db: db}
}

func (r *MarketLockRepository) Append(ctx context.Context, lock marketlock.Lock) (marketlock.Lock, error) {
	query, args, err := qb.InsertModel("market_locks", marketLockInsertModel{
		LockStart:    lock.LockStart,
		LockEnd:      lock.LockEnd,
		NoGamesToday: lock.NoGamesToday,
	}, "RETURNING id, created_at")
	if err != nil {
		return marketlock.Lock{}, fmt.Errorf("build insert market lock query: %w", err)
	}

	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&lock.ID, &lock.CreatedAt); err != nil {
		return marketlock.Lock{}, fmt.Errorf("insert market lock: %w", err)
	}
	return lock, nil
}

func (r *MarketLockRepository) Latest(ctx context.Context) (marketlock.Lock, bool, error) {
	query, args, err := qb.Select(marketLockColumns...).
		From("market_locks").
		OrderBy("created_at DESC", "id DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return marketlock.Lock{}, false, fmt.Errorf("build latest market lock query: %w", err)
	}

	var row marketLockTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return marketlock.Lock{}, false, nil
		}
		return marketlock.Lock{}, false, fmt.Errorf("get latest market lock: %w", err)
	}

	return marketlock.Lock{
		ID:           row.ID,
		LockStart:    row.LockStart,
		LockEnd:      row.LockEnd,
		NoGamesToday: row.NoGamesToday,
		CreatedAt:    row.CreatedAt,
	}, true, nil
}
