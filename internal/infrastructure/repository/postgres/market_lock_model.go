package postgres

import "time"

type marketLockTableModel struct {
	ID           int64     `db:"id"`
	LockStart    time.Time `db:"lock_start"`
	LockEnd      time.Time `db:"lock_end"`
	NoGamesToday bool      `db:"no_games_today"`
	CreatedAt    time.Time `db:"created_at"`
}

var marketLockColumns = []string{"id", "lock_start", "lock_end", "no_games_today", "created_at"}

type marketLockInsertModel struct {
	LockStart    time.Time `db:"lock_start"`
	LockEnd      time.Time `db:"lock_end"`
	NoGamesToday bool      `db:"no_games_today"`
}
