package httpapi

import (
	"time"

	"github.com/riskibarqy/fantasy-settlement/internal/domain/marketlock"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/player"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/settlement"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/trade"
	"github.com/riskibarqy/fantasy-settlement/internal/usecase"
)

type marketLockStatusDTO struct {
	IsLocked     bool       `json:"isLocked"`
	LockStart    *time.Time `json:"lockStart"`
	LockEnd      *time.Time `json:"lockEnd"`
	NoGamesToday bool       `json:"noGamesToday"`
}

type marketLockRefreshDTO struct {
	Skipped      bool       `json:"skipped"`
	Games        int        `json:"games"`
	LockStart    *time.Time `json:"lockStart,omitempty"`
	LockEnd      *time.Time `json:"lockEnd,omitempty"`
	NoGamesToday bool       `json:"noGamesToday"`
}

type settlementRunDTO struct {
	RunID         string    `json:"runId"`
	Trigger       string    `json:"trigger"`
	Status        string    `json:"status"`
	GamesSettled  int       `json:"gamesSettled"`
	TeamsCredited int       `json:"teamsCredited"`
	PointsAwarded string    `json:"pointsAwarded"`
	SkippedLines  int       `json:"skippedLines"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
}

type playerDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	NBATeamID int64  `json:"nbaTeamId"`
	Price     string `json:"price"`
}

type tradeRecordDTO struct {
	ID         string    `json:"id"`
	MovementID string    `json:"movementId"`
	PlayerID   int64     `json:"playerId"`
	Action     string    `json:"action"`
	LeagueID   *int64    `json:"leagueId"`
	CreatedAt  time.Time `json:"createdAt"`
}

type tradeResultDTO struct {
	TeamID    int64            `json:"teamId"`
	Budget    string           `json:"budget"`
	Added     []int64          `json:"added"`
	Dropped   []int64          `json:"dropped"`
	SettledAt time.Time        `json:"settledAt"`
	Records   []tradeRecordDTO `json:"records"`
}

func marketLockStatusToDTO(status marketlock.Status) marketLockStatusDTO {
	return marketLockStatusDTO{
		IsLocked:     status.IsLocked,
		LockStart:    status.LockStart,
		LockEnd:      status.LockEnd,
		NoGamesToday: status.NoGamesToday,
	}
}

func marketLockRefreshToDTO(refreshed usecase.MarketLockRefresh) marketLockRefreshDTO {
	out := marketLockRefreshDTO{Skipped: refreshed.Skipped, Games: refreshed.Games}
	if refreshed.Skipped {
		return out
	}
	start, end := refreshed.Lock.LockStart, refreshed.Lock.LockEnd
	out.LockStart = &start
	out.LockEnd = &end
	out.NoGamesToday = refreshed.Lock.NoGamesToday
	return out
}

func settlementRunToDTO(run settlement.Run) settlementRunDTO {
	return settlementRunDTO{
		RunID:         run.ID,
		Trigger:       string(run.Trigger),
		Status:        string(run.Status),
		GamesSettled:  run.GamesSettled,
		TeamsCredited: run.TeamsCredited,
		PointsAwarded: run.PointsAwarded.StringFixed(1),
		SkippedLines:  run.SkippedLines,
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
	}
}

func playerToDTO(item player.Player) playerDTO {
	return playerDTO{
		ID:        item.ID,
		Name:      item.Name,
		NBATeamID: item.NBATeamID,
		Price:     item.Price.StringFixed(2),
	}
}

func tradeResultToDTO(result trade.Result) tradeResultDTO {
	records := make([]tradeRecordDTO, 0, len(result.Records))
	for _, record := range result.Records {
		records = append(records, tradeRecordDTO{
			ID:         record.ID,
			MovementID: record.MovementID,
			PlayerID:   record.PlayerID,
			Action:     string(record.Action),
			LeagueID:   record.LeagueID,
			CreatedAt:  record.CreatedAt,
		})
	}

	return tradeResultDTO{
		TeamID:    result.TeamID,
		Budget:    result.Budget.StringFixed(2),
		Added:     nonNilIDs(result.Added),
		Dropped:   nonNilIDs(result.Dropped),
		SettledAt: result.SettledAt,
		Records:   records,
	}
}

func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
