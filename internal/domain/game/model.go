package game

import (
	"strings"
	"time"
)

// StatusFinished is the terminal status reported by the stat source.
const StatusFinished = "Finished"

// Result is one real-world game as reported by the stat source.
type Result struct {
	GameID       int64
	HomeTeamID   int64
	AwayTeamID   int64
	Status       string
	StartTimeUTC time.Time
}

func (r Result) IsFinished() bool {
	return strings.EqualFold(strings.TrimSpace(r.Status), StatusFinished)
}

// TeamIDs returns the home and away team ids, skipping unknown (zero) ids.
func (r Result) TeamIDs() []int64 {
	out := make([]int64, 0, 2)
	if r.HomeTeamID > 0 {
		out = append(out, r.HomeTeamID)
	}
	if r.AwayTeamID > 0 && r.AwayTeamID != r.HomeTeamID {
		out = append(out, r.AwayTeamID)
	}
	return out
}

// LocalDate is the calendar date of the game start in loc, formatted YYYY-MM-DD.
func (r Result) LocalDate(loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return r.StartTimeUTC.In(loc).Format(time.DateOnly)
}

// PlayerStat is one player's raw box score line for one game.
type PlayerStat struct {
	PlayerID      int64
	GameID        int64
	TeamID        int64
	MinutesPlayed int
	Points        int
	Rebounds      int
	Assists       int
	Blocks        int
	Steals        int
	Turnovers     int
}

// FilterFinished keeps terminal games, dropping duplicates by game id.
func FilterFinished(items []Result) []Result {
	seen := make(map[int64]struct{}, len(items))
	out := make([]Result, 0, len(items))
	for _, item := range items {
		if !item.IsFinished() {
			continue
		}
		if _, ok := seen[item.GameID]; ok {
			continue
		}
		seen[item.GameID] = struct{}{}
		out = append(out, item)
	}
	return out
}
