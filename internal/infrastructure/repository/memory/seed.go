package memory

import (
	"github.com/riskibarqy/fantasy-settlement/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/player"
	"github.com/shopspring/decimal"
)

const (
	DemoLeagueID    int64 = 1
	DemoTeamID      int64 = 1
	DemoOwnerUserID       = "demo-user"
)

func SeedPlayers() []player.Player {
	return []player.Player{
		{ID: 265, Name: "LeBron James", NBATeamID: 17, Price: decimal.NewFromInt(48)},
		{ID: 124, Name: "Stephen Curry", NBATeamID: 11, Price: decimal.NewFromInt(47)},
		{ID: 963, Name: "Nikola Jokic", NBATeamID: 9, Price: decimal.NewFromInt(52)},
		{ID: 159, Name: "Giannis Antetokounmpo", NBATeamID: 21, Price: decimal.NewFromInt(50)},
		{ID: 153, Name: "Jayson Tatum", NBATeamID: 2, Price: decimal.NewFromInt(44)},
		{ID: 434, Name: "Luka Doncic", NBATeamID: 8, Price: decimal.NewFromInt(51)},
		{ID: 382, Name: "Anthony Edwards", NBATeamID: 22, Price: decimal.NewFromInt(42)},
		{ID: 1046, Name: "Victor Wembanyama", NBATeamID: 38, Price: decimal.NewFromInt(46)},
	}
}

// Seed loads demo players and one demo team for local runs without a database.
func Seed(db *DB) error {
	for _, p := range SeedPlayers() {
		db.PutPlayer(p)
	}
	err := db.PutTeam(fantasy.Team{
		ID:          DemoTeamID,
		OwnerUserID: DemoOwnerUserID,
		Name:        "Demo Ballers",
		Budget:      decimal.NewFromInt(100),
		TotalPoints: decimal.Zero,
	})
	if err != nil {
		return err
	}
	db.JoinLeague(DemoTeamID, DemoLeagueID)
	return nil
}
