package statsource

type envelope[T any] struct {
	Response []T `json:"response"`
}

type idRef struct {
	ID int64 `json:"id"`
}

type gameItem struct {
	ID     int64 `json:"id"`
	Status struct {
		Long string `json:"long"`
	} `json:"status"`
	Date struct {
		Start string `json:"start"`
	} `json:"date"`
	Teams struct {
		Home     idRef `json:"home"`
		Visitors idRef `json:"visitors"`
	} `json:"teams"`
}

type statLineItem struct {
	Player    idRef  `json:"player"`
	Team      idRef  `json:"team"`
	Game      idRef  `json:"game"`
	Min       string `json:"min"`
	Points    int    `json:"points"`
	TotReb    int    `json:"totReb"`
	Assists   int    `json:"assists"`
	Blocks    int    `json:"blocks"`
	Steals    int    `json:"steals"`
	Turnovers int    `json:"turnovers"`
}
