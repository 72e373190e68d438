package models

// Stats is the aggregate statistics payload. Averages are rounded to two
// decimal places and fall back to 0 when no session carries the metric.
type Stats struct {
	TotalPlayers    int64   `json:"total_players"`
	TotalGames      int64   `json:"total_games"`
	WinnersCount    int64   `json:"winners_count"`
	DropoutCount    int64   `json:"dropout_count"`
	AverageHope     float64 `json:"average_hope"`
	AveragePapers   float64 `json:"average_papers"`
	AverageDuration float64 `json:"average_duration"`
	SlackOffMasters int64   `json:"slack_off_masters"`
}

type HopeEntry struct {
	PlayerID         string  `json:"player_id"`
	FinalHope        int     `json:"final_hope"`
	GraduationStatus *string `json:"graduation_status"`
}

type PapersEntry struct {
	PlayerID         string  `json:"player_id"`
	FinalPapers      int     `json:"final_papers"`
	GraduationStatus *string `json:"graduation_status"`
}

type SlackOffEntry struct {
	PlayerID         string  `json:"player_id"`
	SlackOffCount    int     `json:"slack_off_count"`
	GraduationStatus *string `json:"graduation_status"`
}

// Leaderboard holds the three independent top-10 lists.
type Leaderboard struct {
	TopHope         []HopeEntry     `json:"top_hope"`
	TopPapers       []PapersEntry   `json:"top_papers"`
	SlackOffMasters []SlackOffEntry `json:"slack_off_masters"`
}
