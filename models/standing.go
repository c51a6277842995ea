package models

// Standing is one row of a tournament ranking, derived from match history.
// There is no stored aggregate behind it.
type Standing struct {
	PlayerID    int     `json:"player_id"`
	Points      float64 `json:"points"`
	GamesPlayed int     `json:"games_played"`
	Wins        int     `json:"wins"`
	Draws       int     `json:"draws"`
	Losses      int     `json:"losses"`
}
