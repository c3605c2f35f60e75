package response

import (
	"github.com/mcoot/lightsduel/internal/model"
	"github.com/mcoot/lightsduel/internal/services/board"
)

// Health is the liveness response
type Health struct {
	Status string `json:"status"`
}

// Player represents one account's statistics in API responses
type Player struct {
	Username    string `json:"username"`
	Wins        uint32 `json:"wins"`
	Losses      uint32 `json:"losses"`
	GamesPlayed uint32 `json:"games_played"`
	Standing    int64  `json:"standing"`
}

// PlayerFromModel converts a model.UserRecord to a response Player
func PlayerFromModel(u model.UserRecord) Player {
	return Player{
		Username:    u.Username,
		Wins:        u.Wins,
		Losses:      u.Losses,
		GamesPlayed: u.GamesPlayed,
		Standing:    u.Standing(),
	}
}

// Leaderboard lists players ordered by standing
type Leaderboard struct {
	Players []Player `json:"players"`
}

// LeaderboardFromModel converts sorted records to a Leaderboard
func LeaderboardFromModel(records []model.UserRecord) Leaderboard {
	players := make([]Player, 0, len(records))
	for _, r := range records {
		players = append(players, PlayerFromModel(r))
	}
	return Leaderboard{Players: players}
}

// Status reports live server counters
type Status struct {
	Connections int            `json:"connections"`
	Sessions    map[string]int `json:"sessions"`
	Queued      int            `json:"queued"`
	ActiveGames int            `json:"active_games"`
	Uptime      string         `json:"uptime"`
}

// Solve is the solver result for one target board
type Solve struct {
	Rows      int           `json:"rows"`
	Cols      int           `json:"cols"`
	Rank      int           `json:"rank"`
	Nullity   int           `json:"nullity"`
	Solvable  bool          `json:"solvable"`
	Solutions []model.Board `json:"solutions"`
}

// SolveFromAnalysis builds a Solve response
func SolveFromAnalysis(target model.Board, a *board.Analysis, solutions []model.Board) Solve {
	if solutions == nil {
		solutions = []model.Board{}
	}
	return Solve{
		Rows:      target.Rows(),
		Cols:      target.Cols(),
		Rank:      a.Rank(),
		Nullity:   a.Nullity(),
		Solvable:  a.Solvable(),
		Solutions: solutions,
	}
}
