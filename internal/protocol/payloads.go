package protocol

import (
	"github.com/google/uuid"

	"github.com/mcoot/lightsduel/internal/model"
)

// Request payloads

// Credentials is the payload of [USER LOGIN] and [USER REGISTER]
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// JoinRequest is the payload of [JOIN GAME]
type JoinRequest struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// CancelRequest is the payload of [CANCEL GAME]
type CancelRequest struct{}

// TurnRequest is the payload of [TAKE TURN]. The board already has the
// sender's move applied.
type TurnRequest struct {
	GameID uuid.UUID   `json:"game_id"`
	Board  model.Board `json:"board"`
}

// StatsRequest is the payload of [GET ALL PLAYER STATS]
type StatsRequest struct{}

// Response payloads

// Notice carries a human-readable outcome for actions with nothing else to return
type Notice struct {
	Message string `json:"message"`
}

// LoginResult is the payload of [USER LOGIN - SUCCESS]
type LoginResult struct {
	Message string           `json:"message"`
	User    model.UserRecord `json:"user"`
}

// GameResult is the payload of [GAME - END]; Game.Players holds the refreshed stats
type GameResult struct {
	Game   model.Game `json:"game"`
	Winner model.Slot `json:"winner"`
}

// Leaderboard is the payload of [GET ALL PLAYER STATS - SUCCESS]
type Leaderboard struct {
	Players []model.UserRecord `json:"players"`
}
