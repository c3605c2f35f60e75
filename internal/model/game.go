package model

import (
	"time"

	"github.com/google/uuid"
)

// Slot identifies a seat in a two-player game
type Slot int

const (
	NoPlayer  Slot = 0
	PlayerOne Slot = 1 // Host, wins on an all-even board
	PlayerTwo Slot = 2 // Wins on an all-odd board
)

// Other returns the opposing slot
func (s Slot) Other() Slot {
	switch s {
	case PlayerOne:
		return PlayerTwo
	case PlayerTwo:
		return PlayerOne
	default:
		return NoPlayer
	}
}

// Game is the snapshot of a single match that is sent to both players
type Game struct {
	ID        uuid.UUID     `json:"id"`
	Players   [2]UserRecord `json:"players"` // Index 0 is PlayerOne
	Board     Board         `json:"board"`
	Turn      Slot          `json:"turn"`
	StartedAt time.Time     `json:"started_at"`
}

// Player returns the record seated in the given slot
func (g *Game) Player(slot Slot) UserRecord {
	if slot != PlayerOne && slot != PlayerTwo {
		return UserRecord{}
	}
	return g.Players[slot-1]
}

// SlotOf returns the slot held by username, or NoPlayer
func (g *Game) SlotOf(username string) Slot {
	for i, p := range g.Players {
		if p.Username == username {
			return Slot(i + 1)
		}
	}
	return NoPlayer
}

// AdvanceTurn hands the turn to the other player
func (g *Game) AdvanceTurn() {
	g.Turn = g.Turn%2 + 1
}

// Clone returns a copy whose board can be mutated independently
func (g *Game) Clone() Game {
	c := *g
	c.Board = g.Board.Clone()
	return c
}
