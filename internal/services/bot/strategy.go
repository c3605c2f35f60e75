// Package bot plays games automatically over a client connection.
package bot

import "github.com/mcoot/lightsduel/internal/model"

// Move is one cell press
type Move struct {
	Row, Col int
}

// Strategy chooses the cell a bot presses on its turn
type Strategy interface {
	// ChooseMove selects a press for the player seated in me
	ChooseMove(game model.Game, me model.Slot) Move
}
