package bot

import (
	"github.com/mcoot/lightsduel/internal/dependencies/random"
	"github.com/mcoot/lightsduel/internal/model"
)

// RandomStrategy presses a uniformly random cell
type RandomStrategy struct {
	random random.Random
}

// NewRandomStrategy creates a new RandomStrategy
func NewRandomStrategy(rnd random.Random) *RandomStrategy {
	return &RandomStrategy{random: rnd}
}

// ChooseMove returns a random cell on the board
func (s *RandomStrategy) ChooseMove(game model.Game, _ model.Slot) Move {
	return pick(s.random, allMoves(game.Board))
}

// GreedyStrategy takes a winning press when one exists and otherwise presses a
// random cell that does not hand the win to the opponent
type GreedyStrategy struct {
	random random.Random
}

// NewGreedyStrategy creates a new GreedyStrategy
func NewGreedyStrategy(rnd random.Random) *GreedyStrategy {
	return &GreedyStrategy{random: rnd}
}

// ChooseMove returns a winning press, else a random safe press, else any random press
func (s *GreedyStrategy) ChooseMove(game model.Game, me model.Slot) Move {
	moves := allMoves(game.Board)
	safe := make([]Move, 0, len(moves))
	for _, m := range moves {
		switch outcome(game.Board, m) {
		case me:
			return m
		case me.Other():
		default:
			safe = append(safe, m)
		}
	}
	if len(safe) == 0 {
		return pick(s.random, moves)
	}
	return pick(s.random, safe)
}

// outcome returns the winner after pressing m, or NoPlayer if the game goes on
func outcome(b model.Board, m Move) model.Slot {
	next := b.Clone()
	if err := next.Toggle(m.Row, m.Col); err != nil {
		return model.NoPlayer
	}
	return next.Winner()
}

func allMoves(b model.Board) []Move {
	moves := make([]Move, 0, b.Cells())
	for r := range b.Rows() {
		for c := range b.Cols() {
			moves = append(moves, Move{Row: r, Col: c})
		}
	}
	return moves
}

func pick(rnd random.Random, moves []Move) Move {
	if len(moves) == 0 {
		return Move{}
	}
	return moves[rnd.Intn(len(moves))]
}
