package bot

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/lightsduel/internal/client"
	"github.com/mcoot/lightsduel/internal/model"
	"github.com/mcoot/lightsduel/internal/protocol"
)

// MaxTurns bounds a single game so two bots cannot loop forever
const MaxTurns = 10000

// ErrTooManyTurns is returned when a game runs past MaxTurns
var ErrTooManyTurns = errors.New("game exceeded turn limit")

// Result is the outcome of one game from the bot's seat
type Result struct {
	Game  model.Game
	Seat  model.Slot
	Won   bool
	Turns int
}

// Player drives one logged-in client connection through games
type Player struct {
	client   *client.Client
	username string
	strategy Strategy
	logger   *slog.Logger
}

// NewPlayer creates a bot for a connection already logged in as username
func NewPlayer(c *client.Client, username string, strategy Strategy, logger *slog.Logger) *Player {
	return &Player{
		client:   c,
		username: username,
		strategy: strategy,
		logger:   logger.With(slog.String("component", "bot"), slog.String("username", username)),
	}
}

// Play queues for a rows x cols game and plays it to the end.
// An abandoned game is returned as a *client.FailureError.
func (p *Player) Play(rows, cols int) (Result, error) {
	if err := p.client.Join(rows, cols); err != nil {
		return Result{}, fmt.Errorf("join: %w", err)
	}
	game, err := p.client.AwaitGame()
	if err != nil {
		return Result{}, fmt.Errorf("await game: %w", err)
	}
	me := game.SlotOf(p.username)
	if me == model.NoPlayer {
		return Result{}, fmt.Errorf("%w: %s not seated in game %s", client.ErrUnexpectedAction, p.username, game.ID)
	}
	p.logger.Info("game started",
		slog.String("game_id", game.ID.String()),
		slog.Int("seat", int(me)),
		slog.Int("rows", game.Board.Rows()),
		slog.Int("cols", game.Board.Cols()),
	)

	for turns := 0; turns < MaxTurns; turns++ {
		if game.Turn == me {
			if err := p.move(game, me); err != nil {
				return Result{}, err
			}
		}

		update, result, err := p.client.AwaitTurn()
		if err != nil {
			var failure *client.FailureError
			if errors.As(err, &failure) && failure.Action == protocol.ActionTakeTurnFail {
				return Result{}, fmt.Errorf("turn rejected: %w", err)
			}
			return Result{}, err
		}
		if result != nil {
			p.logger.Info("game finished",
				slog.String("game_id", result.Game.ID.String()),
				slog.Bool("won", result.Winner == me),
				slog.Int("turns", turns+1),
			)
			return Result{Game: result.Game, Seat: me, Won: result.Winner == me, Turns: turns + 1}, nil
		}
		game = update
	}
	return Result{}, ErrTooManyTurns
}

func (p *Player) move(game model.Game, me model.Slot) error {
	m := p.strategy.ChooseMove(game, me)
	next := game.Board.Clone()
	if err := next.Toggle(m.Row, m.Col); err != nil {
		return fmt.Errorf("press (%d, %d): %w", m.Row, m.Col, err)
	}
	p.logger.Debug("pressing cell", slog.Int("row", m.Row), slog.Int("col", m.Col))
	return p.client.TakeTurn(game.ID, next)
}
