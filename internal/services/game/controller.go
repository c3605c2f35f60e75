package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mcoot/lightsduel/internal/dependencies/clock"
	"github.com/mcoot/lightsduel/internal/model"
	"github.com/mcoot/lightsduel/internal/protocol"
	"github.com/mcoot/lightsduel/internal/services/session"
	"github.com/mcoot/lightsduel/internal/storage"
)

// Outcome reports the result of one accepted turn
type Outcome struct {
	Game   model.Game
	Winner model.Slot
}

// Ended returns true if the turn finished the game
func (o Outcome) Ended() bool {
	return o.Winner != model.NoPlayer
}

// match is one active game and the two connections seated in it
type match struct {
	mu    sync.Mutex
	game  model.Game
	seats [2]*session.Session
	ended bool
}

func (m *match) slotOf(sess *session.Session) model.Slot {
	for i, seat := range m.seats {
		if seat == sess {
			return model.Slot(i + 1)
		}
	}
	return model.NoPlayer
}

// Controller runs the turn flow of every active game
type Controller struct {
	store  storage.CredentialStore
	clock  clock.Clock
	logger *slog.Logger

	mu    sync.Mutex
	games map[uuid.UUID]*match
}

// NewController creates a new GameController
func NewController(store storage.CredentialStore, clock clock.Clock, logger *slog.Logger) *Controller {
	return &Controller{
		store:  store,
		clock:  clock,
		logger: logger.With(slog.String("component", "game")),
		games:  make(map[uuid.UUID]*match),
	}
}

// Start creates a game with host as player one and sends the opening
// snapshot to both players. Both sessions must already be in game.
func (c *Controller) Start(host, guest *session.Session, board model.Board) model.Game {
	m := &match{
		game: model.Game{
			ID:        uuid.New(),
			Players:   [2]model.UserRecord{host.Record(), guest.Record()},
			Board:     board.Clone(),
			Turn:      model.PlayerOne,
			StartedAt: c.clock.Now(),
		},
		seats: [2]*session.Session{host, guest},
	}
	id := m.game.ID

	m.mu.Lock()
	c.mu.Lock()
	c.games[id] = m
	c.mu.Unlock()
	host.SetGameID(id)
	guest.SetGameID(id)
	snapshot := m.game.Clone()
	c.broadcast(m, protocol.ActionJoinSuccess, snapshot)
	m.mu.Unlock()

	c.logger.Info("game started",
		slog.String("game_id", id.String()),
		slog.String("player_one", snapshot.Players[0].Username),
		slog.String("player_two", snapshot.Players[1].Username),
		slog.Int("rows", board.Rows()),
		slog.Int("cols", board.Cols()),
	)

	// A player who dropped while the game was being set up never reaches
	// Abandon through its game id, so catch it here
	for _, seat := range m.seats {
		if seat.State() == model.StateClosed {
			c.Abandon(seat)
		}
	}
	return snapshot
}

// TakeTurn replaces the board of a game with the sender's board, hands the
// turn over and checks for a winner. Move legality is not checked; only the
// board dimensions must match.
func (c *Controller) TakeTurn(ctx context.Context, sender *session.Session, gameID uuid.UUID, board model.Board) (Outcome, error) {
	c.mu.Lock()
	m, ok := c.games[gameID]
	c.mu.Unlock()
	if !ok {
		c.releaseDangling(sender)
		return Outcome{}, model.ErrGameNotFound
	}

	m.mu.Lock()
	if m.ended {
		m.mu.Unlock()
		return Outcome{}, model.ErrGameNotFound
	}
	slot := m.slotOf(sender)
	if slot == model.NoPlayer {
		m.mu.Unlock()
		return Outcome{}, model.ErrNotInGame
	}
	if !board.IsRectangular() || !board.SameShape(m.game.Board) {
		m.mu.Unlock()
		return Outcome{}, model.ErrBoardShape
	}
	if slot != m.game.Turn {
		c.logger.Warn("turn taken out of order",
			slog.String("game_id", gameID.String()),
			slog.String("username", sender.Username()),
			slog.Int("slot", int(slot)),
			slog.Int("turn", int(m.game.Turn)),
		)
	}

	m.game.Board = board.Clone()
	m.game.AdvanceTurn()
	winner := m.game.Board.Winner()
	if winner == model.NoPlayer {
		snapshot := m.game.Clone()
		c.broadcast(m, protocol.ActionGameTurn, snapshot)
		m.mu.Unlock()
		return Outcome{Game: snapshot}, nil
	}

	m.ended = true
	final := m.game.Clone()
	m.mu.Unlock()

	c.remove(gameID, m)
	final = c.finish(ctx, m, final, winner)
	return Outcome{Game: final, Winner: winner}, nil
}

// Abandon ends the game of a player who disconnected. The opponent is
// returned to idle and told; no statistics change.
func (c *Controller) Abandon(leaver *session.Session) {
	id, ok := leaver.GameID()
	if !ok {
		return
	}
	c.mu.Lock()
	m, ok := c.games[id]
	c.mu.Unlock()
	if !ok {
		return
	}

	m.mu.Lock()
	if m.ended {
		m.mu.Unlock()
		return
	}
	m.ended = true
	m.mu.Unlock()
	c.remove(id, m)

	notice := protocol.Notice{Message: fmt.Sprintf("%s left the game", leaver.Username())}
	for _, seat := range m.seats {
		seat.SetGameID(uuid.Nil)
		if seat == leaver {
			continue
		}
		seat.Transition(model.StateInGame, model.StateIdle)
		if err := seat.Send(protocol.ActionGameAbandoned, notice); err != nil {
			c.logger.Debug("abandon notice not delivered",
				slog.String("conn_id", seat.ID()),
				slog.String("error", err.Error()),
			)
		}
	}

	c.logger.Info("game abandoned",
		slog.String("game_id", id.String()),
		slog.String("username", leaver.Username()),
	)
}

// Get returns a snapshot of an active game
func (c *Controller) Get(gameID uuid.UUID) (model.Game, bool) {
	c.mu.Lock()
	m, ok := c.games[gameID]
	c.mu.Unlock()
	if !ok {
		return model.Game{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.game.Clone(), true
}

// Len returns the number of active games
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.games)
}

// finish records the result, refreshes both players' cached stats, returns
// them to idle and sends the final snapshot
func (c *Controller) finish(ctx context.Context, m *match, final model.Game, winner model.Slot) model.Game {
	winnerName := final.Player(winner).Username
	loserName := final.Player(winner.Other()).Username

	if err := c.store.RecordWin(ctx, winnerName); err != nil {
		c.logger.Error("failed to record win",
			slog.String("game_id", final.ID.String()),
			slog.String("username", winnerName),
			slog.String("error", err.Error()),
		)
	}
	if err := c.store.RecordLoss(ctx, loserName); err != nil {
		c.logger.Error("failed to record loss",
			slog.String("game_id", final.ID.String()),
			slog.String("username", loserName),
			slog.String("error", err.Error()),
		)
	}

	for i, seat := range m.seats {
		final.Players[i] = c.refresh(ctx, seat)
		seat.SetGameID(uuid.Nil)
		seat.Transition(model.StateInGame, model.StateIdle)
	}

	c.broadcast(m, protocol.ActionGameEnd, protocol.GameResult{Game: final, Winner: winner})

	c.logger.Info("game ended",
		slog.String("game_id", final.ID.String()),
		slog.String("winner", winnerName),
		slog.String("loser", loserName),
	)
	return final
}

// refresh reloads a player's stats from the store. The cached record is kept if the store fails.
func (c *Controller) refresh(ctx context.Context, seat *session.Session) model.UserRecord {
	account, err := c.store.FindByUsername(ctx, seat.Username())
	if err != nil {
		c.logger.Error("failed to refresh stats",
			slog.String("username", seat.Username()),
			slog.String("error", err.Error()),
		)
		return seat.Record()
	}
	seat.SetRecord(account.UserRecord)
	return account.UserRecord
}

// releaseDangling returns a sender to idle if it is seated in a game that no longer exists
func (c *Controller) releaseDangling(sender *session.Session) {
	id, ok := sender.GameID()
	if !ok {
		return
	}
	c.mu.Lock()
	_, live := c.games[id]
	c.mu.Unlock()
	if live {
		return
	}
	sender.SetGameID(uuid.Nil)
	if sender.Transition(model.StateInGame, model.StateIdle) {
		c.logger.Warn("released player from missing game",
			slog.String("game_id", id.String()),
			slog.String("username", sender.Username()),
		)
	}
}

func (c *Controller) remove(id uuid.UUID, m *match) {
	c.mu.Lock()
	if c.games[id] == m {
		delete(c.games, id)
	}
	c.mu.Unlock()
}

func (c *Controller) broadcast(m *match, action protocol.Action, payload any) {
	for _, seat := range m.seats {
		if err := seat.Send(action, payload); err != nil {
			c.logger.Debug("message not delivered",
				slog.String("conn_id", seat.ID()),
				slog.String("action", string(action)),
				slog.String("error", err.Error()),
			)
		}
	}
}
