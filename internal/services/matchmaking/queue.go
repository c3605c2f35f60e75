// Package matchmaking pairs waiting players into games.
package matchmaking

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/mcoot/lightsduel/internal/model"
	"github.com/mcoot/lightsduel/internal/protocol"
	"github.com/mcoot/lightsduel/internal/services/board"
	"github.com/mcoot/lightsduel/internal/services/game"
	"github.com/mcoot/lightsduel/internal/services/session"
)

// Messages sent for queue outcomes
const (
	MessageWaiting    = "Waiting for an opponent"
	MessageCancelled  = "Cancelled"
	MessageNotWaiting = "Not waiting for a game"
	MessageJoinFailed = "Could not create a board for this game"
)

// Config holds matchmaking configuration
type Config struct {
	DefaultRows int `mapstructure:"default_rows"`
	DefaultCols int `mapstructure:"default_cols"`
}

// DefaultConfig returns default matchmaking configuration
func DefaultConfig() Config {
	return Config{
		DefaultRows: 5,
		DefaultCols: 3,
	}
}

type entry struct {
	sess       *session.Session
	rows, cols int
}

// Queue holds idle players who asked for a game, in arrival order
type Queue struct {
	boards *board.Service
	games  *game.Controller
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	waiting []entry
}

// New creates an empty queue
func New(boards *board.Service, games *game.Controller, cfg Config, logger *slog.Logger) *Queue {
	defaults := DefaultConfig()
	if cfg.DefaultRows == 0 {
		cfg.DefaultRows = defaults.DefaultRows
	}
	if cfg.DefaultCols == 0 {
		cfg.DefaultCols = defaults.DefaultCols
	}
	return &Queue{
		boards: boards,
		games:  games,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "matchmaking")),
	}
}

// Join queues an idle session and replies with WAITING. If another player is
// already waiting the two are paired; the earlier one hosts and its requested
// dimensions are used for the board. A request of 0x0 asks for the default size.
func (q *Queue) Join(sess *session.Session, rows, cols int) error {
	if rows == 0 && cols == 0 {
		rows, cols = q.cfg.DefaultRows, q.cfg.DefaultCols
	}
	if err := q.boards.ValidateSize(rows, cols); err != nil {
		return err
	}

	q.mu.Lock()
	// A disconnect that closes sess from here on blocks in Remove until the entry exists
	if !sess.Transition(model.StateIdle, model.StateQueued) {
		q.mu.Unlock()
		return model.ErrNotIdle
	}
	q.waiting = append(q.waiting, entry{sess: sess, rows: rows, cols: cols})
	// Sent under the lock so WAITING always precedes SUCCESS for this player
	if err := sess.Send(protocol.ActionJoinWaiting, protocol.Notice{Message: MessageWaiting}); err != nil {
		q.logger.Debug("waiting notice not delivered",
			slog.String("conn_id", sess.ID()),
			slog.String("error", err.Error()),
		)
	}
	host, guest, paired := q.pairLocked()
	q.mu.Unlock()

	q.logger.Debug("player queued",
		slog.String("username", sess.Username()),
		slog.Int("rows", rows),
		slog.Int("cols", cols),
	)
	if paired {
		q.startGame(host, guest)
	}
	return nil
}

// Cancel takes a session out of the queue and returns it to idle.
// It returns model.ErrNotWaiting if the session was not queued.
func (q *Queue) Cancel(sess *session.Session) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexLocked(sess)
	if i < 0 || !sess.Transition(model.StateQueued, model.StateIdle) {
		return model.ErrNotWaiting
	}
	q.waiting = slices.Delete(q.waiting, i, i+1)

	q.logger.Debug("player left queue", slog.String("username", sess.Username()))
	return nil
}

// Remove drops a disconnected session from the queue, if present
func (q *Queue) Remove(sess *session.Session) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i := q.indexLocked(sess); i >= 0 {
		q.waiting = slices.Delete(q.waiting, i, i+1)
	}
}

// Len returns the number of waiting players
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting)
}

// Contains reports whether sess is waiting
func (q *Queue) Contains(sess *session.Session) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.indexLocked(sess) >= 0
}

func (q *Queue) indexLocked(sess *session.Session) int {
	return slices.IndexFunc(q.waiting, func(e entry) bool { return e.sess == sess })
}

// pairLocked pops the two earliest waiting players and moves both into the
// game state. Entries whose session has been closed are discarded.
func (q *Queue) pairLocked() (entry, entry, bool) {
	for len(q.waiting) >= 2 {
		host, guest := q.waiting[0], q.waiting[1]
		if !host.sess.Transition(model.StateQueued, model.StateInGame) {
			q.waiting = slices.Delete(q.waiting, 0, 1)
			continue
		}
		if !guest.sess.Transition(model.StateQueued, model.StateInGame) {
			host.sess.Transition(model.StateInGame, model.StateQueued)
			q.waiting = slices.Delete(q.waiting, 1, 2)
			continue
		}
		q.waiting = slices.Delete(q.waiting, 0, 2)
		return host, guest, true
	}
	return entry{}, entry{}, false
}

// startGame generates the board outside the queue lock and hands the pair to
// the game controller. If no board can be generated both players go back to idle.
func (q *Queue) startGame(host, guest entry) {
	b, err := q.boards.Generate(host.rows, host.cols)
	if err != nil {
		q.logger.Error("failed to generate board",
			slog.String("player_one", host.sess.Username()),
			slog.String("player_two", guest.sess.Username()),
			slog.Int("rows", host.rows),
			slog.Int("cols", host.cols),
			slog.String("error", err.Error()),
		)
		for _, e := range []entry{host, guest} {
			e.sess.Transition(model.StateInGame, model.StateIdle)
			_ = e.sess.Send(protocol.ActionJoinFail, protocol.Notice{Message: MessageJoinFailed})
		}
		return
	}
	q.games.Start(host.sess, guest.sess, b)
}
