package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/lightsduel/internal/model"
	"github.com/mcoot/lightsduel/internal/protocol"
	"github.com/mcoot/lightsduel/internal/services/auth"
	"github.com/mcoot/lightsduel/internal/services/game"
	"github.com/mcoot/lightsduel/internal/services/matchmaking"
	"github.com/mcoot/lightsduel/internal/services/session"
)

// Reason strings sent in failure and success notices
const (
	MessageRegistered       = "Account was created successfully."
	MessageUsernameTaken    = "Username already exists."
	MessageInvalidUsername  = "Username must be 1 to 32 characters without surrounding spaces."
	MessageInvalidPassword  = "Password must not be empty."
	MessageRegisterError    = "Error when creating client's account."
	MessageLoggedIn         = "Login successful."
	MessageNoSuchUser       = "No user found with the username: %s"
	MessageAlreadyLoggedIn  = "User is already logged in."
	MessageWrongPassword    = "Incorrect password"
	MessageLoginError       = "Error when authenticating client's account."
	MessageAlreadyPlaying   = "Already waiting for or playing a game"
	MessageInvalidBoardSize = "Invalid board size"
	MessageGameNotFound     = "Game not found"
	MessageNotInGame        = "You are not a player in this game"
	MessageBoardShape       = "Board dimensions do not match the game"
	MessageStatsError       = "Error whilst getting all player statistics"
	MessageUnknownAction    = "Unknown action: %s"
)

// handlerFunc serves one post-login action. A returned error closes the connection.
type handlerFunc func(ctx context.Context, sess *session.Session, env protocol.Envelope) error

// Dispatcher routes decoded frames to the services
type Dispatcher struct {
	sessions *session.Registry
	auth     *auth.Service
	queue    *matchmaking.Queue
	games    *game.Controller
	logger   *slog.Logger

	actions map[protocol.Action]handlerFunc
}

// NewDispatcher creates a dispatcher with the post-login action table
func NewDispatcher(
	sessions *session.Registry,
	authService *auth.Service,
	queue *matchmaking.Queue,
	games *game.Controller,
	logger *slog.Logger,
) *Dispatcher {
	d := &Dispatcher{
		sessions: sessions,
		auth:     authService,
		queue:    queue,
		games:    games,
		logger:   logger.With(slog.String("component", "dispatch")),
	}
	d.actions = map[protocol.Action]handlerFunc{
		protocol.ActionJoinGame:    d.handleJoin,
		protocol.ActionCancelGame:  d.handleCancel,
		protocol.ActionTakeTurn:    d.handleTakeTurn,
		protocol.ActionGetAllStats: d.handleStats,
	}
	return d
}

// Connected registers a new connection as unauthenticated
func (d *Dispatcher) Connected(peer session.Peer) {
	d.sessions.Add(peer)
}

// Disconnected forgets a connection and releases whatever it held
func (d *Dispatcher) Disconnected(peer session.Peer) {
	sess, prev, ok := d.sessions.Remove(peer.ID())
	if !ok {
		return
	}
	switch prev {
	case model.StateQueued:
		d.queue.Remove(sess)
	case model.StateInGame:
		d.games.Abandon(sess)
	}
}

// Handle serves one frame. A non-nil error means the connection must be closed.
func (d *Dispatcher) Handle(ctx context.Context, peer session.Peer, env protocol.Envelope) error {
	sess, ok := d.sessions.Get(peer.ID())
	if !ok {
		return model.ErrSessionNotFound
	}

	if sess.State() == model.StateUnauthenticated {
		switch env.Action {
		case protocol.ActionLogin:
			return d.handleLogin(ctx, sess, env)
		case protocol.ActionRegister:
			return d.handleRegister(ctx, sess, env)
		default:
			d.logger.Warn("action before login",
				slog.String("conn_id", sess.ID()),
				slog.String("action", string(env.Action)),
			)
			return model.ErrNotAuthenticated
		}
	}

	handler, ok := d.actions[env.Action]
	if !ok {
		d.reply(sess, protocol.ActionError, fmt.Sprintf(MessageUnknownAction, env.Action))
		return nil
	}
	return handler(ctx, sess, env)
}

func (d *Dispatcher) handleRegister(ctx context.Context, sess *session.Session, env protocol.Envelope) error {
	var creds protocol.Credentials
	if err := env.Decode(&creds); err != nil {
		return err
	}

	err := d.auth.Register(ctx, creds.Username, creds.Password)
	switch {
	case err == nil:
		d.reply(sess, protocol.ActionRegisterSuccess, MessageRegistered)
	case errors.Is(err, model.ErrUsernameTaken):
		d.reply(sess, protocol.ActionRegisterFail, MessageUsernameTaken)
	case errors.Is(err, model.ErrInvalidUsername):
		d.reply(sess, protocol.ActionRegisterFail, MessageInvalidUsername)
	case errors.Is(err, model.ErrInvalidPassword):
		d.reply(sess, protocol.ActionRegisterFail, MessageInvalidPassword)
	default:
		d.logger.Error("register failed",
			slog.String("username", creds.Username),
			slog.String("error", err.Error()),
		)
		d.reply(sess, protocol.ActionRegisterFail, MessageRegisterError)
	}
	return nil
}

func (d *Dispatcher) handleLogin(ctx context.Context, sess *session.Session, env protocol.Envelope) error {
	var creds protocol.Credentials
	if err := env.Decode(&creds); err != nil {
		return err
	}

	record, err := d.auth.Login(ctx, sess.ID(), creds.Username, creds.Password)
	switch {
	case err == nil:
		d.send(sess, protocol.ActionLoginSuccess, protocol.LoginResult{Message: MessageLoggedIn, User: record})
	case errors.Is(err, model.ErrUserNotFound):
		d.reply(sess, protocol.ActionLoginFail, fmt.Sprintf(MessageNoSuchUser, creds.Username))
	case errors.Is(err, model.ErrAlreadyLoggedIn):
		d.reply(sess, protocol.ActionLoginFail, MessageAlreadyLoggedIn)
	case errors.Is(err, model.ErrWrongPassword):
		d.reply(sess, protocol.ActionLoginFail, MessageWrongPassword)
	default:
		d.logger.Error("login failed",
			slog.String("username", creds.Username),
			slog.String("error", err.Error()),
		)
		d.reply(sess, protocol.ActionLoginFail, MessageLoginError)
	}
	return nil
}

func (d *Dispatcher) handleJoin(_ context.Context, sess *session.Session, env protocol.Envelope) error {
	var req protocol.JoinRequest
	if err := env.Decode(&req); err != nil {
		return err
	}

	err := d.queue.Join(sess, req.Rows, req.Cols)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrNotIdle):
		d.reply(sess, protocol.ActionJoinFail, MessageAlreadyPlaying)
	case errors.Is(err, model.ErrInvalidBoardSize):
		d.reply(sess, protocol.ActionJoinFail, MessageInvalidBoardSize)
	default:
		return err
	}
	return nil
}

func (d *Dispatcher) handleCancel(_ context.Context, sess *session.Session, _ protocol.Envelope) error {
	if err := d.queue.Cancel(sess); err != nil {
		d.reply(sess, protocol.ActionCancelFail, matchmaking.MessageNotWaiting)
		return nil
	}
	d.reply(sess, protocol.ActionCancelSuccess, matchmaking.MessageCancelled)
	return nil
}

func (d *Dispatcher) handleTakeTurn(ctx context.Context, sess *session.Session, env protocol.Envelope) error {
	var req protocol.TurnRequest
	if err := env.Decode(&req); err != nil {
		return err
	}

	_, err := d.games.TakeTurn(ctx, sess, req.GameID, req.Board)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrGameNotFound):
		d.reply(sess, protocol.ActionTakeTurnFail, MessageGameNotFound)
	case errors.Is(err, model.ErrNotInGame):
		d.reply(sess, protocol.ActionTakeTurnFail, MessageNotInGame)
	case errors.Is(err, model.ErrBoardShape):
		d.reply(sess, protocol.ActionTakeTurnFail, MessageBoardShape)
	default:
		return err
	}
	return nil
}

func (d *Dispatcher) handleStats(ctx context.Context, sess *session.Session, _ protocol.Envelope) error {
	records, err := d.auth.GetAllStats(ctx)
	if err != nil {
		d.logger.Error("stats failed", slog.String("error", err.Error()))
		d.reply(sess, protocol.ActionStatsFail, MessageStatsError)
		return nil
	}
	d.send(sess, protocol.ActionStatsSuccess, protocol.Leaderboard{Players: records})
	return nil
}

func (d *Dispatcher) reply(sess *session.Session, action protocol.Action, message string) {
	d.send(sess, action, protocol.Notice{Message: message})
}

func (d *Dispatcher) send(sess *session.Session, action protocol.Action, payload any) {
	if err := sess.Send(action, payload); err != nil {
		d.logger.Debug("reply not delivered",
			slog.String("conn_id", sess.ID()),
			slog.String("action", string(action)),
			slog.String("error", err.Error()),
		)
	}
}
