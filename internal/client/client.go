// Package client speaks the game protocol to a lightsduel server.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/lightsduel/internal/model"
	"github.com/mcoot/lightsduel/internal/protocol"
)

// ErrUnexpectedAction is returned when the server replies with an action the caller did not expect
var ErrUnexpectedAction = errors.New("unexpected action")

// FailureError is a tagged failure reply from the server
type FailureError struct {
	Action  protocol.Action
	Message string
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, e.Message)
}

// Client is one connection to the server. Send may be called concurrently;
// Receive must only be called from one goroutine.
type Client struct {
	conn    net.Conn
	dec     *protocol.Decoder
	timeout time.Duration

	mu sync.Mutex
}

// Dial connects to addr. A positive timeout bounds every read and write.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{
		conn:    conn,
		dec:     protocol.NewDecoder(conn, protocol.DefaultMaxFrameSize),
		timeout: timeout,
	}, nil
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// Send writes one frame
func (c *Client) Send(action protocol.Action, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	}
	return protocol.Write(c.conn, action, payload)
}

// Receive reads the next frame
func (c *Client) Receive() (protocol.Envelope, error) {
	if c.timeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.timeout))
	}
	return c.dec.Decode()
}

// Expect reads the next frame and checks its action. A failure action that
// carries a notice is returned as a *FailureError.
func (c *Client) Expect(success protocol.Action, failures ...protocol.Action) (protocol.Envelope, error) {
	env, err := c.Receive()
	if err != nil {
		return protocol.Envelope{}, err
	}
	if env.Action == success {
		return env, nil
	}
	if env.Action == protocol.ActionError || slices.Contains(failures, env.Action) {
		var notice protocol.Notice
		if err := env.Decode(&notice); err != nil {
			return env, err
		}
		return env, &FailureError{Action: env.Action, Message: notice.Message}
	}
	return env, fmt.Errorf("%w: got %s, want %s", ErrUnexpectedAction, env.Action, success)
}

// Register creates an account
func (c *Client) Register(username, password string) error {
	if err := c.Send(protocol.ActionRegister, protocol.Credentials{Username: username, Password: password}); err != nil {
		return err
	}
	_, err := c.Expect(protocol.ActionRegisterSuccess, protocol.ActionRegisterFail)
	return err
}

// Login authenticates this connection and returns the account's stats
func (c *Client) Login(username, password string) (model.UserRecord, error) {
	if err := c.Send(protocol.ActionLogin, protocol.Credentials{Username: username, Password: password}); err != nil {
		return model.UserRecord{}, err
	}
	env, err := c.Expect(protocol.ActionLoginSuccess, protocol.ActionLoginFail)
	if err != nil {
		return model.UserRecord{}, err
	}
	var result protocol.LoginResult
	if err := env.Decode(&result); err != nil {
		return model.UserRecord{}, err
	}
	return result.User, nil
}

// Stats returns the leaderboard
func (c *Client) Stats() ([]model.UserRecord, error) {
	if err := c.Send(protocol.ActionGetAllStats, protocol.StatsRequest{}); err != nil {
		return nil, err
	}
	env, err := c.Expect(protocol.ActionStatsSuccess, protocol.ActionStatsFail)
	if err != nil {
		return nil, err
	}
	var board protocol.Leaderboard
	if err := env.Decode(&board); err != nil {
		return nil, err
	}
	return board.Players, nil
}

// Join asks for a game and waits for the server to acknowledge the request
func (c *Client) Join(rows, cols int) error {
	if err := c.Send(protocol.ActionJoinGame, protocol.JoinRequest{Rows: rows, Cols: cols}); err != nil {
		return err
	}
	_, err := c.Expect(protocol.ActionJoinWaiting, protocol.ActionJoinFail)
	return err
}

// AwaitGame blocks until the server pairs this connection into a game
func (c *Client) AwaitGame() (model.Game, error) {
	env, err := c.Expect(protocol.ActionJoinSuccess, protocol.ActionJoinFail)
	if err != nil {
		return model.Game{}, err
	}
	var game model.Game
	if err := env.Decode(&game); err != nil {
		return model.Game{}, err
	}
	return game, nil
}

// Cancel leaves the matchmaking queue
func (c *Client) Cancel() error {
	if err := c.Send(protocol.ActionCancelGame, protocol.CancelRequest{}); err != nil {
		return err
	}
	_, err := c.Expect(protocol.ActionCancelSuccess, protocol.ActionCancelFail)
	return err
}

// TakeTurn submits a board with the move already applied. It does not wait for the broadcast.
func (c *Client) TakeTurn(gameID uuid.UUID, board model.Board) error {
	return c.Send(protocol.ActionTakeTurn, protocol.TurnRequest{GameID: gameID, Board: board})
}

// AwaitTurn reads the next game update: a turn snapshot or the final result
func (c *Client) AwaitTurn() (model.Game, *protocol.GameResult, error) {
	env, err := c.Receive()
	if err != nil {
		return model.Game{}, nil, err
	}
	switch env.Action {
	case protocol.ActionGameTurn:
		var game model.Game
		if err := env.Decode(&game); err != nil {
			return model.Game{}, nil, err
		}
		return game, nil, nil
	case protocol.ActionGameEnd:
		var result protocol.GameResult
		if err := env.Decode(&result); err != nil {
			return model.Game{}, nil, err
		}
		return result.Game, &result, nil
	case protocol.ActionTakeTurnFail, protocol.ActionGameAbandoned, protocol.ActionError:
		var notice protocol.Notice
		if err := env.Decode(&notice); err != nil {
			return model.Game{}, nil, err
		}
		return model.Game{}, nil, &FailureError{Action: env.Action, Message: notice.Message}
	default:
		return model.Game{}, nil, fmt.Errorf("%w: %s", ErrUnexpectedAction, env.Action)
	}
}
