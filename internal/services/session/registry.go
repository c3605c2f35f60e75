// Package session tracks live connections and the user bound to each.
package session

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/lightsduel/internal/dependencies/clock"
	"github.com/mcoot/lightsduel/internal/model"
	"github.com/mcoot/lightsduel/internal/protocol"
)

// Peer is the outbound half of one client connection
type Peer interface {
	ID() string
	Send(action protocol.Action, payload any) error
}

// Session is the server-side state of one live connection
type Session struct {
	peer        Peer
	connectedAt time.Time
	state       atomic.Int32

	mu     sync.RWMutex
	record model.UserRecord
	gameID uuid.UUID
}

// Peer returns the connection behind the session
func (s *Session) Peer() Peer {
	return s.peer
}

// ID returns the connection id
func (s *Session) ID() string {
	return s.peer.ID()
}

// Send forwards one message to the connection
func (s *Session) Send(action protocol.Action, payload any) error {
	return s.peer.Send(action, payload)
}

// ConnectedAt returns when the connection was accepted
func (s *Session) ConnectedAt() time.Time {
	return s.connectedAt
}

// State returns the current lifecycle state
func (s *Session) State() model.ConnectionState {
	return model.ConnectionState(s.state.Load())
}

// Transition moves the session from one state to another.
// It returns false if the session was not in from.
func (s *Session) Transition(from, to model.ConnectionState) bool {
	if from == model.StateClosed {
		return false
	}
	return s.state.CompareAndSwap(int32(from), int32(to))
}

// Username returns the bound username, or "" before login
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.Username
}

// Record returns the cached statistics of the bound user
func (s *Session) Record() model.UserRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record
}

// SetRecord replaces the cached statistics. The username never changes.
func (s *Session) SetRecord(record model.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record.Username != "" && record.Username != s.record.Username {
		return
	}
	s.record = record
}

// GameID returns the game the session is seated in
func (s *Session) GameID() (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gameID, s.gameID != uuid.Nil
}

// SetGameID records the game the session is seated in; uuid.Nil clears it
func (s *Session) SetGameID(id uuid.UUID) {
	s.mu.Lock()
	s.gameID = id
	s.mu.Unlock()
}

// Registry maps live connections to sessions and usernames to connections
type Registry struct {
	clock  clock.Clock
	logger *slog.Logger

	mu     sync.RWMutex
	byConn map[string]*Session
	byUser map[string]*Session
}

// NewRegistry creates an empty registry
func NewRegistry(clk clock.Clock, logger *slog.Logger) *Registry {
	return &Registry{
		clock:  clk,
		logger: logger.With(slog.String("component", "session")),
		byConn: make(map[string]*Session),
		byUser: make(map[string]*Session),
	}
}

// Add registers a freshly accepted connection as unauthenticated
func (r *Registry) Add(peer Peer) *Session {
	sess := &Session{
		peer:        peer,
		connectedAt: r.clock.Now(),
	}
	sess.state.Store(int32(model.StateUnauthenticated))

	r.mu.Lock()
	r.byConn[peer.ID()] = sess
	r.mu.Unlock()
	return sess
}

// Get returns the session for a connection id
func (r *Registry) Get(connID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.byConn[connID]
	return sess, ok
}

// ByUsername returns the live session bound to username
func (r *Registry) ByUsername(username string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.byUser[username]
	return sess, ok
}

// IsLoggedIn reports whether username is bound to a live connection
func (r *Registry) IsLoggedIn(username string) bool {
	_, ok := r.ByUsername(username)
	return ok
}

// Bind associates a connection with a user and moves it to idle.
// The check for an existing binding and the insert happen under one lock,
// so two concurrent logins for the same user cannot both succeed.
func (r *Registry) Bind(connID string, record model.UserRecord) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.byConn[connID]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	if sess.State() != model.StateUnauthenticated {
		return nil, model.ErrAlreadyAuthed
	}
	if _, taken := r.byUser[record.Username]; taken {
		return nil, model.ErrAlreadyLoggedIn
	}
	if !sess.Transition(model.StateUnauthenticated, model.StateIdle) {
		return nil, model.ErrInvalidTransition
	}

	sess.SetRecord(record)
	r.byUser[record.Username] = sess
	r.logger.Info("user logged in",
		slog.String("conn_id", connID),
		slog.String("username", record.Username),
	)
	return sess, nil
}

// Remove forgets a connection and marks its session closed.
// It returns the session and the state it held just before closing.
func (r *Registry) Remove(connID string) (*Session, model.ConnectionState, bool) {
	r.mu.Lock()
	sess, ok := r.byConn[connID]
	if !ok {
		r.mu.Unlock()
		return nil, model.StateClosed, false
	}
	delete(r.byConn, connID)
	username := sess.Username()
	if username != "" && r.byUser[username] == sess {
		delete(r.byUser, username)
	}
	prev := model.ConnectionState(sess.state.Swap(int32(model.StateClosed)))
	r.mu.Unlock()

	r.logger.Debug("connection removed",
		slog.String("conn_id", connID),
		slog.String("username", username),
		slog.String("state", prev.String()),
	)
	return sess, prev, true
}

// Len returns the number of live connections
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}

// Counts returns the number of live connections in each state
func (r *Registry) Counts() map[model.ConnectionState]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[model.ConnectionState]int)
	for _, sess := range r.byConn {
		counts[sess.State()]++
	}
	return counts
}
