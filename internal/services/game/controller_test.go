package game

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/lightsduel/internal/dependencies/mocks"
	"github.com/mcoot/lightsduel/internal/model"
	"github.com/mcoot/lightsduel/internal/protocol"
	"github.com/mcoot/lightsduel/internal/services/session"
	"github.com/mcoot/lightsduel/internal/storage"
	"github.com/mcoot/lightsduel/internal/storage/memory"
	"github.com/mcoot/lightsduel/internal/testutil"
)

// failingStore rejects every stats update
type failingStore struct {
	storage.CredentialStore
}

func (failingStore) RecordWin(context.Context, string) error  { return errors.New("store down") }
func (failingStore) RecordLoss(context.Context, string) error { return errors.New("store down") }

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	registry   *session.Registry
	controller *Controller
	ctx        context.Context

	alicePeer *testutil.RecordingPeer
	bobPeer   *testutil.RecordingPeer
	alice     *session.Session
	bob       *session.Session
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.registry = session.NewRegistry(s.clock, testutil.NopLogger())
	s.controller = NewController(s.storage, s.clock, testutil.NopLogger())
	s.ctx = context.Background()

	s.alicePeer = testutil.NewRecordingPeer("c-alice")
	s.bobPeer = testutil.NewRecordingPeer("c-bob")
	s.alice = s.seat(s.alicePeer, "alice")
	s.bob = s.seat(s.bobPeer, "bob")
}

// seat registers, logs in and marks a connection as in game, as matchmaking would
func (s *ControllerSuite) seat(peer *testutil.RecordingPeer, username string) *session.Session {
	s.Require().NoError(s.storage.Insert(s.ctx, username, "hash-"+username, "salt-"+username))
	s.registry.Add(peer)
	sess, err := s.registry.Bind(peer.ID(), model.UserRecord{Username: username})
	s.Require().NoError(err)
	s.Require().True(sess.Transition(model.StateIdle, model.StateInGame))
	return sess
}

func (s *ControllerSuite) start() model.Game {
	game := s.controller.Start(s.alice, s.bob, model.Board{{1, 2, 1}, {2, 1, 1}, {1, 1, 1}})
	s.alicePeer.Reset()
	s.bobPeer.Reset()
	return game
}

// Start tests

func (s *ControllerSuite) TestStartSendsSnapshotToBoth() {
	board := model.Board{{1, 2}, {2, 2}}
	game := s.controller.Start(s.alice, s.bob, board)

	s.NotEqual(uuid.Nil, game.ID)
	s.Equal(model.PlayerOne, game.Turn)
	s.Equal("alice", game.Players[0].Username)
	s.Equal("bob", game.Players[1].Username)
	s.Equal(s.clock.Now(), game.StartedAt)
	s.Equal(1, s.controller.Len())

	for _, peer := range []*testutil.RecordingPeer{s.alicePeer, s.bobPeer} {
		msg, ok := peer.Last()
		s.Require().True(ok)
		s.Equal(protocol.ActionJoinSuccess, msg.Action)
		s.Equal(game, msg.Payload)
	}

	id, ok := s.alice.GameID()
	s.True(ok)
	s.Equal(game.ID, id)
}

func (s *ControllerSuite) TestStartCopiesBoard() {
	board := model.Board{{1, 2}, {2, 2}}
	game := s.controller.Start(s.alice, s.bob, board)
	board[0][0] = 9

	stored, ok := s.controller.Get(game.ID)
	s.Require().True(ok)
	s.Equal(uint32(1), stored.Board[0][0])
}

func (s *ControllerSuite) TestStartWithClosedPlayerAbandons() {
	s.registry.Remove(s.bob.ID())

	s.controller.Start(s.alice, s.bob, model.Board{{1, 2}, {2, 2}})

	s.Equal(0, s.controller.Len())
	s.Equal(model.StateIdle, s.alice.State())
	msg, ok := s.alicePeer.Last()
	s.Require().True(ok)
	s.Equal(protocol.ActionGameAbandoned, msg.Action)
}

// TakeTurn tests

func (s *ControllerSuite) TestTurnAlternates() {
	game := s.start()

	outcome, err := s.controller.TakeTurn(s.ctx, s.alice, game.ID, model.Board{{2, 2, 1}, {2, 1, 1}, {1, 1, 1}})
	s.Require().NoError(err)
	s.False(outcome.Ended())
	s.Equal(model.PlayerTwo, outcome.Game.Turn)

	outcome, err = s.controller.TakeTurn(s.ctx, s.bob, game.ID, model.Board{{2, 1, 1}, {2, 1, 1}, {1, 1, 1}})
	s.Require().NoError(err)
	s.Equal(model.PlayerOne, outcome.Game.Turn)
}

func (s *ControllerSuite) TestTurnBroadcastsBoard() {
	game := s.start()
	next := model.Board{{2, 2, 1}, {2, 1, 1}, {1, 1, 1}}

	_, err := s.controller.TakeTurn(s.ctx, s.alice, game.ID, next)
	s.Require().NoError(err)

	for _, peer := range []*testutil.RecordingPeer{s.alicePeer, s.bobPeer} {
		msg, ok := peer.Last()
		s.Require().True(ok)
		s.Equal(protocol.ActionGameTurn, msg.Action)
		snapshot := msg.Payload.(model.Game)
		s.Equal(next, snapshot.Board)
		s.Equal(model.PlayerTwo, snapshot.Turn)
	}
}

func (s *ControllerSuite) TestAllEvenBoardWinsForPlayerOne() {
	game := s.start()

	outcome, err := s.controller.TakeTurn(s.ctx, s.bob, game.ID, model.Board{{2, 2, 2}, {2, 0, 2}, {4, 2, 2}})
	s.Require().NoError(err)
	s.True(outcome.Ended())
	s.Equal(model.PlayerOne, outcome.Winner)

	s.Equal(model.UserRecord{Username: "alice", Wins: 1, GamesPlayed: 1}, outcome.Game.Players[0])
	s.Equal(model.UserRecord{Username: "bob", Losses: 1, GamesPlayed: 1}, outcome.Game.Players[1])
	s.Equal(uint32(1), s.alice.Record().Wins)
	s.Equal(uint32(1), s.bob.Record().Losses)

	account, err := s.storage.FindByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(uint32(1), account.Wins)
}

func (s *ControllerSuite) TestAllOddBoardWinsForPlayerTwo() {
	game := s.start()

	outcome, err := s.controller.TakeTurn(s.ctx, s.alice, game.ID, model.Board{{1, 1, 1}, {1, 3, 1}, {1, 1, 1}})
	s.Require().NoError(err)
	s.Equal(model.PlayerTwo, outcome.Winner)
	s.Equal(uint32(1), outcome.Game.Players[1].Wins)
	s.Equal(uint32(1), outcome.Game.Players[0].Losses)
}

func (s *ControllerSuite) TestGameEndCleansUp() {
	game := s.start()

	_, err := s.controller.TakeTurn(s.ctx, s.alice, game.ID, model.Board{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}})
	s.Require().NoError(err)

	s.Equal(0, s.controller.Len())
	_, ok := s.controller.Get(game.ID)
	s.False(ok)
	s.Equal(model.StateIdle, s.alice.State())
	s.Equal(model.StateIdle, s.bob.State())
	_, ok = s.alice.GameID()
	s.False(ok)

	for _, peer := range []*testutil.RecordingPeer{s.alicePeer, s.bobPeer} {
		msg, ok := peer.Last()
		s.Require().True(ok)
		s.Equal(protocol.ActionGameEnd, msg.Action)
		result := msg.Payload.(protocol.GameResult)
		s.Equal(model.PlayerOne, result.Winner)
		s.Equal(game.ID, result.Game.ID)
	}

	_, err = s.controller.TakeTurn(s.ctx, s.alice, game.ID, model.NewBoard(3, 3))
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ControllerSuite) TestGameEndsEvenIfStoreFails() {
	logger, logs := testutil.NewLogRecorder()
	controller := NewController(failingStore{CredentialStore: s.storage}, s.clock, logger)
	game := controller.Start(s.alice, s.bob, model.Board{{1, 2}, {2, 2}})

	outcome, err := controller.TakeTurn(s.ctx, s.alice, game.ID, model.Board{{2, 2}, {2, 2}})
	s.Require().NoError(err)
	s.True(outcome.Ended())
	s.Equal(0, controller.Len())
	s.Equal(model.StateIdle, s.alice.State())
	s.Equal(uint32(0), outcome.Game.Players[0].Wins)

	entry, ok := logs.Find("failed to record win")
	s.Require().True(ok)
	s.Equal("alice", entry.Attrs["username"])
	s.Equal("store down", entry.Attrs["error"])
}

func (s *ControllerSuite) TestOutOfTurnIsAccepted() {
	logger, logs := testutil.NewLogRecorder()
	s.controller = NewController(s.storage, s.clock, logger)
	game := s.start()

	outcome, err := s.controller.TakeTurn(s.ctx, s.bob, game.ID, model.Board{{2, 2, 1}, {2, 1, 1}, {1, 1, 1}})
	s.Require().NoError(err)
	s.Equal(model.PlayerTwo, outcome.Game.Turn)

	entry, ok := logs.Find("turn taken out of order")
	s.Require().True(ok)
	s.Equal(slog.LevelWarn, entry.Level)
	s.Equal("bob", entry.Attrs["username"])
}

func (s *ControllerSuite) TestTurnRejectsWrongShape() {
	game := s.start()

	_, err := s.controller.TakeTurn(s.ctx, s.alice, game.ID, model.Board{{1, 2}, {2, 1}})
	s.ErrorIs(err, model.ErrBoardShape)

	_, err = s.controller.TakeTurn(s.ctx, s.alice, game.ID, model.Board{{1, 2, 1}, {2}, {1, 1, 1}})
	s.ErrorIs(err, model.ErrBoardShape)

	stored, _ := s.controller.Get(game.ID)
	s.Equal(model.PlayerOne, stored.Turn)
	s.Empty(s.alicePeer.Messages())
}

func (s *ControllerSuite) TestTurnFromOutsider() {
	game := s.start()
	carolPeer := testutil.NewRecordingPeer("c-carol")
	carol := s.seat(carolPeer, "carol")

	_, err := s.controller.TakeTurn(s.ctx, carol, game.ID, model.NewBoard(3, 3))
	s.ErrorIs(err, model.ErrNotInGame)
}

func (s *ControllerSuite) TestTurnUnknownGameReleasesDanglingPlayer() {
	s.alice.SetGameID(uuid.New())

	_, err := s.controller.TakeTurn(s.ctx, s.alice, uuid.New(), model.NewBoard(3, 3))
	s.ErrorIs(err, model.ErrGameNotFound)
	s.Equal(model.StateIdle, s.alice.State())
	_, ok := s.alice.GameID()
	s.False(ok)
}

// Abandon tests

func (s *ControllerSuite) TestAbandonNotifiesOpponent() {
	game := s.start()
	s.registry.Remove(s.alice.ID())

	s.controller.Abandon(s.alice)

	s.Equal(0, s.controller.Len())
	s.Equal(model.StateIdle, s.bob.State())
	msg, ok := s.bobPeer.Last()
	s.Require().True(ok)
	s.Equal(protocol.ActionGameAbandoned, msg.Action)
	s.Empty(s.alicePeer.Messages())

	account, _ := s.storage.FindByUsername(s.ctx, "bob")
	s.Equal(uint32(0), account.GamesPlayed)

	_, err := s.controller.TakeTurn(s.ctx, s.bob, game.ID, model.NewBoard(3, 3))
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ControllerSuite) TestAbandonIsIdempotent() {
	s.start()

	s.controller.Abandon(s.alice)
	s.controller.Abandon(s.alice)
	s.controller.Abandon(s.bob)

	s.Len(s.bobPeer.Messages(), 1)
}

func (s *ControllerSuite) TestAbandonWithoutGame() {
	s.controller.Abandon(s.alice)
	s.Empty(s.bobPeer.Messages())
}
