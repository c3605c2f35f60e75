package matchmaking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/lightsduel/internal/dependencies/mocks"
	"github.com/mcoot/lightsduel/internal/dependencies/random"
	"github.com/mcoot/lightsduel/internal/model"
	"github.com/mcoot/lightsduel/internal/protocol"
	"github.com/mcoot/lightsduel/internal/services/board"
	"github.com/mcoot/lightsduel/internal/services/game"
	"github.com/mcoot/lightsduel/internal/services/session"
	"github.com/mcoot/lightsduel/internal/storage/memory"
	"github.com/mcoot/lightsduel/internal/testutil"
)

type QueueSuite struct {
	suite.Suite
	storage  *memory.Storage
	registry *session.Registry
	games    *game.Controller
	queue    *Queue
	peers    map[string]*testutil.RecordingPeer
}

func TestQueueSuite(t *testing.T) {
	suite.Run(t, new(QueueSuite))
}

func (s *QueueSuite) SetupTest() {
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.storage = memory.New()
	s.registry = session.NewRegistry(clk, testutil.NopLogger())
	s.games = game.NewController(s.storage, clk, testutil.NopLogger())
	boards := board.New(random.NewSeeded(7), board.DefaultConfig(), testutil.NopLogger())
	s.queue = New(boards, s.games, DefaultConfig(), testutil.NopLogger())
	s.peers = make(map[string]*testutil.RecordingPeer)
}

func (s *QueueSuite) login(username string) *session.Session {
	s.Require().NoError(s.storage.Insert(context.Background(), username, "hash-"+username, "salt-"+username))
	peer := testutil.NewRecordingPeer("c-" + username)
	s.peers[username] = peer
	s.registry.Add(peer)
	sess, err := s.registry.Bind(peer.ID(), model.UserRecord{Username: username})
	s.Require().NoError(err)
	return sess
}

// Join tests

func (s *QueueSuite) TestFirstJoinWaits() {
	alice := s.login("alice")

	s.Require().NoError(s.queue.Join(alice, 5, 3))
	s.Equal(model.StateQueued, alice.State())
	s.Equal(1, s.queue.Len())
	s.True(s.queue.Contains(alice))
	s.Equal([]protocol.Action{protocol.ActionJoinWaiting}, s.peers["alice"].Actions())
}

func (s *QueueSuite) TestTwoJoinsCreateOneGame() {
	alice := s.login("alice")
	bob := s.login("bob")

	s.Require().NoError(s.queue.Join(alice, 5, 3))
	s.Require().NoError(s.queue.Join(bob, 5, 3))

	s.Equal(0, s.queue.Len())
	s.Equal(1, s.games.Len())
	s.Equal(model.StateInGame, alice.State())
	s.Equal(model.StateInGame, bob.State())

	s.Equal([]protocol.Action{protocol.ActionJoinWaiting, protocol.ActionJoinSuccess}, s.peers["alice"].Actions())
	s.Equal([]protocol.Action{protocol.ActionJoinWaiting, protocol.ActionJoinSuccess}, s.peers["bob"].Actions())

	msg, _ := s.peers["bob"].Last()
	snapshot := msg.Payload.(model.Game)
	s.Equal("alice", snapshot.Players[0].Username)
	s.Equal("bob", snapshot.Players[1].Username)
	s.Equal(model.PlayerOne, snapshot.Turn)
	s.False(snapshot.Board.IsTerminal())
}

func (s *QueueSuite) TestHostDimensionsAreUsed() {
	alice := s.login("alice")
	bob := s.login("bob")

	s.Require().NoError(s.queue.Join(alice, 4, 6))
	s.Require().NoError(s.queue.Join(bob, 3, 3))

	msg, _ := s.peers["bob"].Last()
	snapshot := msg.Payload.(model.Game)
	s.Equal(4, snapshot.Board.Rows())
	s.Equal(6, snapshot.Board.Cols())
}

func (s *QueueSuite) TestZeroSizeUsesDefault() {
	alice := s.login("alice")
	bob := s.login("bob")

	s.Require().NoError(s.queue.Join(alice, 0, 0))
	s.Require().NoError(s.queue.Join(bob, 0, 0))

	msg, _ := s.peers["alice"].Last()
	snapshot := msg.Payload.(model.Game)
	s.Equal(5, snapshot.Board.Rows())
	s.Equal(3, snapshot.Board.Cols())
}

func (s *QueueSuite) TestJoinRequiresIdle() {
	alice := s.login("alice")
	s.Require().NoError(s.queue.Join(alice, 3, 3))

	s.ErrorIs(s.queue.Join(alice, 3, 3), model.ErrNotIdle)
	s.Equal(1, s.queue.Len())
}

func (s *QueueSuite) TestJoinRequiresLogin() {
	peer := testutil.NewRecordingPeer("c-anon")
	anon := s.registry.Add(peer)

	s.ErrorIs(s.queue.Join(anon, 3, 3), model.ErrNotIdle)
	s.Equal(0, s.queue.Len())
}

func (s *QueueSuite) TestJoinRejectsBadSize() {
	alice := s.login("alice")

	s.ErrorIs(s.queue.Join(alice, 0, 3), model.ErrInvalidBoardSize)
	s.ErrorIs(s.queue.Join(alice, 1, 1), model.ErrInvalidBoardSize)
	s.Equal(model.StateIdle, alice.State())
	s.Equal(0, s.queue.Len())
}

func (s *QueueSuite) TestThirdPlayerWaits() {
	alice := s.login("alice")
	bob := s.login("bob")
	carol := s.login("carol")

	s.Require().NoError(s.queue.Join(alice, 3, 3))
	s.Require().NoError(s.queue.Join(bob, 3, 3))
	s.Require().NoError(s.queue.Join(carol, 3, 3))

	s.Equal(1, s.queue.Len())
	s.True(s.queue.Contains(carol))
	s.Equal(model.StateQueued, carol.State())
}

func (s *QueueSuite) TestClosedEntryIsSkipped() {
	alice := s.login("alice")
	bob := s.login("bob")
	carol := s.login("carol")

	s.Require().NoError(s.queue.Join(alice, 3, 3))
	// alice drops before the queue learns about it
	s.registry.Remove(alice.ID())
	s.Require().NoError(s.queue.Join(bob, 3, 3))
	s.Equal(1, s.queue.Len())
	s.Equal(0, s.games.Len())

	s.Require().NoError(s.queue.Join(carol, 3, 3))
	s.Equal(0, s.queue.Len())
	s.Equal(1, s.games.Len())
	s.Equal(model.StateInGame, bob.State())
}

func (s *QueueSuite) TestConcurrentJoinsPairEveryone() {
	const n = 20
	sessions := make([]*session.Session, n)
	for i := range sessions {
		sessions[i] = s.login(string(rune('a'+i)) + "player")
	}

	var wg sync.WaitGroup
	for _, sess := range sessions {
		wg.Add(1)
		go func(sess *session.Session) {
			defer wg.Done()
			s.NoError(s.queue.Join(sess, 3, 3))
		}(sess)
	}
	wg.Wait()

	s.Equal(0, s.queue.Len())
	s.Equal(n/2, s.games.Len())
	for _, sess := range sessions {
		s.Equal(model.StateInGame, sess.State())
	}
}

func (s *QueueSuite) TestGenerationFailureReturnsPlayersToIdle() {
	// The mock always draws 1s, so every candidate board is terminal
	boards := board.New(mocks.NewMockRandom(), board.Config{MaxAttempts: 2}, testutil.NopLogger())
	queue := New(boards, s.games, DefaultConfig(), testutil.NopLogger())
	alice := s.login("alice")
	bob := s.login("bob")

	s.Require().NoError(queue.Join(alice, 3, 3))
	s.Require().NoError(queue.Join(bob, 3, 3))

	s.Equal(0, s.games.Len())
	s.Equal(model.StateIdle, alice.State())
	s.Equal(model.StateIdle, bob.State())
	last, _ := s.peers["alice"].Last()
	s.Equal(protocol.ActionJoinFail, last.Action)
}

func (s *QueueSuite) TestJoinRacingDisconnectLeavesNoEntry() {
	for i := range 200 {
		sess := s.login(fmt.Sprintf("racer%d", i))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.queue.Join(sess, 3, 3)
		}()
		go func() {
			defer wg.Done()
			// same sequence as the dispatcher on disconnect
			if _, prev, ok := s.registry.Remove(sess.ID()); ok && prev == model.StateQueued {
				s.queue.Remove(sess)
			}
		}()
		wg.Wait()

		s.Require().Equal(0, s.queue.Len(), "iteration %d", i)
		s.Require().Equal(model.StateClosed, sess.State())
	}
}

// Cancel tests

func (s *QueueSuite) TestCancelReturnsToIdle() {
	alice := s.login("alice")
	s.Require().NoError(s.queue.Join(alice, 3, 3))

	s.Require().NoError(s.queue.Cancel(alice))
	s.Equal(model.StateIdle, alice.State())
	s.Equal(0, s.queue.Len())

	s.NoError(s.queue.Join(alice, 3, 3))
}

func (s *QueueSuite) TestCancelWhenNotQueued() {
	alice := s.login("alice")

	s.ErrorIs(s.queue.Cancel(alice), model.ErrNotWaiting)
	s.Equal(model.StateIdle, alice.State())
}

func (s *QueueSuite) TestCancelAfterPairing() {
	alice := s.login("alice")
	bob := s.login("bob")
	s.Require().NoError(s.queue.Join(alice, 3, 3))
	s.Require().NoError(s.queue.Join(bob, 3, 3))

	s.ErrorIs(s.queue.Cancel(alice), model.ErrNotWaiting)
	s.Equal(model.StateInGame, alice.State())
}

// Remove tests

func (s *QueueSuite) TestRemoveDropsEntry() {
	alice := s.login("alice")
	s.Require().NoError(s.queue.Join(alice, 3, 3))

	s.queue.Remove(alice)
	s.Equal(0, s.queue.Len())
	s.queue.Remove(alice)
}
