package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/lightsduel/internal/api/response"
	"github.com/mcoot/lightsduel/internal/client"
	"github.com/mcoot/lightsduel/internal/dependencies/random"
	"github.com/mcoot/lightsduel/internal/factory"
	"github.com/mcoot/lightsduel/internal/services/bot"
	"github.com/mcoot/lightsduel/internal/testutil"
)

type CLISuite struct {
	suite.Suite
	app    *factory.TestApp
	addr   string
	admin  *httptest.Server
	cancel context.CancelFunc
	done   chan error
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}

func (s *CLISuite) SetupTest() {
	s.app = factory.NewTestApp()

	ln, err := net.Listen("tcp", s.app.Config.Server.Addr)
	s.Require().NoError(err)
	s.addr = ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan error, 1)
	go func() { s.done <- s.app.Server.Serve(ctx, ln) }()

	s.admin = httptest.NewServer(s.app.Admin)
}

func (s *CLISuite) TearDownTest() {
	s.admin.Close()
	s.cancel()
	select {
	case err := <-s.done:
		s.NoError(err)
	case <-time.After(5 * time.Second):
		s.Fail("server did not stop")
	}
}

func (s *CLISuite) run(args ...string) (string, error) {
	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(append([]string{
		"--server", s.addr,
		"--admin", s.admin.URL,
		"--token", "test-token",
		"--timeout", "5s",
	}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func (s *CLISuite) TestRegisterAndLogin() {
	out, err := s.run("register", "--user", "alice", "--pass", "secret")
	s.Require().NoError(err)
	s.Contains(out, "Registered alice")

	out, err = s.run("login", "--user", "alice", "--pass", "secret")
	s.Require().NoError(err)
	s.Contains(out, "Player: alice")
	s.Contains(out, "Wins: 0")
}

func (s *CLISuite) TestRegisterDuplicate() {
	_, err := s.run("register", "--user", "alice", "--pass", "secret")
	s.Require().NoError(err)

	_, err = s.run("register", "--user", "alice", "--pass", "other")
	s.Require().Error(err)
	s.Contains(err.Error(), "Username already exists.")
}

func (s *CLISuite) TestLoginWrongPassword() {
	_, err := s.run("register", "--user", "alice", "--pass", "secret")
	s.Require().NoError(err)

	_, err = s.run("login", "--user", "alice", "--pass", "nope")
	s.Require().Error(err)
	s.Contains(err.Error(), "Incorrect password")
}

func (s *CLISuite) TestStatsJSON() {
	for _, user := range []string{"alice", "bob"} {
		_, err := s.run("register", "--user", user, "--pass", "pw")
		s.Require().NoError(err)
	}
	s.Require().NoError(s.app.Store.RecordWin(context.Background(), "bob"))

	out, err := s.run("stats", "--user", "alice", "--pass", "pw", "-o", "json")
	s.Require().NoError(err)

	var board response.Leaderboard
	s.Require().NoError(json.Unmarshal([]byte(out), &board))
	s.Require().Len(board.Players, 2)
	s.Equal("bob", board.Players[0].Username)
	s.Equal("alice", board.Players[1].Username)
}

func (s *CLISuite) TestPlayerFromAdminAPI() {
	_, err := s.run("register", "--user", "alice", "--pass", "pw")
	s.Require().NoError(err)

	out, err := s.run("player")
	s.Require().NoError(err)
	s.Contains(out, "PLAYER")
	s.Contains(out, "alice")

	out, err = s.run("player", "alice")
	s.Require().NoError(err)
	s.Contains(out, "Player: alice")

	_, err = s.run("player", "nobody")
	var httpErr *HTTPError
	s.Require().ErrorAs(err, &httpErr)
	s.Equal(http.StatusNotFound, httpErr.Status)
	s.Contains(err.Error(), "PLAYER_NOT_FOUND")
}

func (s *CLISuite) TestSolveLocal() {
	out, err := s.run("solve", "0,1,0", "1,1,1", "0,1,0")
	s.Require().NoError(err)
	s.Contains(out, "Rank: 9")
	s.Contains(out, "Solutions: 1")
	s.Contains(out, ". X .")
}

func (s *CLISuite) TestSolveRemote() {
	out, err := s.run("solve", "--remote", "-o", "json", "0,1,0", "1,1,1", "0,1,0")
	s.Require().NoError(err)

	var result response.Solve
	s.Require().NoError(json.Unmarshal([]byte(out), &result))
	s.True(result.Solvable)
	s.Len(result.Solutions, 1)
}

func (s *CLISuite) TestSolveTooMany() {
	_, err := s.run("solve", "--limit", "2", "0,0,0,0", "0,0,0,0", "0,0,0,0", "0,0,0,0")
	s.Error(err)
}

func (s *CLISuite) TestSolveRejectsRaggedBoard() {
	_, err := s.run("solve", "1,2", "1")
	s.Require().Error(err)
	s.Contains(err.Error(), "same number of cells")

	_, err = s.run("solve", "1,x")
	s.Require().Error(err)
	s.Contains(err.Error(), "invalid cell")
}

func (s *CLISuite) TestStatusAndHealth() {
	out, err := s.run("status")
	s.Require().NoError(err)
	s.Contains(out, "Connections: 0")
	s.Contains(out, "Active games: 0")

	out, err = s.run("health")
	s.Require().NoError(err)
	s.True(strings.HasPrefix(out, "Status: ok"))
}

func (s *CLISuite) TestInvalidOutputFormat() {
	_, err := s.run("health", "-o", "xml")
	s.Error(err)
}

func (s *CLISuite) TestBotPlaysAgainstOpponent() {
	for _, user := range []string{"alice", "bob"} {
		_, err := s.run("register", "--user", user, "--pass", "pw")
		s.Require().NoError(err)
	}

	type runResult struct {
		out string
		err error
	}
	done := make(chan runResult, 1)
	go func() {
		out, err := s.run("bot", "--user", "alice", "--pass", "pw", "--rows", "3", "--cols", "3", "-o", "json")
		done <- runResult{out, err}
	}()

	c, err := client.Dial(context.Background(), s.addr, 5*time.Second)
	s.Require().NoError(err)
	defer func() { _ = c.Close() }()
	_, err = c.Login("bob", "pw")
	s.Require().NoError(err)
	opponent := bot.NewPlayer(c, "bob", bot.NewRandomStrategy(random.NewSeeded(3)), testutil.NopLogger())
	bobResult, err := opponent.Play(3, 3)
	s.Require().NoError(err)

	var res runResult
	select {
	case res = <-done:
	case <-time.After(10 * time.Second):
		s.FailNow("bot command did not finish")
	}
	s.Require().NoError(res.err)

	var summary BotSummary
	s.Require().NoError(json.Unmarshal([]byte(res.out), &summary))
	s.Equal("alice", summary.Username)
	s.Equal(1, summary.Games)
	s.Equal(1, summary.Wins+summary.Losses)
	s.NotEqual(bobResult.Won, summary.Wins == 1)
}

func (s *CLISuite) TestBotRejectsUnknownStrategy() {
	_, err := s.run("register", "--user", "alice", "--pass", "pw")
	s.Require().NoError(err)

	_, err = s.run("bot", "--user", "alice", "--pass", "pw", "--strategy", "clever")
	s.Require().Error(err)
	s.Contains(err.Error(), "unknown strategy")
}
