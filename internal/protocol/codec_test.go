package protocol

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/lightsduel/internal/model"
)

type CodecSuite struct {
	suite.Suite
}

func TestCodecSuite(t *testing.T) {
	suite.Run(t, new(CodecSuite))
}

func (s *CodecSuite) decodeFrame(frame []byte) Envelope {
	env, err := NewDecoder(bytes.NewReader(frame), 0).Decode()
	s.Require().NoError(err)
	return env
}

// Framing tests

func (s *CodecSuite) TestHeaderIsLeftJustifiedDecimal() {
	frame, err := Encode(ActionLogin, Credentials{Username: "alice", Password: "pw1"})
	s.Require().NoError(err)

	header := string(frame[:HeaderSize])
	length := strings.TrimRight(header, " ")
	s.NotEqual(byte(' '), header[0])
	s.Equal(strings.Repeat(" ", HeaderSize-len(length)), header[len(length):])
	s.Equal(strconv.Itoa(len(frame)-HeaderSize), length)
}

func (s *CodecSuite) TestRoundTripCredentials() {
	in := Credentials{Username: "alice", Password: "pw1"}
	frame, err := Encode(ActionRegister, in)
	s.Require().NoError(err)

	env := s.decodeFrame(frame)
	s.Equal(ActionRegister, env.Action)

	var out Credentials
	s.Require().NoError(env.Decode(&out))
	s.Equal(in, out)
}

func (s *CodecSuite) TestRoundTripGameResult() {
	in := GameResult{
		Game: model.Game{
			ID: uuid.New(),
			Players: [2]model.UserRecord{
				{Username: "alice", Wins: 3, Losses: 1, GamesPlayed: 4},
				{Username: "bob", Wins: 0, Losses: 2, GamesPlayed: 2},
			},
			Board:     model.Board{{0, 2, 4}, {6, 8, 10}},
			Turn:      model.PlayerTwo,
			StartedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		},
		Winner: model.PlayerOne,
	}
	frame, err := Encode(ActionGameEnd, in)
	s.Require().NoError(err)

	var out GameResult
	s.Require().NoError(s.decodeFrame(frame).Decode(&out))
	s.Equal(in.Game.ID, out.Game.ID)
	s.Equal(in.Game.Players, out.Game.Players)
	s.Equal(in.Game.Board, out.Game.Board)
	s.Equal(in.Game.Turn, out.Game.Turn)
	s.True(in.Game.StartedAt.Equal(out.Game.StartedAt))
	s.Equal(in.Winner, out.Winner)
}

func (s *CodecSuite) TestRoundTripEmptyPayload() {
	frame, err := Encode(ActionGetAllStats, StatsRequest{})
	s.Require().NoError(err)

	env := s.decodeFrame(frame)
	s.Equal(ActionGetAllStats, env.Action)
	var out StatsRequest
	s.NoError(env.Decode(&out))
}

func (s *CodecSuite) TestDecodeConsecutiveFrames() {
	var buf bytes.Buffer
	s.Require().NoError(Write(&buf, ActionJoinGame, JoinRequest{Rows: 5, Cols: 3}))
	s.Require().NoError(Write(&buf, ActionCancelGame, CancelRequest{}))

	dec := NewDecoder(&buf, 0)
	first, err := dec.Decode()
	s.Require().NoError(err)
	s.Equal(ActionJoinGame, first.Action)

	second, err := dec.Decode()
	s.Require().NoError(err)
	s.Equal(ActionCancelGame, second.Action)

	_, err = dec.Decode()
	s.ErrorIs(err, ErrEndOfStream)
}

// Encode failures

func (s *CodecSuite) TestEncodeRejectsEmptyAction() {
	_, err := Encode("", Notice{Message: "x"})
	s.ErrorIs(err, ErrEmptyAction)
}

func (s *CodecSuite) TestEncodeRejectsNilPayload() {
	_, err := Encode(ActionError, nil)
	s.ErrorIs(err, ErrNilPayload)
}

// Decode failures

func (s *CodecSuite) TestDecodeEmptyStreamIsEndOfStream() {
	_, err := NewDecoder(bytes.NewReader(nil), 0).Decode()
	s.ErrorIs(err, ErrEndOfStream)
}

func (s *CodecSuite) TestDecodeShortHeaderIsMalformed() {
	_, err := NewDecoder(strings.NewReader("12"), 0).Decode()
	s.ErrorIs(err, ErrMalformed)
}

func (s *CodecSuite) TestDecodeShortBodyIsMalformed() {
	frame, err := Encode(ActionLogin, Credentials{Username: "alice", Password: "pw1"})
	s.Require().NoError(err)

	_, err = NewDecoder(bytes.NewReader(frame[:len(frame)-3]), 0).Decode()
	s.ErrorIs(err, ErrMalformed)
}

func (s *CodecSuite) TestDecodeNonNumericHeaderIsMalformed() {
	_, err := NewDecoder(strings.NewReader("abcdefghij"), 0).Decode()
	s.ErrorIs(err, ErrMalformed)
}

func (s *CodecSuite) TestDecodeGarbageBodyIsMalformed() {
	_, err := NewDecoder(strings.NewReader("3         \xff\xff\xff"), 0).Decode()
	s.ErrorIs(err, ErrMalformed)
}

func (s *CodecSuite) TestDecodeOversizedFrameIsMalformed() {
	frame, err := Encode(ActionLogin, Credentials{Username: strings.Repeat("a", 64), Password: "pw"})
	s.Require().NoError(err)

	_, err = NewDecoder(bytes.NewReader(frame), 16).Decode()
	s.ErrorIs(err, ErrMalformed)
}

func (s *CodecSuite) TestDecodePayloadTypeMismatchIsMalformed() {
	frame, err := Encode(ActionTakeTurn, "not a board")
	s.Require().NoError(err)

	var out TurnRequest
	err = s.decodeFrame(frame).Decode(&out)
	s.ErrorIs(err, ErrMalformed)
}

func (s *CodecSuite) TestDecoderStopsAtReaderError() {
	_, err := NewDecoder(io.LimitReader(strings.NewReader("5         ab"), 12), 0).Decode()
	s.ErrorIs(err, ErrMalformed)
}
