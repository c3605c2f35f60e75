package board

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/lightsduel/internal/dependencies/mocks"
	"github.com/mcoot/lightsduel/internal/dependencies/random"
	"github.com/mcoot/lightsduel/internal/model"
	"github.com/mcoot/lightsduel/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	random  *mocks.MockRandom
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.random = mocks.NewMockRandom()
	s.service = New(s.random, DefaultConfig(), testutil.NopLogger())
}

// Generate tests

func (s *ServiceSuite) TestGenerateRejectsTerminalBoards() {
	// First attempt draws all 1s (all odd), second attempt is mixed
	s.random.QueueIntn(0, 0, 0, 0)
	s.random.QueueIntn(1, 0, 0, 0)

	board, err := s.service.Generate(2, 2)
	s.Require().NoError(err)
	s.Equal(model.Board{{2, 1}, {1, 1}}, board)
}

func (s *ServiceSuite) TestGenerateCellsAreOneOrTwo() {
	service := New(random.New(), DefaultConfig(), testutil.NopLogger())

	board, err := service.Generate(4, 6)
	s.Require().NoError(err)
	s.Equal(4, board.Rows())
	s.Equal(6, board.Cols())
	for _, row := range board {
		for _, v := range row {
			s.Contains([]uint32{1, 2}, v)
		}
	}
}

func (s *ServiceSuite) TestGenerateNeverReturnsTerminalBoard() {
	service := New(random.New(), DefaultConfig(), testutil.NopLogger())

	sizes := [][2]int{{1, 3}, {3, 1}, {2, 2}, {3, 3}, {5, 3}, {4, 4}, {8, 8}}
	for _, size := range sizes {
		for i := 0; i < 20; i++ {
			board, err := service.Generate(size[0], size[1])
			s.Require().NoError(err)
			s.False(board.AllEven(), "size %v", size)
			s.False(board.AllOdd(), "size %v", size)

			analysis, err := Analyze(board)
			s.Require().NoError(err)
			s.True(analysis.Solvable())
		}
	}
}

func (s *ServiceSuite) TestGenerateSingleCellExhausts() {
	service := New(random.New(), Config{MaxAttempts: 50}, testutil.NopLogger())

	_, err := service.Generate(1, 1)
	s.ErrorIs(err, ErrGenerationExhausted)
}

func (s *ServiceSuite) TestGenerateStopsAtAttemptCap() {
	// The mock returns 0 once its queue is empty, so every attempt is all 1s
	service := New(s.random, Config{MaxAttempts: 3}, testutil.NopLogger())

	_, err := service.Generate(3, 3)
	s.ErrorIs(err, ErrGenerationExhausted)
}

func (s *ServiceSuite) TestGenerateRejectsNonPositiveSize() {
	_, err := s.service.Generate(0, 3)
	s.ErrorIs(err, model.ErrInvalidBoardSize)
}

// ValidateSize tests

func (s *ServiceSuite) TestValidateSize() {
	s.NoError(s.service.ValidateSize(5, 3))
	s.NoError(s.service.ValidateSize(1, 3))
	s.ErrorIs(s.service.ValidateSize(1, 2), model.ErrInvalidBoardSize)
	s.NoError(s.service.ValidateSize(16, 16))
	s.ErrorIs(s.service.ValidateSize(1, 1), model.ErrInvalidBoardSize)
	s.ErrorIs(s.service.ValidateSize(0, 4), model.ErrInvalidBoardSize)
	s.ErrorIs(s.service.ValidateSize(17, 4), model.ErrInvalidBoardSize)
}

// Solve tests

func (s *ServiceSuite) TestSolveReturnsPatterns() {
	solutions, err := s.service.Solve(model.Board{{0, 1, 0}, {1, 1, 1}, {0, 1, 0}}, 64)
	s.Require().NoError(err)
	s.NotEmpty(solutions)
}
