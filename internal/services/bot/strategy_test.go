package bot_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/lightsduel/internal/dependencies/mocks"
	"github.com/mcoot/lightsduel/internal/model"
	"github.com/mcoot/lightsduel/internal/services/bot"
)

type StrategySuite struct {
	suite.Suite
	mockRandom *mocks.MockRandom
}

func TestStrategySuite(t *testing.T) {
	suite.Run(t, new(StrategySuite))
}

func (s *StrategySuite) SetupTest() {
	s.mockRandom = mocks.NewMockRandom()
}

// plus is one centre press away from all-even
func plus() model.Game {
	return model.Game{Board: model.Board{{0, 1, 0}, {1, 1, 1}, {0, 1, 0}}, Turn: model.PlayerOne}
}

func (s *StrategySuite) TestRandomPicksIndexedCell() {
	strategy := bot.NewRandomStrategy(s.mockRandom)
	// Index 5 = (1, 2) in a 3x3 grid
	s.mockRandom.QueueIntn(5)

	s.Equal(bot.Move{Row: 1, Col: 2}, strategy.ChooseMove(plus(), model.PlayerOne))
	s.Equal([]int{9}, s.mockRandom.Bounds())
}

func (s *StrategySuite) TestGreedyTakesWinningPress() {
	strategy := bot.NewGreedyStrategy(s.mockRandom)
	s.Equal(bot.Move{Row: 1, Col: 1}, strategy.ChooseMove(plus(), model.PlayerOne))
	s.Empty(s.mockRandom.Bounds())
}

func (s *StrategySuite) TestGreedyAvoidsLosingPress() {
	strategy := bot.NewGreedyStrategy(s.mockRandom)
	// The centre would hand player one the win, so it is skipped: index 4 of
	// the remaining eight cells is (1, 2)
	s.mockRandom.QueueIntn(4)

	s.Equal(bot.Move{Row: 1, Col: 2}, strategy.ChooseMove(plus(), model.PlayerTwo))
	s.Equal([]int{8}, s.mockRandom.Bounds())
}

func (s *StrategySuite) TestGreedyNeverHandsOverTheWin() {
	strategy := bot.NewGreedyStrategy(s.mockRandom)
	for i := range 8 {
		s.mockRandom.Reset()
		s.mockRandom.QueueIntn(i)

		m := strategy.ChooseMove(plus(), model.PlayerTwo)
		next := plus().Board.Clone()
		s.Require().NoError(next.Toggle(m.Row, m.Col))
		s.NotEqual(model.PlayerOne, next.Winner())
	}
}
