package board

import (
	"errors"
	"log/slog"

	"github.com/mcoot/lightsduel/internal/dependencies/random"
	"github.com/mcoot/lightsduel/internal/model"
)

// ErrGenerationExhausted is returned when no playable board turns up within the attempt cap
var ErrGenerationExhausted = errors.New("no playable board found within attempt limit")

// Config holds limits for board sizes and generation
type Config struct {
	MinSide     int `mapstructure:"min_side"`
	MaxSide     int `mapstructure:"max_side"`
	MaxAttempts int `mapstructure:"max_attempts"`
}

// DefaultConfig returns default board configuration
func DefaultConfig() Config {
	return Config{
		MinSide:     1,
		MaxSide:     16,
		MaxAttempts: 10000,
	}
}

// Service generates and validates game boards
type Service struct {
	random random.Random
	cfg    Config
	logger *slog.Logger
}

// New creates a new BoardService
func New(random random.Random, cfg Config, logger *slog.Logger) *Service {
	defaults := DefaultConfig()
	if cfg.MaxSide == 0 {
		cfg.MaxSide = defaults.MaxSide
	}
	if cfg.MinSide == 0 {
		cfg.MinSide = defaults.MinSide
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	return &Service{
		random: random,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "board")),
	}
}

// ValidateSize checks that a requested board can be played.
// Boards of one or two cells can only reach uniform parity patterns, so at
// least three cells are required.
func (s *Service) ValidateSize(rows, cols int) error {
	if rows < s.cfg.MinSide || cols < s.cfg.MinSide || rows > s.cfg.MaxSide || cols > s.cfg.MaxSide {
		return model.ErrInvalidBoardSize
	}
	if rows*cols < 3 {
		return model.ErrInvalidBoardSize
	}
	return nil
}

// Generate returns a random board that is solvable and not already terminal.
// Cells are drawn uniformly from {1, 2}.
func (s *Service) Generate(rows, cols int) (model.Board, error) {
	if rows < 1 || cols < 1 {
		return nil, model.ErrInvalidBoardSize
	}

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		board := model.NewBoard(rows, cols)
		for r := range board {
			for c := range board[r] {
				board[r][c] = uint32(1 + s.random.Intn(2))
			}
		}

		if board.IsTerminal() {
			continue
		}
		analysis, err := Analyze(board)
		if err != nil {
			return nil, err
		}
		if !analysis.Solvable() {
			continue
		}

		if attempt > 1 {
			s.logger.Debug("board generated after retries",
				slog.Int("rows", rows),
				slog.Int("cols", cols),
				slog.Int("attempts", attempt),
			)
		}
		return board, nil
	}

	s.logger.Warn("board generation exhausted",
		slog.Int("rows", rows),
		slog.Int("cols", cols),
		slog.Int("max_attempts", s.cfg.MaxAttempts),
	)
	return nil, ErrGenerationExhausted
}

// Solve enumerates up to limit toggle patterns that reach the parity of target
func (s *Service) Solve(target model.Board, limit int) ([]model.Board, error) {
	analysis, err := Analyze(target)
	if err != nil {
		return nil, err
	}
	return analysis.Solutions(limit)
}
