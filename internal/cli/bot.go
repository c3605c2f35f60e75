package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mcoot/lightsduel/internal/dependencies/random"
	"github.com/mcoot/lightsduel/internal/services/bot"
)

// BotSummary is the tally of a bot run
type BotSummary struct {
	Username string `json:"username"`
	Games    int    `json:"games"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Turns    int    `json:"turns"`
}

func newBotCmd() *cobra.Command {
	var (
		creds      credentials
		games      int
		rows, cols int
		strategy   string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Log in and play games automatically",
		Long: `Log in and play games automatically

The bot queues for a game, plays it to the end and queues again until
--games have been played. Waiting for an opponent is bounded by --timeout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if games < 1 {
				return fmt.Errorf("--games must be at least 1")
			}
			strat, err := newStrategy(strategy)
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if verbose {
				level = slog.LevelInfo
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			c, err := dial(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			if _, err := c.Login(creds.user, creds.pass); err != nil {
				return err
			}

			player := bot.NewPlayer(c, creds.user, strat, logger)
			summary := BotSummary{Username: creds.user}
			for range games {
				result, err := player.Play(rows, cols)
				if err != nil {
					return fmt.Errorf("game %d: %w", summary.Games+1, err)
				}
				summary.Games++
				summary.Turns += result.Turns
				if result.Won {
					summary.Wins++
				} else {
					summary.Losses++
				}
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(summary)
			return nil
		},
	}
	creds.bind(cmd)
	cmd.Flags().IntVar(&games, "games", 1, "Number of games to play")
	cmd.Flags().IntVar(&rows, "rows", 0, "Board rows to request (0 for the server default)")
	cmd.Flags().IntVar(&cols, "cols", 0, "Board columns to request (0 for the server default)")
	cmd.Flags().StringVar(&strategy, "strategy", "greedy", "Move strategy: greedy, random")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log each game")

	return cmd
}

func newStrategy(name string) (bot.Strategy, error) {
	switch name {
	case "greedy":
		return bot.NewGreedyStrategy(random.New()), nil
	case "random":
		return bot.NewRandomStrategy(random.New()), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}
