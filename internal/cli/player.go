package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/lightsduel/internal/api/response"
)

// credentials are the --user and --pass flags shared by account commands
type credentials struct {
	user, pass string
}

func (c *credentials) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.user, "user", "", "Username (required)")
	cmd.Flags().StringVar(&c.pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")
}

func newRegisterCmd() *cobra.Command {
	var creds credentials

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			if err := c.Register(creds.user, creds.pass); err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).PrintMessage(fmt.Sprintf("Registered %s", creds.user))
			return nil
		},
	}
	creds.bind(cmd)

	return cmd
}

func newLoginCmd() *cobra.Command {
	var creds credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check credentials and show the account's statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			record, err := c.Login(creds.user, creds.pass)
			if err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(response.PlayerFromModel(record))
			return nil
		},
	}
	creds.bind(cmd)

	return cmd
}

func newStatsCmd() *cobra.Command {
	var creds credentials

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the leaderboard over a game connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			if _, err := c.Login(creds.user, creds.pass); err != nil {
				return err
			}
			records, err := c.Stats()
			if err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(response.LeaderboardFromModel(records))
			return nil
		},
	}
	creds.bind(cmd)

	return cmd
}

func newPlayerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "player [username]",
		Short: "Show statistics from the admin API; without a name, the whole leaderboard",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd.OutOrStdout(), cfg.Output)

			if len(args) == 0 {
				var result response.Leaderboard
				if err := admin.Get(cmd.Context(), "/api/v1/players", &result); err != nil {
					return err
				}
				out.Print(result)
				return nil
			}

			var result response.Player
			if err := admin.Get(cmd.Context(), "/api/v1/players/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}
			out.Print(result)
			return nil
		},
	}
}
