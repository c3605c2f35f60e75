package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg   *Config
	admin *AdminClient
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "lightsctl",
		Short: "CLI tool for a lightsduel server",
		Long: `lightsctl talks to a lightsduel game server over its wire protocol and
to the admin HTTP API.

Account commands (register, login, stats) open a game connection; each run
authenticates afresh. The bot command logs in once and plays games until
it is done. The solver runs locally unless --remote is given.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Output != "text" && cfg.Output != "json" {
				return fmt.Errorf("--output must be text or json, got %q", cfg.Output)
			}
			admin = NewAdminClient(cfg.AdminURL, cfg.AdminToken, cfg.Timeout)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerAddr, "server", cfg.ServerAddr, "Game server address (env: LIGHTSCTL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.AdminURL, "admin", cfg.AdminURL, "Admin API base URL (env: LIGHTSCTL_ADMIN)")
	rootCmd.PersistentFlags().StringVar(&cfg.AdminToken, "token", cfg.AdminToken, "Admin API token (env: LIGHTSCTL_TOKEN)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Network timeout per request")

	// Add subcommands
	rootCmd.AddCommand(newRegisterCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newPlayerCmd())
	rootCmd.AddCommand(newSolveCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newBotCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
