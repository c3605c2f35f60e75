package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/lightsduel/internal/api/response"
)

func newHealthCmd() *cobra.Command {
	return adminGetCmd[response.Health]("health", "Check admin API health", "/api/v1/health")
}

func newStatusCmd() *cobra.Command {
	return adminGetCmd[response.Status]("status", "Show live server counters (needs --token when the server sets one)", "/api/v1/status")
}

// adminGetCmd builds a command that prints the reply of one admin GET route
func adminGetCmd[T any](use, short, path string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result T
			if err := admin.Get(cmd.Context(), path, &result); err != nil {
				return err
			}
			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(result)
			return nil
		},
	}
}
