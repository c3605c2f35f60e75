package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/mcoot/lightsduel/internal/api"
	"github.com/mcoot/lightsduel/internal/config"
	"github.com/mcoot/lightsduel/internal/factory"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.NewViper()
	defaults := config.DefaultConfig()
	var configPath string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the game server and admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), v, configPath)
		},
	}

	rootCmd := &cobra.Command{
		Use:   "lightsduel",
		Short: "Two-player lights-out parity duel server",
		Long: `lightsduel runs the TCP game server and, unless disabled, the admin HTTP API.

Settings come from built-in defaults, an optional YAML file given with --config,
LIGHTSDUEL_* environment variables (LIGHTSDUEL_SERVER_ADDR, LIGHTSDUEL_STORE_TYPE, ...)
and the flags below, in increasing order of precedence.`,
		RunE:         serveCmd.RunE,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", os.Getenv(config.EnvPrefix+"_CONFIG"), "YAML config file (env: LIGHTSDUEL_CONFIG)")
	flags.String("addr", defaults.Server.Addr, "Game server listen address")
	flags.String("admin-addr", defaults.Admin.Addr, "Admin API listen address")
	flags.Bool("admin", defaults.Admin.Enabled, "Serve the admin API")
	flags.String("store", defaults.Store.Type, "Credential store: memory, sqlite or redis")
	flags.String("log-level", defaults.Log.Level, "Log level: debug, info, warn, error")
	bindFlags(v, flags.Lookup, map[string]string{
		"server.addr":   "addr",
		"admin.addr":    "admin-addr",
		"admin.enabled": "admin",
		"store.type":    "store",
		"log.level":     "log-level",
	})

	rootCmd.AddCommand(serveCmd)
	return rootCmd
}

func bindFlags(v *viper.Viper, lookup func(string) *pflag.Flag, keys map[string]string) {
	for key, name := range keys {
		_ = v.BindPFlag(key, lookup(name))
	}
}

func serve(ctx context.Context, v *viper.Viper, configPath string) error {
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return err
	}

	logger, err := cfg.Log.NewLogger(os.Stdout)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	app, err := factory.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close store", slog.String("error", err.Error()))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Server.ListenAndServe(ctx)
	})

	if cfg.Admin.Enabled {
		adminServer := api.NewServer(app.Admin, cfg.Admin.ServerConfig, logger)
		g.Go(func() error {
			return adminServer.Run(ctx)
		})
	}

	logger.Info("lightsduel started",
		slog.String("addr", cfg.Server.Addr),
		slog.String("store", cfg.Store.Type),
		slog.Bool("admin", cfg.Admin.Enabled),
	)

	if err := g.Wait(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("lightsduel stopped")
	return nil
}
