// Package config loads lightsduel settings from defaults, an optional YAML
// file and LIGHTSDUEL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/mcoot/lightsduel/internal/api"
	"github.com/mcoot/lightsduel/internal/server"
	"github.com/mcoot/lightsduel/internal/services/auth"
	"github.com/mcoot/lightsduel/internal/services/board"
	"github.com/mcoot/lightsduel/internal/services/matchmaking"
	redisstorage "github.com/mcoot/lightsduel/internal/storage/redis"
)

// EnvPrefix prefixes every environment override, e.g. LIGHTSDUEL_SERVER_ADDR
const EnvPrefix = "LIGHTSDUEL"

// Storage type constants
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config is the full application configuration
type Config struct {
	Server      server.Config      `mapstructure:"server"`
	Admin       AdminConfig        `mapstructure:"admin"`
	Store       StoreConfig        `mapstructure:"store"`
	Auth        auth.Config        `mapstructure:"auth"`
	Board       board.Config       `mapstructure:"board"`
	Matchmaking matchmaking.Config `mapstructure:"matchmaking"`
	Log         LogConfig          `mapstructure:"log"`
}

// AdminConfig configures the HTTP status and solver API
type AdminConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	Token            string `mapstructure:"token"`
	DefaultSolutions int    `mapstructure:"default_solutions"`
	MaxSolutions     int    `mapstructure:"max_solutions"`

	api.ServerConfig `mapstructure:",squash"`
}

// StoreConfig selects and configures the credential store
type StoreConfig struct {
	Type       string              `mapstructure:"type"`
	SQLitePath string              `mapstructure:"sqlite_path"`
	Redis      redisstorage.Config `mapstructure:"redis"`
}

// LogConfig controls the process logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() Config {
	return Config{
		Server: server.DefaultConfig(),
		Admin: AdminConfig{
			Enabled:          true,
			DefaultSolutions: 64,
			MaxSolutions:     1024,
			ServerConfig:     api.DefaultServerConfig(),
		},
		Store: StoreConfig{
			Type:       StoreMemory,
			SQLitePath: "lightsduel.db",
			Redis:      redisstorage.DefaultConfig(),
		},
		Auth:        auth.DefaultConfig(),
		Board:       board.DefaultConfig(),
		Matchmaking: matchmaking.DefaultConfig(),
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// NewViper returns a viper instance carrying every default and bound to the environment
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional YAML file at path into v and decodes the result.
// An empty path skips the file.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that have no safe fallback
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Type {
	case StoreMemory, StoreRedis:
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("store.sqlite_path is required for the sqlite store"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.type %q: must be memory, sqlite or redis", c.Store.Type))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Admin.Enabled && c.Admin.Addr == "" {
		errs = append(errs, errors.New("admin.addr is required when the admin API is enabled"))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("log.format %q: must be json or text", c.Log.Format))
	}
	return errors.Join(errs...)
}

// NewLogger builds the process logger described by c
func (c LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", s, err)
	}
	return level, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.max_connections", d.Server.MaxConnections)
	v.SetDefault("server.workers", d.Server.Workers)
	v.SetDefault("server.job_queue", d.Server.JobQueue)
	v.SetDefault("server.send_buffer", d.Server.SendBuffer)
	v.SetDefault("server.max_frame_size", d.Server.MaxFrameSize)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)

	v.SetDefault("admin.enabled", d.Admin.Enabled)
	v.SetDefault("admin.token", d.Admin.Token)
	v.SetDefault("admin.default_solutions", d.Admin.DefaultSolutions)
	v.SetDefault("admin.max_solutions", d.Admin.MaxSolutions)
	v.SetDefault("admin.addr", d.Admin.Addr)
	v.SetDefault("admin.read_timeout", d.Admin.ReadTimeout)
	v.SetDefault("admin.write_timeout", d.Admin.WriteTimeout)
	v.SetDefault("admin.shutdown_timeout", d.Admin.ShutdownTimeout)

	v.SetDefault("store.type", d.Store.Type)
	v.SetDefault("store.sqlite_path", d.Store.SQLitePath)
	v.SetDefault("store.redis.url", d.Store.Redis.URL)
	v.SetDefault("store.redis.pool_size", d.Store.Redis.PoolSize)
	v.SetDefault("store.redis.min_idle_conns", d.Store.Redis.MinIdleConns)

	v.SetDefault("auth.iterations", d.Auth.Iterations)
	v.SetDefault("auth.salt_bytes", d.Auth.SaltBytes)
	v.SetDefault("auth.key_length", d.Auth.KeyLength)

	v.SetDefault("board.min_side", d.Board.MinSide)
	v.SetDefault("board.max_side", d.Board.MaxSide)
	v.SetDefault("board.max_attempts", d.Board.MaxAttempts)

	v.SetDefault("matchmaking.default_rows", d.Matchmaking.DefaultRows)
	v.SetDefault("matchmaking.default_cols", d.Matchmaking.DefaultCols)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}
