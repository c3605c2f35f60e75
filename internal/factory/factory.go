package factory

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/lightsduel/internal/api"
	"github.com/mcoot/lightsduel/internal/config"
	"github.com/mcoot/lightsduel/internal/dependencies/clock"
	"github.com/mcoot/lightsduel/internal/dependencies/random"
	"github.com/mcoot/lightsduel/internal/server"
	"github.com/mcoot/lightsduel/internal/services/auth"
	"github.com/mcoot/lightsduel/internal/services/board"
	"github.com/mcoot/lightsduel/internal/services/game"
	"github.com/mcoot/lightsduel/internal/services/matchmaking"
	"github.com/mcoot/lightsduel/internal/services/session"
	"github.com/mcoot/lightsduel/internal/storage"
	"github.com/mcoot/lightsduel/internal/storage/memory"
	redisstorage "github.com/mcoot/lightsduel/internal/storage/redis"
	"github.com/mcoot/lightsduel/internal/storage/sqlite"
)

// App contains all wired application components
type App struct {
	Config config.Config

	// Storage
	Store storage.CredentialStore

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Sessions       *session.Registry
	AuthService    *auth.Service
	BoardService   *board.Service
	GameController *game.Controller
	Queue          *matchmaking.Queue

	// Front ends
	Dispatcher *server.Dispatcher
	Server     *server.Server
	Admin      http.Handler
}

// New creates a new application with all dependencies wired.
// A nil logger discards all output.
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := NewStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	return newWithDependencies(cfg, store, clock.New(), random.New(), logger), nil
}

// NewStore opens the credential store selected by cfg.Type
func NewStore(cfg config.StoreConfig) (storage.CredentialStore, error) {
	switch cfg.Type {
	case "", config.StoreMemory:
		return memory.New(), nil
	case config.StoreSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	case config.StoreRedis:
		store, err := redisstorage.New(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("invalid store type %q: must be memory, sqlite or redis", cfg.Type)
	}
}

// Close releases the credential store
func (a *App) Close() error {
	return a.Store.Close()
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(cfg config.Config, store storage.CredentialStore, clk clock.Clock, rnd random.Random, logger *slog.Logger) *App {
	sessions := session.NewRegistry(clk, logger)
	authService := auth.New(store, sessions, cfg.Auth, logger)
	boardService := board.New(rnd, cfg.Board, logger)
	gameController := game.NewController(store, clk, logger)
	queue := matchmaking.New(boardService, gameController, cfg.Matchmaking, logger)
	dispatcher := server.NewDispatcher(sessions, authService, queue, gameController, logger)
	srv := server.New(cfg.Server, dispatcher, logger)

	admin := api.NewRouter(api.RouterConfig{
		Logger:           logger,
		Clock:            clk,
		AuthService:      authService,
		BoardService:     boardService,
		Sessions:         sessions,
		Queue:            queue,
		GameController:   gameController,
		Connections:      srv,
		AdminToken:       cfg.Admin.Token,
		DefaultSolutions: cfg.Admin.DefaultSolutions,
		MaxSolutions:     cfg.Admin.MaxSolutions,
	})

	return &App{
		Config:         cfg,
		Store:          store,
		Clock:          clk,
		Random:         rnd,
		Sessions:       sessions,
		AuthService:    authService,
		BoardService:   boardService,
		GameController: gameController,
		Queue:          queue,
		Dispatcher:     dispatcher,
		Server:         srv,
		Admin:          admin,
	}
}
