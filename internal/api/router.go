package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/lightsduel/internal/api/handler"
	"github.com/mcoot/lightsduel/internal/api/middleware"
	"github.com/mcoot/lightsduel/internal/api/response"
	"github.com/mcoot/lightsduel/internal/dependencies/clock"
	"github.com/mcoot/lightsduel/internal/services/auth"
	"github.com/mcoot/lightsduel/internal/services/board"
	"github.com/mcoot/lightsduel/internal/services/game"
	"github.com/mcoot/lightsduel/internal/services/matchmaking"
	"github.com/mcoot/lightsduel/internal/services/session"
)

// RouterConfig holds configuration for the admin router
type RouterConfig struct {
	Logger           *slog.Logger
	Clock            clock.Clock
	AuthService      *auth.Service
	BoardService     *board.Service
	Sessions         *session.Registry
	Queue            *matchmaking.Queue
	GameController   *game.Controller
	Connections      handler.ConnectionCounter
	AdminToken       string
	DefaultSolutions int
	MaxSolutions     int
}

// NewRouter creates the admin router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	playerHandler := handler.NewPlayerHandler(cfg.AuthService)
	statusHandler := handler.NewStatusHandler(handler.StatusSources{
		Clock:       cfg.Clock,
		Sessions:    cfg.Sessions,
		Queue:       cfg.Queue,
		Games:       cfg.GameController,
		Connections: cfg.Connections,
	})
	solveHandler := handler.NewSolveHandler(cfg.BoardService, cfg.DefaultSolutions, cfg.MaxSolutions)

	authMiddleware := middleware.Auth(cfg.AdminToken)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Leaderboard is public
	api.HandleFunc("/players", playerHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/players/{username}", playerHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/solve", solveHandler.Solve).Methods(http.MethodPost)

	// Live counters need the admin token when one is configured
	status := api.PathPrefix("/status").Subrouter()
	status.Use(authMiddleware)
	status.HandleFunc("", statusHandler.Get).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
