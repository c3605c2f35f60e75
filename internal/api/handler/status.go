package handler

import (
	"net/http"
	"time"

	"github.com/mcoot/lightsduel/internal/api/response"
	"github.com/mcoot/lightsduel/internal/dependencies/clock"
	"github.com/mcoot/lightsduel/internal/services/game"
	"github.com/mcoot/lightsduel/internal/services/matchmaking"
	"github.com/mcoot/lightsduel/internal/services/session"
)

// ConnectionCounter reports the number of open game connections
type ConnectionCounter interface {
	Connections() int
}

// StatusSources are the live components the status endpoint reads from
type StatusSources struct {
	Clock       clock.Clock
	Sessions    *session.Registry
	Queue       *matchmaking.Queue
	Games       *game.Controller
	Connections ConnectionCounter
}

// StatusHandler reports live server counters
type StatusHandler struct {
	src     StatusSources
	started time.Time
}

// NewStatusHandler creates a status handler; uptime is measured from now
func NewStatusHandler(src StatusSources) *StatusHandler {
	return &StatusHandler{
		src:     src,
		started: src.Clock.Now(),
	}
}

// Get handles GET /api/v1/status
func (h *StatusHandler) Get(w http.ResponseWriter, _ *http.Request) {
	counts := h.src.Sessions.Counts()
	sessions := make(map[string]int, len(counts))
	for state, n := range counts {
		sessions[state.String()] = n
	}

	status := response.Status{
		Sessions:    sessions,
		Queued:      h.src.Queue.Len(),
		ActiveGames: h.src.Games.Len(),
		Uptime:      h.src.Clock.Since(h.started).Round(time.Second).String(),
	}
	if h.src.Connections != nil {
		status.Connections = h.src.Connections.Connections()
	}

	response.JSON(w, http.StatusOK, status)
}
