package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/lightsduel/internal/api/apierr"
	"github.com/mcoot/lightsduel/internal/api/response"
	"github.com/mcoot/lightsduel/internal/services/auth"
)

// PlayerHandler serves account statistics
type PlayerHandler struct {
	authService *auth.Service
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(authService *auth.Service) *PlayerHandler {
	return &PlayerHandler{
		authService: authService,
	}
}

// List handles GET /api/v1/players
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.authService.GetAllStats(r.Context())
	if err != nil {
		apierr.Write(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LeaderboardFromModel(records))
}

// Get handles GET /api/v1/players/{username}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	record, err := h.authService.GetStats(r.Context(), username)
	if err != nil {
		apierr.Write(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(record))
}
