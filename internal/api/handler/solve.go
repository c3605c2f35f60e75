package handler

import (
	"net/http"

	"github.com/mcoot/lightsduel/internal/api/request"
	"github.com/mcoot/lightsduel/internal/api/apierr"
	"github.com/mcoot/lightsduel/internal/api/response"
	"github.com/mcoot/lightsduel/internal/services/board"
)

// SolveHandler runs the toggle solver for a posted board
type SolveHandler struct {
	boards       *board.Service
	defaultLimit int
	maxLimit     int
}

// NewSolveHandler creates a solve handler. Requests without a limit use
// defaultLimit; larger limits are clamped to maxLimit.
func NewSolveHandler(boards *board.Service, defaultLimit, maxLimit int) *SolveHandler {
	if maxLimit <= 0 {
		maxLimit = 1024
	}
	if defaultLimit <= 0 || defaultLimit > maxLimit {
		defaultLimit = min(64, maxLimit)
	}
	return &SolveHandler{
		boards:       boards,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// Solve handles POST /api/v1/solve
func (h *SolveHandler) Solve(w http.ResponseWriter, r *http.Request) {
	var req request.SolveRequest
	if err := request.Decode(w, r, &req); err != nil {
		apierr.Write(w, apierr.InvalidRequest("invalid request body"))
		return
	}
	if req.Limit < 0 {
		apierr.Write(w, apierr.InvalidRequest("limit must not be negative"))
		return
	}

	limit := req.Limit
	if limit == 0 {
		limit = h.defaultLimit
	}
	limit = min(limit, h.maxLimit)

	if !req.Board.IsRectangular() {
		apierr.Write(w, apierr.InvalidRequest("board must be a non-empty rectangle"))
		return
	}
	if err := h.boards.ValidateSize(req.Board.Rows(), req.Board.Cols()); err != nil {
		apierr.Write(w, err)
		return
	}

	analysis, err := board.Analyze(req.Board)
	if err != nil {
		apierr.Write(w, err)
		return
	}
	solutions, err := analysis.Solutions(limit)
	if err != nil {
		apierr.Write(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SolveFromAnalysis(req.Board, analysis, solutions))
}
