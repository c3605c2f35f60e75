package request

import "github.com/mcoot/lightsduel/internal/model"

// SolveRequest is the request body for the solver endpoint
type SolveRequest struct {
	Board model.Board `json:"board"`
	Limit int         `json:"limit,omitempty"`
}
