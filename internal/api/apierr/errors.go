// Package apierr maps domain errors onto the admin API's JSON error envelope.
package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/lightsduel/internal/model"
	"github.com/mcoot/lightsduel/internal/services/board"
)

// Error codes
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodePlayerNotFound   = "PLAYER_NOT_FOUND"
	CodeInvalidBoard     = "INVALID_BOARD"
	CodeTooManySolutions = "TOO_MANY_SOLUTIONS"
	CodeInternalError    = "INTERNAL_ERROR"
)

// Body is the wire form of one error
type Body struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope is the document returned by every failed request
type Envelope struct {
	Error Body `json:"error"`
}

// Error is an error that already carries its HTTP status and wire body
type Error struct {
	Status int
	Body
}

func (e *Error) Error() string {
	return e.Message
}

var internal = &Error{http.StatusInternalServerError, Body{CodeInternalError, "Internal server error"}}

// known maps domain sentinels to responses; anything unmatched is internal
var known = []struct {
	target error
	resp   *Error
}{
	{model.ErrUserNotFound, &Error{http.StatusNotFound, Body{CodePlayerNotFound, "Player not found"}}},
	{model.ErrInvalidBoardSize, &Error{http.StatusBadRequest, Body{CodeInvalidBoard, "Board must be rectangular and within the size limits"}}},
	{board.ErrTooManySolutions, &Error{http.StatusUnprocessableEntity, Body{CodeTooManySolutions, "Solution space exceeds the requested limit"}}},
}

// From resolves err to the response it should produce
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	for _, k := range known {
		if errors.Is(err, k.target) {
			return k.resp
		}
	}
	return internal
}

// Write sends err as a JSON error envelope
func Write(w http.ResponseWriter, err error) {
	e := From(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(Envelope{Error: e.Body})
}

// InvalidRequest reports a malformed request
func InvalidRequest(message string) *Error {
	return &Error{http.StatusBadRequest, Body{CodeInvalidRequest, message}}
}

// Unauthorized reports a missing or wrong admin token
func Unauthorized() *Error {
	return &Error{http.StatusUnauthorized, Body{CodeUnauthorized, "Authentication required"}}
}

// Internal reports a failure the caller cannot act on
func Internal() *Error {
	return internal
}
