package model

import "errors"

// Common errors used across the application
var (
	// Account errors
	ErrUserNotFound        = errors.New("user not found")
	ErrUsernameTaken       = errors.New("username already exists")
	ErrInvalidUsername     = errors.New("invalid username")
	ErrInvalidPassword     = errors.New("invalid password")
	ErrDuplicateCredential = errors.New("credential material already in use")
	ErrWrongPassword       = errors.New("incorrect password")
	ErrAlreadyLoggedIn     = errors.New("user is already logged in")

	// Session errors
	ErrSessionNotFound   = errors.New("session not found")
	ErrNotAuthenticated  = errors.New("connection is not authenticated")
	ErrAlreadyAuthed     = errors.New("connection is already authenticated")
	ErrInvalidTransition = errors.New("invalid connection state transition")

	// Matchmaking errors
	ErrNotIdle    = errors.New("connection is not idle")
	ErrNotWaiting = errors.New("not waiting for a game")

	// Game errors
	ErrGameNotFound     = errors.New("game not found")
	ErrNotInGame        = errors.New("player is not in this game")
	ErrBoardShape       = errors.New("board dimensions do not match the game")
	ErrInvalidBoardSize = errors.New("invalid board size")

	// Board errors
	ErrInvalidPosition = errors.New("invalid board position")
)
