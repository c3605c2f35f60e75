package model

// ConnectionState is the lifecycle phase of one live connection
type ConnectionState int32

const (
	StateUnauthenticated ConnectionState = iota
	StateIdle                            // Authenticated, not queued or playing
	StateQueued                          // Waiting in matchmaking
	StateInGame                          // Seated in an active game
	StateClosed                          // Disconnected; no further transitions
)

func (s ConnectionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateIdle:
		return "idle"
	case StateQueued:
		return "queued"
	case StateInGame:
		return "in_game"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
