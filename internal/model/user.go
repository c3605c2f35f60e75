package model

// MaxUsernameLength is the longest username an account may hold
const MaxUsernameLength = 32

// UserRecord is the public statistics view of an account
type UserRecord struct {
	Username    string `json:"username"`
	Wins        uint32 `json:"wins"`
	Losses      uint32 `json:"losses"`
	GamesPlayed uint32 `json:"games_played"`
}

// Standing is the leaderboard ordering key
func (u UserRecord) Standing() int64 {
	return int64(u.Wins) - int64(u.Losses)
}

// Account is a stored user including password material. It never leaves the server.
type Account struct {
	UserRecord
	PasswordHash string
	Salt         string
}
