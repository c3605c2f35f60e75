package redis

import "fmt"

// Key prefix for all account data
const keyPrefix = "lightsduel"

// Hash fields of an account
const (
	fieldUsername     = "username"
	fieldPasswordHash = "password_hash"
	fieldSalt         = "salt"
	fieldWins         = "wins"
	fieldLosses       = "losses"
	fieldGamesPlayed  = "games_played"
)

// userKey returns the Redis key for an account HASH
func userKey(username string) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, username)
}

// userOrderKey returns the Redis key for the LIST of usernames in insertion order
func userOrderKey() string {
	return fmt.Sprintf("%s:users", keyPrefix)
}

// saltIndexKey returns the Redis key claiming a salt for one account
func saltIndexKey(salt string) string {
	return fmt.Sprintf("%s:idx:salt:%s", keyPrefix, salt)
}

// hashIndexKey returns the Redis key claiming a password hash for one account
func hashIndexKey(hash string) string {
	return fmt.Sprintf("%s:idx:hash:%s", keyPrefix, hash)
}
