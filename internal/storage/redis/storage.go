package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/lightsduel/internal/model"
	"github.com/mcoot/lightsduel/internal/storage"
)

// Results of insertScript
const (
	insertOK = iota
	insertUsernameTaken
	insertDuplicateCredential
)

// insertScript claims the username, salt and hash together so that a
// conflicting insert leaves nothing behind.
//
// KEYS: user hash, order list, salt index, hash index
// ARGV: username, password hash, salt
var insertScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 1
end
if redis.call('EXISTS', KEYS[3]) == 1 or redis.call('EXISTS', KEYS[4]) == 1 then
	return 2
end
redis.call('HSET', KEYS[1], 'username', ARGV[1], 'password_hash', ARGV[2], 'salt', ARGV[3], 'wins', '0', 'losses', '0', 'games_played', '0')
redis.call('RPUSH', KEYS[2], ARGV[1])
redis.call('SET', KEYS[3], ARGV[1])
redis.call('SET', KEYS[4], ARGV[1])
return 0
`)

// recordScript bumps one counter and games_played if the account exists.
//
// KEYS: user hash
// ARGV: counter field
var recordScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
redis.call('HINCRBY', KEYS[1], 'games_played', 1)
return 1
`)

// Storage is a Redis-backed implementation of the credential store
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.CredentialStore = (*Storage)(nil)

func (s *Storage) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	fields, err := s.client.HGetAll(ctx, userKey(username)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, model.ErrUserNotFound
	}
	return parseAccount(fields)
}

func (s *Storage) Insert(ctx context.Context, username, passwordHash, salt string) error {
	keys := []string{userKey(username), userOrderKey(), saltIndexKey(salt), hashIndexKey(passwordHash)}
	result, err := insertScript.Run(ctx, s.client, keys, username, passwordHash, salt).Int()
	if err != nil {
		return fmt.Errorf("insert %s: %w", username, err)
	}

	switch result {
	case insertOK:
		return nil
	case insertUsernameTaken:
		return model.ErrUsernameTaken
	case insertDuplicateCredential:
		return model.ErrDuplicateCredential
	default:
		return fmt.Errorf("insert %s: unexpected script result %d", username, result)
	}
}

func (s *Storage) RecordWin(ctx context.Context, username string) error {
	return s.record(ctx, username, fieldWins)
}

func (s *Storage) RecordLoss(ctx context.Context, username string) error {
	return s.record(ctx, username, fieldLosses)
}

func (s *Storage) ListAll(ctx context.Context) ([]model.UserRecord, error) {
	usernames, err := s.client.LRange(ctx, userOrderKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	if len(usernames) == 0 {
		return []model.UserRecord{}, nil
	}

	// Fetch all accounts in one round trip
	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(usernames))
	for i, username := range usernames {
		cmds[i] = pipe.HGetAll(ctx, userKey(username))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	records := make([]model.UserRecord, 0, len(usernames))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue // Skip accounts removed out of band
		}
		account, err := parseAccount(fields)
		if err != nil {
			return nil, err
		}
		records = append(records, account.UserRecord)
	}
	return records, nil
}

func (s *Storage) record(ctx context.Context, username, field string) error {
	updated, err := recordScript.Run(ctx, s.client, []string{userKey(username)}, field).Int()
	if err != nil {
		return fmt.Errorf("record %s for %s: %w", field, username, err)
	}
	if updated == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func parseAccount(fields map[string]string) (*model.Account, error) {
	account := &model.Account{
		UserRecord:   model.UserRecord{Username: fields[fieldUsername]},
		PasswordHash: fields[fieldPasswordHash],
		Salt:         fields[fieldSalt],
	}

	counters := []struct {
		field string
		dst   *uint32
	}{
		{fieldWins, &account.Wins},
		{fieldLosses, &account.Losses},
		{fieldGamesPlayed, &account.GamesPlayed},
	}
	for _, c := range counters {
		v, err := strconv.ParseUint(fields[c.field], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse %s for %s: %w", c.field, account.Username, err)
		}
		*c.dst = uint32(v)
	}
	return account, nil
}
