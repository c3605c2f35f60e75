package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/pbkdf2"

	"github.com/mcoot/lightsduel/internal/model"
	"github.com/mcoot/lightsduel/internal/services/session"
	"github.com/mcoot/lightsduel/internal/storage"
)

// insertAttempts bounds how often Register redraws a salt that collided
const insertAttempts = 3

// Config holds configuration for the auth service
type Config struct {
	Iterations int `mapstructure:"iterations"`
	SaltBytes  int `mapstructure:"salt_bytes"`
	KeyLength  int `mapstructure:"key_length"`
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		Iterations: 100000,
		SaltBytes:  24,
		KeyLength:  sha512.Size,
	}
}

// Service registers accounts and binds logins to live connections
type Service struct {
	store    storage.CredentialStore
	sessions *session.Registry
	cfg      Config
	logger   *slog.Logger
}

// New creates a new AuthService
func New(store storage.CredentialStore, sessions *session.Registry, cfg Config, logger *slog.Logger) *Service {
	defaults := DefaultConfig()
	if cfg.Iterations == 0 {
		cfg.Iterations = defaults.Iterations
	}
	if cfg.SaltBytes == 0 {
		cfg.SaltBytes = defaults.SaltBytes
	}
	if cfg.KeyLength == 0 {
		cfg.KeyLength = defaults.KeyLength
	}
	return &Service{
		store:    store,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "auth")),
	}
}

// Register creates an account. It never logs the connection in.
func (s *Service) Register(ctx context.Context, username, password string) error {
	if err := validateUsername(username); err != nil {
		return err
	}
	if password == "" {
		return model.ErrInvalidPassword
	}

	_, err := s.store.FindByUsername(ctx, username)
	if err == nil {
		return model.ErrUsernameTaken
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return fmt.Errorf("check username: %w", err)
	}

	for attempt := 1; ; attempt++ {
		salt, err := s.newSalt()
		if err != nil {
			return err
		}
		err = s.store.Insert(ctx, username, s.hash(password, salt), hex.EncodeToString(salt))
		switch {
		case err == nil:
			s.logger.Info("account registered", slog.String("username", username))
			return nil
		case errors.Is(err, model.ErrUsernameTaken):
			return err
		case errors.Is(err, model.ErrDuplicateCredential) && attempt < insertAttempts:
			s.logger.Warn("salt collision, retrying", slog.String("username", username))
			continue
		default:
			return fmt.Errorf("insert account: %w", err)
		}
	}
}

// Login checks credentials and binds the user to connID.
// A user already bound to a live connection is rejected before the password is checked.
func (s *Service) Login(ctx context.Context, connID, username, password string) (model.UserRecord, error) {
	account, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.UserRecord{}, err
		}
		return model.UserRecord{}, fmt.Errorf("find account: %w", err)
	}

	if s.sessions.IsLoggedIn(username) {
		return model.UserRecord{}, model.ErrAlreadyLoggedIn
	}

	ok, err := s.verify(account, password)
	if err != nil {
		return model.UserRecord{}, err
	}
	if !ok {
		s.logger.Info("login rejected", slog.String("username", username))
		return model.UserRecord{}, model.ErrWrongPassword
	}

	// Bind re-checks the guard atomically for logins racing past IsLoggedIn
	if _, err := s.sessions.Bind(connID, account.UserRecord); err != nil {
		return model.UserRecord{}, err
	}
	return account.UserRecord, nil
}

// GetAllStats returns every account sorted by wins minus losses, best first.
// Accounts with equal standing keep their registration order.
func (s *Service) GetAllStats(ctx context.Context) ([]model.UserRecord, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	slices.SortStableFunc(records, func(a, b model.UserRecord) int {
		switch {
		case a.Standing() > b.Standing():
			return -1
		case a.Standing() < b.Standing():
			return 1
		default:
			return 0
		}
	})
	return records, nil
}

// GetStats returns one account's statistics
func (s *Service) GetStats(ctx context.Context, username string) (model.UserRecord, error) {
	account, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.UserRecord{}, err
		}
		return model.UserRecord{}, fmt.Errorf("find account: %w", err)
	}
	return account.UserRecord, nil
}

func (s *Service) verify(account *model.Account, password string) (bool, error) {
	salt, err := hex.DecodeString(account.Salt)
	if err != nil {
		return false, fmt.Errorf("decode salt for %s: %w", account.Username, err)
	}
	computed := s.hash(password, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(account.PasswordHash)) == 1, nil
}

func (s *Service) hash(password string, salt []byte) string {
	key := pbkdf2.Key([]byte(password), salt, s.cfg.Iterations, s.cfg.KeyLength, sha512.New)
	return hex.EncodeToString(key)
}

func (s *Service) newSalt() ([]byte, error) {
	b := make([]byte, s.cfg.SaltBytes)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return b, nil
}

func validateUsername(username string) error {
	if username == "" || strings.TrimSpace(username) != username {
		return model.ErrInvalidUsername
	}
	if utf8.RuneCountInString(username) > model.MaxUsernameLength {
		return model.ErrInvalidUsername
	}
	return nil
}
