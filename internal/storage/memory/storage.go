package memory

import (
	"context"
	"sync"

	"github.com/mcoot/lightsduel/internal/model"
	"github.com/mcoot/lightsduel/internal/storage"
)

// Storage is an in-memory implementation of the credential store
type Storage struct {
	mu sync.RWMutex

	accounts map[string]*model.Account
	order    []string
	hashes   map[string]struct{}
	salts    map[string]struct{}
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		accounts: make(map[string]*model.Account),
		hashes:   make(map[string]struct{}),
		salts:    make(map[string]struct{}),
	}
}

// Ensure Storage implements the interface
var _ storage.CredentialStore = (*Storage)(nil)

func (s *Storage) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	copied := *account
	return &copied, nil
}

func (s *Storage) Insert(ctx context.Context, username, passwordHash, salt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[username]; ok {
		return model.ErrUsernameTaken
	}
	if _, ok := s.hashes[passwordHash]; ok {
		return model.ErrDuplicateCredential
	}
	if _, ok := s.salts[salt]; ok {
		return model.ErrDuplicateCredential
	}

	s.accounts[username] = &model.Account{
		UserRecord:   model.UserRecord{Username: username},
		PasswordHash: passwordHash,
		Salt:         salt,
	}
	s.order = append(s.order, username)
	s.hashes[passwordHash] = struct{}{}
	s.salts[salt] = struct{}{}
	return nil
}

func (s *Storage) RecordWin(ctx context.Context, username string) error {
	return s.update(username, func(a *model.Account) {
		a.Wins++
		a.GamesPlayed++
	})
}

func (s *Storage) RecordLoss(ctx context.Context, username string) error {
	return s.update(username, func(a *model.Account) {
		a.Losses++
		a.GamesPlayed++
	})
}

func (s *Storage) ListAll(ctx context.Context) ([]model.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]model.UserRecord, 0, len(s.order))
	for _, username := range s.order {
		records = append(records, s.accounts[username].UserRecord)
	}
	return records, nil
}

// Close is a no-op for in-memory storage
func (s *Storage) Close() error {
	return nil
}

func (s *Storage) update(username string, fn func(*model.Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[username]
	if !ok {
		return model.ErrUserNotFound
	}
	fn(account)
	return nil
}
